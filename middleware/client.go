package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/veridian/lib-license-go/constant"
	"github.com/veridian/lib-license-go/guard"
	"github.com/veridian/lib-license-go/internal/shutdown"
	"github.com/veridian/lib-license-go/model"
	"github.com/veridian/lib-license-go/validation"
	"go.uber.org/zap"
)

// LicenseClient is the public client API that exposes middleware
// functionality. It wraps the validation client and the feature guard.
type LicenseClient struct {
	validator *validation.Client
	guard     *guard.Guard

	// initOnce ensures startup validation and background refresh happen only
	// once even when both HTTP middleware and gRPC interceptors are used
	initOnce sync.Once
}

// NewLicenseClient creates a new license client with middleware capabilities.
// Returns an error when the configuration is invalid or the local store
// cannot be opened.
func NewLicenseClient(cfg model.Config, logger *zap.SugaredLogger) (*LicenseClient, error) {
	validator, err := validation.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &LicenseClient{
		validator: validator,
		guard:     guard.New(validator),
	}, nil
}

// NewLicenseClientWithValidator wraps an existing validation client, useful
// when the embedding application manages the store and lifecycle itself.
func NewLicenseClientWithValidator(validator *validation.Client) *LicenseClient {
	return &LicenseClient{
		validator: validator,
		guard:     guard.New(validator),
	}
}

// Guard returns the feature guard for direct call-site checks.
func (c *LicenseClient) Guard() *guard.Guard {
	return c.guard
}

// Validator returns the underlying validation client.
func (c *LicenseClient) Validator() *validation.Client {
	return c.validator
}

// startupValidation performs common validation steps for both HTTP and gRPC.
// The application never starts serving gated features without at least one
// validation cycle having run; a definitively invalid license terminates
// startup through the shutdown manager.
func (c *LicenseClient) startupValidation() {
	c.initOnce.Do(func() {
		if c == nil || c.validator == nil {
			return
		}

		bgCtx := context.Background()
		l := c.validator.GetLogger()

		res := c.validator.Validate(bgCtx, c.validator.LicenseKey())

		switch {
		case res.Valid:
			c.logLicenseStatus(res)

		case res.Status == model.StatusRevoked:
			l.Errorf("License revoked (code %s)", constant.ErrCodeLicenseRevoked)
			c.validator.GetShutdownManager().Terminate(
				fmt.Sprintf("%s: license has been revoked", constant.ErrCodeLicenseRevoked))

		default:
			l.Errorf("No valid license found (code %s)", constant.ErrCodeStartupValidationFailed)
			c.validator.GetShutdownManager().Terminate(
				fmt.Sprintf("%s: license validation failed with status %s", constant.ErrCodeStartupValidationFailed, res.Status))
		}

		// Kick-off background refresh regardless of mode
		c.validator.StartBackgroundRefresh(bgCtx)
	})
}

// logLicenseStatus reports the startup validation outcome.
func (c *LicenseClient) logLicenseStatus(res model.ValidationResult) {
	l := c.validator.GetLogger()

	switch res.Status {
	case model.StatusGrace:
		days := 0
		if res.DaysRemaining != nil {
			days = *res.DaysRemaining
		}

		l.Warnf("LICENSE GRACE: license expired, offline grace window allows %d more day(s)", days)

	case model.StatusActive:
		l.Infow("license valid", "source", res.Source, "expires_at", res.ExpiresAt)
	}

	for _, w := range res.Warnings {
		l.Warnf("license warning: %s", w)
	}
}

// SetHTTPClient allows overriding the HTTP client (useful for testing)
func (c *LicenseClient) SetHTTPClient(client *http.Client) {
	if c != nil && c.validator != nil {
		c.validator.SetHTTPClient(client)
	}
}

// SetTerminationHandler allows customizing how the application terminates when license validation fails
func (c *LicenseClient) SetTerminationHandler(handler shutdown.Handler) {
	if c != nil && c.validator != nil {
		c.validator.SetTerminationHandler(handler)
	}
}

// ShutdownBackgroundRefresh stops the background refresh process
func (c *LicenseClient) ShutdownBackgroundRefresh() {
	if c != nil && c.validator != nil {
		c.validator.ShutdownBackgroundRefresh()
	}
}

// GetLogger returns the logger used by the client
func (c *LicenseClient) GetLogger() *zap.SugaredLogger {
	return c.validator.GetLogger()
}
