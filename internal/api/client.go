// Package api implements the HTTP client for the remote license authority.
// Only transient failures (transport errors, timeouts, 5xx) are retried,
// with capped exponential backoff; 4xx responses are terminal and surface as
// typed, non-retryable errors.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/veridian/lib-license-go/constant"
	licErr "github.com/veridian/lib-license-go/error"
	"github.com/veridian/lib-license-go/internal/config"
	"github.com/veridian/lib-license-go/model"
	"go.uber.org/zap"
)

// Client handles communication with the license API
type Client struct {
	httpClient *http.Client
	config     *config.ClientConfig
	logger     *zap.SugaredLogger

	maxRetries uint
	retryBase  time.Duration
}

// New creates a new API client
func New(cfg *config.ClientConfig, httpClient *http.Client, logger *zap.SugaredLogger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.CloudTimeout,
		}
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
		logger:     logger,
		maxRetries: constant.CloudMaxRetries,
		retryBase:  constant.CloudRetryBaseDelayMS * time.Millisecond,
	}
}

// SetHTTPClient allows overriding the HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

// ValidateRemote asks the backend whether the license is valid for this
// machine. Exhausted retries come back as a NetworkError so the caller can
// deterministically fall back to offline validation.
func (c *Client) ValidateRemote(ctx context.Context, key, fp string) (model.RemoteValidation, error) {
	return c.postWithRetry(ctx, "validate", key, fp)
}

// ActivateRemote requests first-time activation of the license for this
// machine's fingerprint.
func (c *Client) ActivateRemote(ctx context.Context, key, fp string) (model.RemoteValidation, error) {
	return c.postWithRetry(ctx, "activate", key, fp)
}

func (c *Client) postWithRetry(ctx context.Context, op, key, fp string) (model.RemoteValidation, error) {
	if c.config.APIGatewayURL == "" {
		return model.RemoteValidation{}, &licErr.NetworkError{
			Op:  op,
			Err: fmt.Errorf("api gateway url is not configured"),
		}
	}

	operation := func() (model.RemoteValidation, error) {
		return c.post(ctx, op, key, fp)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryBase

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxRetries),
	)
	if err != nil {
		if licErr.IsTerminal(err) {
			return model.RemoteValidation{}, err
		}

		var netErr *licErr.NetworkError
		if errors.As(err, &netErr) {
			return model.RemoteValidation{}, netErr
		}

		// Context cancellation and anything else non-terminal counts as a
		// transient network failure.
		return model.RemoteValidation{}, &licErr.NetworkError{Op: op, Err: err}
	}

	return result, nil
}

func (c *Client) post(ctx context.Context, op, key, fp string) (model.RemoteValidation, error) {
	url := fmt.Sprintf("%s/licenses/%s", c.config.APIGatewayURL, op)

	reqBody := map[string]string{
		"licenseKey":  key,
		"fingerprint": fp,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return model.RemoteValidation{}, backoff.Permanent(fmt.Errorf("failed to marshal request body: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return model.RemoteValidation{}, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warnw("license backend request failed", "op", op, "error", err)
		return model.RemoteValidation{}, &licErr.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.RemoteValidation{}, c.handleErrorResponse(op, resp)
	}

	var result model.RemoteValidation
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return model.RemoteValidation{}, backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}

	return result, nil
}

// handleErrorResponse maps non-200 responses onto the error taxonomy: 5xx is
// retryable, 4xx is terminal and never retried.
func (c *Client) handleErrorResponse(op string, resp *http.Response) error {
	var errorResp model.ErrorResponse

	bodyBytes, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(bodyBytes, &errorResp)

	if resp.StatusCode >= 500 {
		c.logger.Debugw("server error from license backend",
			"op", op, "status", resp.StatusCode, "code", errorResp.Code, "message", errorResp.Message)

		return &licErr.NetworkError{
			Op:  op,
			Err: fmt.Errorf("server error: %d", resp.StatusCode),
		}
	}

	c.logger.Debugw("license backend rejected request",
		"op", op, "status", resp.StatusCode, "code", errorResp.Code, "message", errorResp.Message)

	if errorResp.Code == constant.BackendCodeRevoked {
		return backoff.Permanent(&licErr.RevokedError{Reason: errorResp.Message})
	}

	return backoff.Permanent(&licErr.TerminalInvalidError{
		StatusCode: resp.StatusCode,
		Code:       errorResp.Code,
		Message:    errorResp.Message,
	})
}
