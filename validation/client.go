// Package validation hosts the orchestrating state machine that merges cloud
// and local license decisions. Cloud validation wins whenever the machine is
// online; any transient network failure falls back to a freshly computed
// offline decision, never to a stale cache.
package validation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/veridian/lib-license-go/constant"
	licErr "github.com/veridian/lib-license-go/error"
	"github.com/veridian/lib-license-go/internal/api"
	"github.com/veridian/lib-license-go/internal/cache"
	"github.com/veridian/lib-license-go/internal/config"
	"github.com/veridian/lib-license-go/internal/connectivity"
	"github.com/veridian/lib-license-go/internal/feature"
	"github.com/veridian/lib-license-go/internal/fingerprint"
	"github.com/veridian/lib-license-go/internal/offline"
	"github.com/veridian/lib-license-go/internal/refresh"
	"github.com/veridian/lib-license-go/internal/shutdown"
	"github.com/veridian/lib-license-go/internal/signature"
	"github.com/veridian/lib-license-go/model"
	"github.com/veridian/lib-license-go/store"
	"go.uber.org/zap"
)

// ConnectivityProber abstracts the online/offline detector so embedders (and
// tests) can substitute their own probing strategy.
type ConnectivityProber interface {
	IsOnline(ctx context.Context) bool
	Refresh(ctx context.Context) bool
	Status() []connectivity.MethodStatus
}

// Client is the public validation entry point: activation, foreground
// validation with offline fallback, manual resync, and the background
// revalidation loop.
type Client struct {
	config          *config.ClientConfig
	apiClient       *api.Client
	store           store.Store
	ownStore        bool
	offlineVal      *offline.Validator
	prober          ConnectivityProber
	fpGen           *fingerprint.Generator
	cacheManager    *cache.Manager
	refreshManager  *refresh.Manager
	shutdownManager *shutdown.Manager
	logger          *zap.SugaredLogger

	// flight guarantees at most one in-flight validation per license key;
	// concurrent callers for the same key share the single result.
	flight singleflight.Group

	// now is overridable in tests
	now func() time.Time

	lastMu     sync.RWMutex
	lastResult *model.ValidationResult
	lastOnline bool
}

// New creates a validation client with the default bbolt store at the
// configured path.
func New(cfg model.Config, logger *zap.SugaredLogger) (*Client, error) {
	resolved, err := config.FromModel(cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.OpenBBolt(resolved.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open license store: %w", err)
	}

	client, err := newClient(resolved, st, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	client.ownStore = true

	return client, nil
}

// NewWithStore creates a validation client on top of a caller-provided store.
// The caller keeps ownership of the store's lifecycle.
func NewWithStore(cfg model.Config, st store.Store, logger *zap.SugaredLogger) (*Client, error) {
	resolved, err := config.FromModel(cfg)
	if err != nil {
		return nil, err
	}

	return newClient(resolved, st, logger)
}

func newClient(resolved *config.ClientConfig, st store.Store, logger *zap.SugaredLogger) (*Client, error) {
	var l *zap.SugaredLogger
	if logger != nil {
		l = logger
	} else {
		l = zap.Must(zap.NewProduction()).Sugar()
	}

	var verifier *signature.Verifier

	if resolved.PublicKeyPEM != "" {
		v, err := signature.NewVerifier([]byte(resolved.PublicKeyPEM))
		if err != nil {
			return nil, err
		}

		verifier = v
	} else if resolved.StrictOfflineMode {
		l.Warn("strict offline mode enabled without public key material: offline validation will always fail the signature check")
	} else {
		l.Warn("no public key material configured: offline signature checks degrade to structural validation")
	}

	fpGen := fingerprint.New(filepath.Join(filepath.Dir(resolved.StorePath), "install.id"), l)

	cacheManager, err := cache.New(l)
	if err != nil {
		return nil, err
	}

	c := &Client{
		config:          resolved,
		apiClient:       api.New(resolved, nil, l),
		store:           st,
		offlineVal:      offline.New(st, fpGen, verifier, resolved.MaxGraceDays, l),
		prober:          connectivity.New(resolved.ConnectivityCacheTTL, l),
		fpGen:           fpGen,
		cacheManager:    cacheManager,
		shutdownManager: shutdown.New(),
		logger:          l,
		now:             time.Now,
	}

	c.refreshManager = refresh.New(c, resolved.BackgroundInterval, l)

	return c, nil
}

// Activate performs first-time activation against the license backend.
// Activation requires connectivity: the offline grace window only ever
// applies to licenses that have been activated online at least once, so an
// offline attempt is rejected outright and recorded as such.
func (c *Client) Activate(ctx context.Context, key string) (model.ValidationResult, error) {
	if !constant.MatchesKeyPattern(key) {
		err := &licErr.FormatError{Key: key}
		return c.invalidResult(model.SourceCloud, err), err
	}

	fp, err := c.fpGen.Generate()
	if err != nil {
		intErr := &licErr.IntegrityError{Reason: fmt.Sprintf("cannot determine machine fingerprint: %v", err)}
		return c.invalidResult(model.SourceCloud, intErr), intErr
	}

	if !c.prober.IsOnline(ctx) {
		c.setLastOnline(false)

		rec := model.ActivationRecord{
			LicenseKey:  key,
			Fingerprint: fp,
			ActivatedAt: c.now(),
			Source:      model.ActivationSourceOfflineRejected,
		}
		if recErr := c.store.RecordActivation(rec); recErr != nil {
			c.logger.Warnw("failed to record rejected offline activation", "error", recErr)
		}

		netErr := &licErr.NetworkError{Op: "activate", Err: errors.New("machine is offline, activation requires connectivity")}

		return c.invalidResult(model.SourceCloud, netErr), netErr
	}

	c.setLastOnline(true)

	cloudCtx, cancel := context.WithTimeout(ctx, c.config.CloudTimeout)
	defer cancel()

	remote, err := c.apiClient.ActivateRemote(cloudCtx, key, fp)
	if err != nil {
		return c.invalidResult(model.SourceCloud, err), err
	}

	if !remote.Valid {
		terminal := &licErr.TerminalInvalidError{StatusCode: http.StatusOK, Message: "backend declined activation"}
		return c.invalidResult(model.SourceCloud, terminal), terminal
	}

	now := c.now()
	issued := remote.IssuedAt
	if issued.IsZero() {
		issued = now
	}

	lic := &model.License{
		Key:                   key,
		ProductType:           remote.ProductType,
		IssuedAt:              issued,
		ExpiresAt:             remote.ExpiresAt,
		BoundFingerprint:      fp,
		Signature:             remote.Signature,
		Status:                model.StatusActive,
		FeatureSet:            remote.FeatureSet,
		LastValidatedAt:       now,
		LastOnlineValidatedAt: now,
	}

	if err := c.store.Put(lic); err != nil {
		return model.ValidationResult{}, fmt.Errorf("failed to persist activated license: %w", err)
	}

	rec := model.ActivationRecord{
		LicenseKey:  key,
		Fingerprint: fp,
		ActivatedAt: now,
		Source:      model.ActivationSourceCloud,
	}
	if err := c.store.RecordActivation(rec); err != nil {
		c.logger.Warnw("failed to record activation", "error", err)
	}

	res := c.cloudResult(lic)
	c.cacheManager.Store(key, res)
	c.setLastResult(res)

	c.logger.Infow("license activated", "product_type", lic.ProductType, "expires_at", lic.ExpiresAt)

	return res, nil
}

// Validate produces a validation decision for the license key. It never
// returns an error: network trouble degrades to a freshly computed offline
// decision carrying a warning. The call is bounded by the cloud timeout plus
// the retry budget; a caller deadline on ctx shortens that further, in which
// case the abandoned in-flight cloud call still completes in the background.
func (c *Client) Validate(ctx context.Context, key string) model.ValidationResult {
	ch := c.flight.DoChan(key, func() (any, error) {
		// Detached from the caller: other waiters may still want the
		// result after the first caller's deadline fires.
		return c.validateKey(context.WithoutCancel(ctx), key), nil
	})

	select {
	case r := <-ch:
		return r.Val.(model.ValidationResult)

	case <-ctx.Done():
		c.logger.Warnw("cloud validation deadline exceeded, proceeding with offline fallback", "error", ctx.Err())
		return c.offlineResult(key, "validation deadline exceeded before the cloud result arrived")
	}
}

// ForceOnlineValidation bypasses the connectivity cache TTL and the cloud
// result cache for a manual resync.
func (c *Client) ForceOnlineValidation(ctx context.Context) model.ValidationResult {
	c.prober.Refresh(ctx)
	c.cacheManager.Drop(c.config.LicenseKey)

	return c.Validate(ctx, c.config.LicenseKey)
}

// Revalidate is driven by the background refresh loop. It only does work when
// the license is not comfortably ACTIVE or the last known connectivity state
// was offline, silently self-healing GRACE back to ACTIVE once the backend is
// reachable again.
func (c *Client) Revalidate(ctx context.Context) error {
	last, ok := c.LastResult()
	online := c.lastKnownOnline()

	if ok && last.Status == model.StatusActive && online {
		return nil
	}

	res := c.Validate(ctx, c.config.LicenseKey)
	if res.Err != nil {
		return res.Err
	}

	return nil
}

// StartBackgroundRefresh starts the periodic revalidation task.
func (c *Client) StartBackgroundRefresh(ctx context.Context) {
	c.refreshManager.Start(ctx)
}

// ShutdownBackgroundRefresh stops the periodic revalidation task and waits
// for it to exit.
func (c *Client) ShutdownBackgroundRefresh() {
	c.refreshManager.Shutdown()
}

// Close releases resources, including the store when this client opened it.
func (c *Client) Close() error {
	c.refreshManager.Shutdown()

	if c.ownStore {
		return c.store.Close()
	}

	return nil
}

// LastResult returns the most recently computed validation result. It never
// blocks and performs no I/O; feature gating on hot paths reads this.
func (c *Client) LastResult() (model.ValidationResult, bool) {
	c.lastMu.RLock()
	defer c.lastMu.RUnlock()

	if c.lastResult == nil {
		return model.ValidationResult{}, false
	}

	return *c.lastResult, true
}

// ConnectivityStatus exposes the per-method probe breakdown for diagnostics.
func (c *Client) ConnectivityStatus() []connectivity.MethodStatus {
	return c.prober.Status()
}

// LicenseKey returns the configured license key.
func (c *Client) LicenseKey() string {
	return c.config.LicenseKey
}

// GetLogger returns the logger used by the client
func (c *Client) GetLogger() *zap.SugaredLogger {
	return c.logger
}

// SetHTTPClient allows overriding the HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client *http.Client) {
	c.apiClient.SetHTTPClient(client)
}

// SetConnectivityProber replaces the connectivity detector (useful for
// testing and for environments with their own reachability signal).
func (c *Client) SetConnectivityProber(p ConnectivityProber) {
	if p != nil {
		c.prober = p
	}
}

// SetTerminationHandler allows customizing how the application terminates
// when license validation fails.
func (c *Client) SetTerminationHandler(handler shutdown.Handler) {
	c.shutdownManager.SetHandler(handler)
}

// GetShutdownManager returns the termination manager.
func (c *Client) GetShutdownManager() *shutdown.Manager {
	return c.shutdownManager
}

// validateKey runs a single validation cycle: cloud first when online, fresh
// offline decision otherwise.
func (c *Client) validateKey(ctx context.Context, key string) model.ValidationResult {
	probeCtx, cancel := context.WithTimeout(ctx, c.config.CloudTimeout)
	online := c.prober.IsOnline(probeCtx)
	cancel()

	c.setLastOnline(online)

	if !online {
		return c.offlineResult(key, "machine is offline, cloud validation skipped")
	}

	if cached, found := c.cacheManager.Get(key); found {
		return cached
	}

	fp, err := c.fpGen.Generate()
	if err != nil {
		return c.offlineResult(key, fmt.Sprintf("cannot determine machine fingerprint: %v", err))
	}

	cloudCtx, cancel := context.WithTimeout(ctx, c.config.CloudTimeout)
	defer cancel()

	remote, err := c.apiClient.ValidateRemote(cloudCtx, key, fp)
	if err != nil {
		return c.handleCloudError(key, err)
	}

	if !remote.Valid {
		terminal := &licErr.TerminalInvalidError{StatusCode: http.StatusOK, Message: "backend reported the license as invalid"}

		res := c.invalidResult(model.SourceCloud, terminal)
		c.setLastResult(res)

		return res
	}

	return c.acceptCloudValidation(key, fp, remote)
}

// handleCloudError maps a failed cloud call: network trouble falls back to
// offline, terminal rejections become definitive INVALID results.
func (c *Client) handleCloudError(key string, err error) model.ValidationResult {
	var revoked *licErr.RevokedError
	if errors.As(err, &revoked) {
		c.persistRevocation(key)
		c.cacheManager.Drop(key)

		res := c.invalidResult(model.SourceCloud, revoked)
		res.Status = model.StatusRevoked
		c.setLastResult(res)

		return res
	}

	if licErr.IsTerminal(err) {
		res := c.invalidResult(model.SourceCloud, err)
		c.setLastResult(res)

		return res
	}

	c.logger.Warnw("cloud validation failed, falling back to offline validation", "error", err)

	return c.offlineResult(key, fmt.Sprintf("cloud validation failed: %v", err))
}

// acceptCloudValidation persists the refreshed license and produces the
// cloud-sourced result. The fingerprint binding is still enforced locally:
// a stored record bound to a different machine stays INVALID regardless of
// what the backend answered.
func (c *Client) acceptCloudValidation(key, fp string, remote model.RemoteValidation) model.ValidationResult {
	now := c.now()

	lic, err := c.store.Get(key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return c.offlineResult(key, fmt.Sprintf("license store unreadable: %v", err))
	}

	if lic == nil {
		lic = &model.License{
			Key:      key,
			IssuedAt: remote.IssuedAt,
		}
		if lic.IssuedAt.IsZero() {
			lic.IssuedAt = now
		}
	}

	if lic.BoundFingerprint != "" && lic.BoundFingerprint != fp {
		intErr := &licErr.IntegrityError{Reason: "license is bound to a different machine"}

		res := c.invalidResult(model.SourceCloud, intErr)
		c.setLastResult(res)

		return res
	}

	lic.ProductType = remote.ProductType
	lic.ExpiresAt = remote.ExpiresAt
	lic.Signature = remote.Signature
	lic.BoundFingerprint = fp
	lic.Status = model.StatusActive
	lic.LastValidatedAt = now
	lic.LastOnlineValidatedAt = now

	features := remote.FeatureSet
	if len(features) == 0 {
		features = feature.Resolve(remote.ProductType, model.StatusActive)
	}

	lic.FeatureSet = features

	if err := c.store.Put(lic); err != nil {
		c.logger.Warnw("failed to persist refreshed license", "error", err)
	}

	res := c.cloudResult(lic)
	c.cacheManager.Store(key, res)
	c.setLastResult(res)

	return res
}

// offlineResult computes a fresh offline decision, tags it as degraded, and
// persists the resulting status transition. Offline results are never served
// from a cache: a revoked license must not keep validating off an old entry.
func (c *Client) offlineResult(key, reason string) model.ValidationResult {
	res := c.offlineVal.Validate(key, c.config.StrictOfflineMode)
	res.Warnings = append(res.Warnings, "degraded validation: "+reason)

	c.persistTransition(key, res)
	c.setLastResult(res)

	return res
}

// persistTransition writes the offline decision's status back to the store.
// Only lifecycle statuses are persisted; INVALID is a validation outcome, not
// a stored license state.
func (c *Client) persistTransition(key string, res model.ValidationResult) {
	switch res.Status {
	case model.StatusActive, model.StatusGrace, model.StatusExpired:
	default:
		return
	}

	lic, err := c.store.Get(key)
	if err != nil {
		return
	}

	lic.Status = res.Status
	lic.FeatureSet = res.AvailableFeatures
	lic.LastValidatedAt = c.now()

	if err := c.store.Put(lic); err != nil {
		c.logger.Warnw("failed to persist license status transition", "error", err)
	}
}

// persistRevocation marks the stored license as revoked. The record itself is
// kept: revocation is an explicit state, not a deletion.
func (c *Client) persistRevocation(key string) {
	lic, err := c.store.Get(key)
	if err != nil {
		return
	}

	lic.Status = model.StatusRevoked
	lic.FeatureSet = nil
	lic.LastValidatedAt = c.now()
	lic.LastOnlineValidatedAt = c.now()

	if err := c.store.Put(lic); err != nil {
		c.logger.Warnw("failed to persist license revocation", "error", err)
	}
}

func (c *Client) cloudResult(lic *model.License) model.ValidationResult {
	return model.ValidationResult{
		Valid:             true,
		Status:            model.StatusActive,
		Source:            model.SourceCloud,
		Confidence:        1.0,
		ExpiresAt:         lic.ExpiresAt,
		AvailableFeatures: lic.FeatureSet,
	}
}

func (c *Client) invalidResult(source model.Source, cause error) model.ValidationResult {
	return model.ValidationResult{
		Valid:      false,
		Status:     model.StatusInvalid,
		Source:     source,
		Confidence: 1.0,
		Warnings:   []string{cause.Error()},
		Err:        cause,
	}
}

func (c *Client) setLastResult(res model.ValidationResult) {
	c.lastMu.Lock()
	defer c.lastMu.Unlock()

	c.lastResult = &res
}

func (c *Client) setLastOnline(online bool) {
	c.lastMu.Lock()
	defer c.lastMu.Unlock()

	c.lastOnline = online
}

func (c *Client) lastKnownOnline() bool {
	c.lastMu.RLock()
	defer c.lastMu.RUnlock()

	return c.lastOnline
}
