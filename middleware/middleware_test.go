package middleware_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/veridian/lib-license-go/internal/connectivity"
	"github.com/veridian/lib-license-go/internal/fingerprint"
	"github.com/veridian/lib-license-go/internal/signature"
	"github.com/veridian/lib-license-go/middleware"
	"github.com/veridian/lib-license-go/model"
	"github.com/veridian/lib-license-go/store"
	"github.com/veridian/lib-license-go/validation"
)

const testKey = "VLG-AAAA-BBBB-CCCC"

type offlineProber struct{}

func (offlineProber) IsOnline(context.Context) bool       { return false }
func (offlineProber) Refresh(context.Context) bool        { return false }
func (offlineProber) Status() []connectivity.MethodStatus { return nil }

// newLicenseClient builds a middleware client backed by a local store in dir,
// forced offline so tests never depend on the network. When seed is true a
// correctly signed professional license is activated in the store.
func newLicenseClient(t *testing.T, seed bool) *middleware.LicenseClient {
	t.Helper()

	dir := t.TempDir()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)

	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	storePath := filepath.Join(dir, "license.db")

	st, err := store.OpenBBolt(storePath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	if seed {
		// Same fallback path the validation client uses, so the fingerprints
		// agree even on machines without stable hardware identifiers.
		fpGen := fingerprint.New(filepath.Join(dir, "install.id"), zap.NewNop().Sugar())
		fp, err := fpGen.Generate()
		require.NoError(t, err)

		lic := &model.License{
			Key:              testKey,
			ProductType:      "professional",
			IssuedAt:         time.Now().AddDate(-1, 0, 0),
			ExpiresAt:        time.Now().Add(90 * 24 * time.Hour),
			BoundFingerprint: fp,
			Status:           model.StatusActive,
		}

		payload := signature.CanonicalPayload(lic.Key, lic.ProductType, lic.ExpiresAt, lic.BoundFingerprint)
		hash := sha256.Sum256(payload)

		sig, err := rsa.SignPSS(rand.Reader, priv, crypto.SHA256, hash[:], nil)
		require.NoError(t, err)

		lic.Signature = sig
		require.NoError(t, st.Put(lic))
	}

	validator, err := validation.NewWithStore(model.Config{
		LicenseKey:   testKey,
		ProductType:  "professional",
		PublicKeyPEM: string(pubPEM),
		StorePath:    storePath,
	}, st, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = validator.Close() })

	validator.SetConnectivityProber(offlineProber{})

	client := middleware.NewLicenseClientWithValidator(validator)

	// Capture terminations instead of panicking the test binary.
	client.SetTerminationHandler(func(string) {})

	return client
}

func TestMiddlewareAllowsLicensedRequest(t *testing.T) {
	client := newLicenseClient(t, true)

	app := fiber.New()
	app.Use(client.Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMiddlewareRejectsUnlicensedRequest(t *testing.T) {
	terminated := ""
	client := newLicenseClient(t, false)
	client.SetTerminationHandler(func(reason string) { terminated = reason })

	app := fiber.New()
	app.Use(client.Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.NotEmpty(t, terminated)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.NotEmpty(t, payload["code"])
}

func TestRequireFeature(t *testing.T) {
	client := newLicenseClient(t, true)

	app := fiber.New()
	app.Get("/reports", client.RequireFeature("advanced_reports"), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/sso", client.RequireFeature("sso"), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	// Professional tier unlocks advanced reports but not SSO.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/reports", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/sso", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestStatusHandler(t *testing.T) {
	client := newLicenseClient(t, true)

	app := fiber.New()
	app.Use(client.Middleware())
	app.Get("/license/status", client.StatusHandler())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/license/status", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap model.StatusSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, model.StatusActive, snap.Status)
	assert.Equal(t, model.SourceOffline, snap.Source)
}

func TestUnaryServerInterceptor(t *testing.T) {
	licensed := newLicenseClient(t, true)

	handlerCalled := false
	handler := func(ctx context.Context, req any) (any, error) {
		handlerCalled = true
		return "resp", nil
	}

	resp, err := licensed.UnaryServerInterceptor()(context.Background(), "req", nil, handler)
	require.NoError(t, err)
	assert.True(t, handlerCalled)
	assert.Equal(t, "resp", resp)

	unlicensed := newLicenseClient(t, false)

	_, err = unlicensed.UnaryServerInterceptor()(context.Background(), "req", nil, handler)
	require.Error(t, err)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}
