package model

// Config is the public, environment-loadable configuration surface.
// Durations are plain integers here so they can come straight from the
// environment; the internal config resolves them into time.Durations.
type Config struct {
	LicenseKey  string `json:"licenseKey"  envconfig:"LICENSE_KEY"`
	ProductType string `json:"productType" envconfig:"LICENSE_PRODUCT_TYPE" default:"standard"`

	// PublicKeyPEM is the PEM-encoded RSA public key shipped with the
	// application. Leave empty to run without cryptographic verification
	// (offline checks then degrade to structural validation unless
	// StrictOfflineMode is set).
	PublicKeyPEM string `json:"-" envconfig:"LICENSE_PUBLIC_KEY"`

	APIGatewayURL string `json:"apiGatewayUrl" envconfig:"LICENSE_API_GATEWAY_URL"`
	StorePath     string `json:"storePath"     envconfig:"LICENSE_STORE_PATH" default:"license.db"`

	MaxGraceDays             int  `json:"maxGraceDays"             envconfig:"LICENSE_MAX_GRACE_DAYS" default:"7"`
	ConnectivityCacheTTLSec  int  `json:"connectivityCacheTtlSec"  envconfig:"LICENSE_CONNECTIVITY_CACHE_TTL_SEC" default:"30"`
	CloudTimeoutMS           int  `json:"cloudTimeoutMs"           envconfig:"LICENSE_CLOUD_TIMEOUT_MS" default:"5000"`
	BackgroundIntervalMin    int  `json:"backgroundIntervalMin"    envconfig:"LICENSE_BACKGROUND_INTERVAL_MIN" default:"30"`
	StrictOfflineMode        bool `json:"strictOfflineMode"        envconfig:"LICENSE_STRICT_OFFLINE_MODE" default:"false"`
}
