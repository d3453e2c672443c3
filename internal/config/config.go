package config

import (
	"errors"
	"time"

	"github.com/veridian/lib-license-go/constant"
	"github.com/veridian/lib-license-go/model"
)

// ClientConfig holds the resolved configuration for the license client
type ClientConfig struct {
	LicenseKey   string
	ProductType  string
	PublicKeyPEM string

	// Backend configuration
	APIGatewayURL string

	// Local persistence
	StorePath string

	// Offline validation policy
	MaxGraceDays      int
	StrictOfflineMode bool

	// Network behavior
	ConnectivityCacheTTL time.Duration
	CloudTimeout         time.Duration

	// Background refresh configuration
	BackgroundInterval time.Duration
}

// NewDefaultConfig creates a new config with sensible defaults
func NewDefaultConfig() ClientConfig {
	return ClientConfig{
		ProductType:          constant.DefaultProductType,
		MaxGraceDays:         constant.DefaultMaxGraceDays,
		ConnectivityCacheTTL: constant.DefaultConnectivityCacheTTLSec * time.Second,
		CloudTimeout:         constant.DefaultCloudTimeoutMS * time.Millisecond,
		BackgroundInterval:   constant.DefaultBackgroundIntervalMin * time.Minute,
	}
}

// Validate checks if the configuration is valid
func (c *ClientConfig) Validate() error {
	if c.LicenseKey == "" {
		return errors.New("license key is required")
	}

	if c.ProductType == "" {
		return errors.New("product type is required")
	}

	if c.MaxGraceDays < 0 {
		return errors.New("max grace days must not be negative")
	}

	if c.CloudTimeout <= 0 {
		return errors.New("cloud timeout must be positive")
	}

	return nil
}

// FromModel converts the public model.Config into a resolved ClientConfig,
// applying defaults for any unset option.
func FromModel(cfg model.Config) (*ClientConfig, error) {
	resolved := NewDefaultConfig()

	resolved.LicenseKey = cfg.LicenseKey
	resolved.PublicKeyPEM = cfg.PublicKeyPEM
	resolved.APIGatewayURL = cfg.APIGatewayURL
	resolved.StrictOfflineMode = cfg.StrictOfflineMode

	if cfg.ProductType != "" {
		resolved.ProductType = cfg.ProductType
	}

	if cfg.StorePath != "" {
		resolved.StorePath = cfg.StorePath
	}

	if cfg.MaxGraceDays > 0 {
		resolved.MaxGraceDays = cfg.MaxGraceDays
	}

	if cfg.ConnectivityCacheTTLSec > 0 {
		resolved.ConnectivityCacheTTL = time.Duration(cfg.ConnectivityCacheTTLSec) * time.Second
	}

	if cfg.CloudTimeoutMS > 0 {
		resolved.CloudTimeout = time.Duration(cfg.CloudTimeoutMS) * time.Millisecond
	}

	if cfg.BackgroundIntervalMin > 0 {
		resolved.BackgroundInterval = time.Duration(cfg.BackgroundIntervalMin) * time.Minute
	}

	if err := resolved.Validate(); err != nil {
		return nil, err
	}

	return &resolved, nil
}
