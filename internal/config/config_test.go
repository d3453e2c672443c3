package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian/lib-license-go/model"
)

func TestFromModelAppliesDefaults(t *testing.T) {
	resolved, err := FromModel(model.Config{LicenseKey: "VLG-AAAA-BBBB-CCCC"})
	require.NoError(t, err)

	assert.Equal(t, "standard", resolved.ProductType)
	assert.Equal(t, 7, resolved.MaxGraceDays)
	assert.Equal(t, 30*time.Second, resolved.ConnectivityCacheTTL)
	assert.Equal(t, 5*time.Second, resolved.CloudTimeout)
	assert.Equal(t, 30*time.Minute, resolved.BackgroundInterval)
	assert.False(t, resolved.StrictOfflineMode)
}

func TestFromModelResolvesDurations(t *testing.T) {
	resolved, err := FromModel(model.Config{
		LicenseKey:              "VLG-AAAA-BBBB-CCCC",
		ProductType:             "enterprise",
		MaxGraceDays:            14,
		ConnectivityCacheTTLSec: 5,
		CloudTimeoutMS:          1500,
		BackgroundIntervalMin:   10,
		StrictOfflineMode:       true,
	})
	require.NoError(t, err)

	assert.Equal(t, "enterprise", resolved.ProductType)
	assert.Equal(t, 14, resolved.MaxGraceDays)
	assert.Equal(t, 5*time.Second, resolved.ConnectivityCacheTTL)
	assert.Equal(t, 1500*time.Millisecond, resolved.CloudTimeout)
	assert.Equal(t, 10*time.Minute, resolved.BackgroundInterval)
	assert.True(t, resolved.StrictOfflineMode)
}

func TestFromModelRequiresLicenseKey(t *testing.T) {
	_, err := FromModel(model.Config{})
	assert.Error(t, err)
}

func TestValidateRejectsNegativeGrace(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.LicenseKey = "VLG-AAAA-BBBB-CCCC"
	cfg.MaxGraceDays = -1

	assert.Error(t, cfg.Validate())
}
