package feature_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veridian/lib-license-go/internal/feature"
	"github.com/veridian/lib-license-go/model"
)

func TestResolveActive(t *testing.T) {
	features := feature.Resolve("professional", model.StatusActive)

	assert.Contains(t, features, "basic_access")
	assert.Contains(t, features, "advanced_reports")
	assert.Contains(t, features, "api_access")
}

func TestResolveGrace(t *testing.T) {
	features := feature.Resolve("enterprise", model.StatusGrace)

	assert.ElementsMatch(t, []string{"basic_access", "limited_mode"}, features)
}

// The grace set must be a strict subset of every product's active set.
func TestGraceIsStrictSubsetOfActive(t *testing.T) {
	for _, productType := range []string{"standard", "professional", "enterprise"} {
		active := feature.Resolve(productType, model.StatusActive)
		grace := feature.Resolve(productType, model.StatusGrace)

		assert.Less(t, len(grace), len(active), productType)

		for _, f := range grace {
			assert.Contains(t, active, f, productType)
		}
	}
}

func TestResolveLockedStatuses(t *testing.T) {
	for _, status := range []model.Status{
		model.StatusExpired,
		model.StatusRevoked,
		model.StatusUnactivated,
		model.StatusInvalid,
	} {
		assert.Empty(t, feature.Resolve("enterprise", status), string(status))
	}
}

func TestResolveUnknownProductType(t *testing.T) {
	assert.Empty(t, feature.Resolve("hobbyist", model.StatusActive))
	assert.Empty(t, feature.Resolve("hobbyist", model.StatusGrace))
	assert.False(t, feature.KnownProductType("hobbyist"))
	assert.True(t, feature.KnownProductType("standard"))
}
