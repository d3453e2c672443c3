// Package feature maps license status and product type to the set of unlocked
// capabilities. The tables are static configuration data: ACTIVE unlocks the
// full product tier, GRACE a reduced subset, every other status nothing.
package feature

import (
	"sort"

	"github.com/veridian/lib-license-go/model"
)

// graceFeatures is the reduced capability set during the offline grace
// window. It must stay a strict subset of every product's active table.
var graceFeatures = []string{"basic_access", "limited_mode"}

// activeFeatures is the full capability table per product type.
var activeFeatures = map[string][]string{
	"standard": {
		"basic_access",
		"limited_mode",
		"reports",
	},
	"professional": {
		"basic_access",
		"limited_mode",
		"reports",
		"advanced_reports",
		"api_access",
	},
	"enterprise": {
		"basic_access",
		"limited_mode",
		"reports",
		"advanced_reports",
		"api_access",
		"sso",
		"audit_log",
		"priority_support",
	},
}

// Resolve returns the sorted capability set for productType under status.
// Unknown product types resolve to nothing rather than guessing a tier.
func Resolve(productType string, status model.Status) []string {
	var features []string

	switch status {
	case model.StatusActive:
		features = activeFeatures[productType]
	case model.StatusGrace:
		if _, known := activeFeatures[productType]; known {
			features = graceFeatures
		}
	default:
		// EXPIRED, REVOKED, UNACTIVATED, INVALID: empty set
	}

	if len(features) == 0 {
		return nil
	}

	out := make([]string, len(features))
	copy(out, features)
	sort.Strings(out)

	return out
}

// KnownProductType reports whether productType has a capability table.
func KnownProductType(productType string) bool {
	_, ok := activeFeatures[productType]
	return ok
}
