package model

import "time"

// Source identifies where a validation decision came from.
type Source string

const (
	SourceCloud   Source = "cloud"
	SourceOffline Source = "offline"
)

// Check names the individual offline validation steps, in execution order.
type Check string

const (
	CheckFormat    Check = "format"
	CheckIntegrity Check = "integrity"
	CheckSignature Check = "signature"
	CheckExpiry    Check = "expiry"
)

// ValidationResult contains the data returned by license validation.
// Validate always returns a result, never a raised error: a failed check
// resolves to Valid=false with Err carrying the typed cause.
type ValidationResult struct {
	Valid             bool      `json:"valid"`
	Status            Status    `json:"status"`
	Source            Source    `json:"source"`
	Confidence        float64   `json:"confidence"`
	ChecksPerformed   []Check   `json:"checksPerformed,omitempty"`
	ChecksPassed      []Check   `json:"checksPassed,omitempty"`
	Warnings          []string  `json:"warnings,omitempty"`
	AvailableFeatures []string  `json:"availableFeatures,omitempty"`
	ExpiresAt         time.Time `json:"expiresAt,omitempty"`

	// DaysRemaining is set only while the license is in the offline grace
	// window.
	DaysRemaining *int `json:"daysRemaining,omitempty"`

	// Err is the typed failure that produced an invalid result, if any.
	Err error `json:"-"`
}

// HasFeature reports whether the result unlocks the named capability.
func (r ValidationResult) HasFeature(name string) bool {
	for _, f := range r.AvailableFeatures {
		if f == name {
			return true
		}
	}

	return false
}

// StatusSnapshot is the non-blocking view exposed to feature-gating callers.
type StatusSnapshot struct {
	Status        Status    `json:"status"`
	ExpiresAt     time.Time `json:"expiresAt,omitempty"`
	DaysRemaining *int      `json:"daysRemaining,omitempty"`
	Source        Source    `json:"source,omitempty"`
	Warnings      []string  `json:"warnings,omitempty"`
}

// RemoteValidation is the license backend's answer to a validate or activate
// request: {valid, product_type, expires_at, feature_set, signature}.
type RemoteValidation struct {
	Valid       bool      `json:"valid"`
	ProductType string    `json:"productType"`
	IssuedAt    time.Time `json:"issuedAt,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
	FeatureSet  []string  `json:"featureSet,omitempty"`
	Signature   []byte    `json:"signature,omitempty"`
}

// ErrorResponse contains error information returned by the license API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
