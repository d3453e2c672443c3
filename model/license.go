package model

import "time"

// Status is the lifecycle state of a license on this machine.
type Status string

const (
	StatusUnactivated Status = "UNACTIVATED"
	StatusActive      Status = "ACTIVE"
	StatusGrace       Status = "GRACE"
	StatusExpired     Status = "EXPIRED"
	StatusRevoked     Status = "REVOKED"
	StatusInvalid     Status = "INVALID"
)

// ActivationSource records how an activation attempt was resolved.
type ActivationSource string

const (
	ActivationSourceCloud           ActivationSource = "cloud"
	ActivationSourceOfflineRejected ActivationSource = "offline-rejected"
)

// License is the locally persisted entitlement record. It is created on the
// first activation attempt and afterwards mutated only by the validation
// client (status, feature set, validation timestamps). ExpiresAt is immutable
// post-issuance; an extension arrives as a freshly signed record from the
// license backend, never as a local field edit.
type License struct {
	Key                   string    `json:"key"`
	ProductType           string    `json:"productType"`
	IssuedAt              time.Time `json:"issuedAt"`
	ExpiresAt             time.Time `json:"expiresAt"`
	BoundFingerprint      string    `json:"boundFingerprint,omitempty"`
	Signature             []byte    `json:"signature,omitempty"`
	Status                Status    `json:"status"`
	FeatureSet            []string  `json:"featureSet,omitempty"`
	LastValidatedAt       time.Time `json:"lastValidatedAt,omitempty"`
	LastOnlineValidatedAt time.Time `json:"lastOnlineValidatedAt,omitempty"`
}

// ActivationRecord is an audit entry for a single activation attempt.
type ActivationRecord struct {
	LicenseKey  string           `json:"licenseKey"`
	Fingerprint string           `json:"fingerprint"`
	ActivatedAt time.Time        `json:"activatedAt"`
	Source      ActivationSource `json:"source"`
}
