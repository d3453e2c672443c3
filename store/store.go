// Package store defines the persistence contract consumed by the validation
// client, plus a default bbolt-backed implementation. Implementations must
// support concurrent reads with serialized writes; records are never deleted
// by cache pressure, only by explicit revocation handling.
package store

import (
	"errors"

	"github.com/veridian/lib-license-go/model"
)

// ErrNotFound is returned by Get when no license exists under the key.
var ErrNotFound = errors.New("license not found")

// Store persists License and ActivationRecord state.
type Store interface {
	// Get returns the license stored under key, or ErrNotFound.
	Get(key string) (*model.License, error)

	// Put creates or replaces the license record.
	Put(lic *model.License) error

	// RecordActivation appends an activation audit entry.
	RecordActivation(rec model.ActivationRecord) error

	// Activations returns the audit trail for a key, oldest first.
	Activations(key string) ([]model.ActivationRecord, error)

	Close() error
}
