package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/veridian/lib-license-go/model"
	"go.etcd.io/bbolt"
)

const (
	bucketLicenses    = "licenses"
	bucketActivations = "activations"
)

// BBoltStore is the default Store backed by a single bbolt file. bbolt gives
// the required single-writer/multi-reader semantics natively: read
// transactions run concurrently, write transactions are serialized.
type BBoltStore struct {
	db *bbolt.DB
}

// OpenBBolt opens (creating if needed) the license database at path.
func OpenBBolt(path string) (*BBoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}

	st := &BBoltStore{db: db}

	if err := st.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketLicenses)); err != nil {
			return err
		}

		_, err := tx.CreateBucketIfNotExists([]byte(bucketActivations))

		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return st, nil
}

func (s *BBoltStore) Close() error { return s.db.Close() }

// Get returns the license stored under key, or ErrNotFound.
func (s *BBoltStore) Get(key string) (*model.License, error) {
	var lic *model.License

	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(bucketLicenses)).Get([]byte(key))
		if raw == nil {
			return ErrNotFound
		}

		var decoded model.License
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return fmt.Errorf("corrupt license record for %q: %w", key, err)
		}

		lic = &decoded

		return nil
	})
	if err != nil {
		return nil, err
	}

	return lic, nil
}

// Put creates or replaces the license record.
func (s *BBoltStore) Put(lic *model.License) error {
	if lic == nil || lic.Key == "" {
		return fmt.Errorf("license key must not be empty")
	}

	raw, err := json.Marshal(lic)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketLicenses)).Put([]byte(lic.Key), raw)
	})
}

// RecordActivation appends an activation audit entry under the license key.
func (s *BBoltStore) RecordActivation(rec model.ActivationRecord) error {
	if rec.LicenseKey == "" {
		return fmt.Errorf("activation record requires a license key")
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		parent := tx.Bucket([]byte(bucketActivations))

		b, err := parent.CreateBucketIfNotExists([]byte(rec.LicenseKey))
		if err != nil {
			return err
		}

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}

		var id [8]byte
		binary.BigEndian.PutUint64(id[:], seq)

		return b.Put(id[:], raw)
	})
}

// Activations returns the audit trail for a key, oldest first.
func (s *BBoltStore) Activations(key string) ([]model.ActivationRecord, error) {
	var records []model.ActivationRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketActivations)).Bucket([]byte(key))
		if b == nil {
			return nil
		}

		return b.ForEach(func(_, raw []byte) error {
			var rec model.ActivationRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return err
			}

			records = append(records, rec)

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}
