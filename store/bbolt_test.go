package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian/lib-license-go/model"
	"github.com/veridian/lib-license-go/store"
)

func openTestStore(t *testing.T) *store.BBoltStore {
	t.Helper()

	st, err := store.OpenBBolt(filepath.Join(t.TempDir(), "license.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return st
}

func TestPutGetRoundTrip(t *testing.T) {
	st := openTestStore(t)

	lic := &model.License{
		Key:              "VLG-AAAA-BBBB-CCCC",
		ProductType:      "professional",
		IssuedAt:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpiresAt:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		BoundFingerprint: "fp-1",
		Signature:        []byte{0x01, 0x02},
		Status:           model.StatusActive,
		FeatureSet:       []string{"basic_access", "reports"},
	}

	require.NoError(t, st.Put(lic))

	got, err := st.Get(lic.Key)
	require.NoError(t, err)
	assert.Equal(t, lic, got)
}

func TestGetMissingReturnsErrNotFound(t *testing.T) {
	st := openTestStore(t)

	_, err := st.Get("VLG-ZZZZ-ZZZZ-ZZZZ")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPutReplacesExistingRecord(t *testing.T) {
	st := openTestStore(t)

	lic := &model.License{Key: "VLG-AAAA-BBBB-CCCC", ProductType: "standard", ExpiresAt: time.Now(), Status: model.StatusActive}
	require.NoError(t, st.Put(lic))

	lic.Status = model.StatusRevoked
	require.NoError(t, st.Put(lic))

	got, err := st.Get(lic.Key)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRevoked, got.Status)
}

func TestPutRejectsEmptyKey(t *testing.T) {
	st := openTestStore(t)

	assert.Error(t, st.Put(&model.License{}))
	assert.Error(t, st.Put(nil))
}

func TestActivationsAppendInOrder(t *testing.T) {
	st := openTestStore(t)

	key := "VLG-AAAA-BBBB-CCCC"
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	for i, src := range []model.ActivationSource{
		model.ActivationSourceOfflineRejected,
		model.ActivationSourceCloud,
	} {
		require.NoError(t, st.RecordActivation(model.ActivationRecord{
			LicenseKey:  key,
			Fingerprint: "fp-1",
			ActivatedAt: base.Add(time.Duration(i) * time.Hour),
			Source:      src,
		}))
	}

	records, err := st.Activations(key)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, model.ActivationSourceOfflineRejected, records[0].Source)
	assert.Equal(t, model.ActivationSourceCloud, records[1].Source)
}

func TestActivationsEmptyForUnknownKey(t *testing.T) {
	st := openTestStore(t)

	records, err := st.Activations("VLG-ZZZZ-ZZZZ-ZZZZ")
	require.NoError(t, err)
	assert.Empty(t, records)
}
