// Package cache holds cloud-sourced validation results for a short window so
// back-to-back foreground validations of the same key do not hammer the
// license backend. Offline results are never cached: the offline path always
// recomputes from the store, so a revoked license cannot keep validating off
// a stale good-looking entry.
package cache

import (
	"github.com/dgraph-io/ristretto/v2"
	"github.com/veridian/lib-license-go/constant"
	"github.com/veridian/lib-license-go/model"
	"go.uber.org/zap"
)

// Manager handles caching of cloud validation results
type Manager struct {
	cache  *ristretto.Cache[string, model.ValidationResult]
	logger *zap.SugaredLogger
}

// New creates a new cache manager
func New(logger *zap.SugaredLogger) (*Manager, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, model.ValidationResult]{
		NumCounters: constant.CacheNumCounters,
		MaxCost:     constant.CacheMaxCost,
		BufferItems: constant.CacheBufferItems,
	})
	if err != nil {
		return nil, err
	}

	return &Manager{
		cache:  cache,
		logger: logger,
	}, nil
}

// Get retrieves a cached cloud result by license key.
func (m *Manager) Get(key string) (model.ValidationResult, bool) {
	result, found := m.cache.Get(key)
	if found {
		m.logger.Debugw("using cached cloud validation result", "status", result.Status)
	}

	return result, found
}

// Store caches a cloud validation result with the fixed short TTL.
func (m *Manager) Store(key string, result model.ValidationResult) {
	m.cache.SetWithTTL(key, result, 1, constant.CloudResultCacheTTL)
}

// Drop removes the cached result for a key, forcing the next validation to
// consult the backend.
func (m *Manager) Drop(key string) {
	m.cache.Del(key)
}

// Wait blocks until pending writes are visible. Test helper.
func (m *Manager) Wait() {
	m.cache.Wait()
}
