package constant

import "time"

// Cache configuration constants for the cloud-result cache
const (
	// CloudResultCacheTTL defines how long a cloud validation result may be
	// reused before the backend is consulted again. Kept short so a
	// revocation is observed promptly; the offline path never reads this
	// cache.
	CloudResultCacheTTL = 30 * time.Second
	// CacheNumCounters is the number of keys to track frequency (10M)
	CacheNumCounters = 1e7
	// CacheMaxCost is the maximum cost of cache (1MB)
	CacheMaxCost = 1 << 20
	// CacheBufferItems is the number of keys per Get buffer
	CacheBufferItems = 64
)
