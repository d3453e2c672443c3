package constant

import "regexp"

// Default configuration values for the validation client
const (
	// DefaultMaxGraceDays is the bounded offline window after expiry
	DefaultMaxGraceDays = 7
	// DefaultConnectivityCacheTTLSec bounds how often connectivity is re-probed
	DefaultConnectivityCacheTTLSec = 30
	// DefaultCloudTimeoutMS bounds a single foreground cloud validation
	DefaultCloudTimeoutMS = 5000
	// DefaultBackgroundIntervalMin is the background revalidation period
	DefaultBackgroundIntervalMin = 30
	// DefaultProductType is assumed when no product type is configured
	DefaultProductType = "standard"
)

// Cloud client retry policy: transient failures only (timeout, 5xx)
const (
	// CloudMaxRetries caps attempts against the license backend
	CloudMaxRetries = 3
	// CloudRetryBaseDelayMS is the initial backoff interval
	CloudRetryBaseDelayMS = 500
)

// KeyPatterns are the recognized license key formats. A key matching none of
// them fails format validation before any store or crypto work happens.
var KeyPatterns = []*regexp.Regexp{
	// Scratch-card style: VLG-XXXX-XXXX-XXXX
	regexp.MustCompile(`^[A-Z]{3}-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`),
	// UUID-style keys issued by the backend
	regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`),
}

// MatchesKeyPattern reports whether key is in a recognized format.
func MatchesKeyPattern(key string) bool {
	for _, p := range KeyPatterns {
		if p.MatchString(key) {
			return true
		}
	}

	return false
}
