package constant

import "time"

// Connectivity probe targets. Three independent methods so a single blocked
// path (e.g. DNS filtered behind a proxy) does not produce a false offline.
const (
	// ProbeDNSHost is resolved as the DNS reachability check
	ProbeDNSHost = "one.one.one.one"
	// ProbeHTTPURL answers 204 with an empty body, cheap HTTP reachability
	ProbeHTTPURL = "http://clients3.google.com/generate_204"
	// ProbeTCPAddr is dialed raw, bypassing DNS entirely
	ProbeTCPAddr = "1.1.1.1:443"
	// ProbeTimeout bounds each individual probe method
	ProbeTimeout = 3 * time.Second
)
