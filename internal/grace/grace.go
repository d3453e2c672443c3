// Package grace implements the bounded offline extension applied after a
// license expires. It is consulted only when fingerprint and signature checks
// already passed, the license is past expiry, and the machine is offline; an
// online-observed expiry is authoritative and never locally extended.
package grace

import "time"

// Result describes where now falls inside the grace window.
type Result struct {
	InGrace       bool
	DaysRemaining int
}

// Status computes the grace window position. DaysRemaining is 0 exactly at
// expiresAt + maxGraceDays and decreases as now advances; before expiry the
// license is simply not in grace.
func Status(expiresAt, now time.Time, maxGraceDays int) Result {
	if maxGraceDays <= 0 || !now.After(expiresAt) {
		return Result{}
	}

	graceEnd := expiresAt.Add(time.Duration(maxGraceDays) * 24 * time.Hour)
	if now.After(graceEnd) {
		return Result{}
	}

	return Result{
		InGrace:       true,
		DaysRemaining: int(graceEnd.Sub(now) / (24 * time.Hour)),
	}
}
