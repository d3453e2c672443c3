// Package guard is the consumer-facing feature gate. Checks read only the
// validation client's last computed result: no network, no disk, no blocking,
// so gating a hot code path stays cheap. Freshness is governed entirely by
// the validation client's explicit Validate calls and its background loop.
package guard

import "github.com/veridian/lib-license-go/model"

// Source provides the last computed validation result.
type Source interface {
	LastResult() (model.ValidationResult, bool)
}

// Guard answers feature-gating checks from the latest validation snapshot.
type Guard struct {
	src Source
}

// New creates a guard over the given result source.
func New(src Source) *Guard {
	return &Guard{src: src}
}

// CheckFeature reports whether the named capability is currently unlocked.
// Before the first validation completes, every feature is locked.
func (g *Guard) CheckFeature(name string) bool {
	res, ok := g.src.LastResult()
	if !ok || !res.Valid {
		return false
	}

	return res.HasFeature(name)
}

// Status returns the current license status snapshot for display and
// diagnostics.
func (g *Guard) Status() model.StatusSnapshot {
	res, ok := g.src.LastResult()
	if !ok {
		return model.StatusSnapshot{Status: model.StatusUnactivated}
	}

	return model.StatusSnapshot{
		Status:        res.Status,
		ExpiresAt:     res.ExpiresAt,
		DaysRemaining: res.DaysRemaining,
		Source:        res.Source,
		Warnings:      res.Warnings,
	}
}
