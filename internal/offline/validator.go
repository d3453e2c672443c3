// Package offline implements license validation without any network I/O:
// ordered checks over the local store, the machine fingerprint, and the
// cryptographic signature, with a bounded grace window after expiry. The
// validator is read-only; persisting the resulting status transition is the
// validation client's job.
package offline

import (
	"errors"
	"fmt"
	"time"

	"github.com/veridian/lib-license-go/constant"
	licErr "github.com/veridian/lib-license-go/error"
	"github.com/veridian/lib-license-go/internal/feature"
	"github.com/veridian/lib-license-go/internal/grace"
	"github.com/veridian/lib-license-go/internal/signature"
	"github.com/veridian/lib-license-go/model"
	"github.com/veridian/lib-license-go/store"
	"go.uber.org/zap"
)

// Confidence penalties for checks that passed weakly instead of strictly.
const (
	weakSignaturePenalty = 0.3
	gracePenalty         = 0.2
)

// Fingerprinter supplies the current machine fingerprint.
type Fingerprinter interface {
	Generate() (string, error)
}

// Validator runs the full offline decision. verifier may be nil when the
// application ships without key material; in that case the signature check
// degrades to a structural one unless strict mode makes it a hard failure.
type Validator struct {
	store        store.Store
	fp           Fingerprinter
	verifier     *signature.Verifier
	maxGraceDays int
	logger       *zap.SugaredLogger

	// now is overridable in tests
	now func() time.Time
}

// New creates an offline validator.
func New(st store.Store, fp Fingerprinter, verifier *signature.Verifier, maxGraceDays int, logger *zap.SugaredLogger) *Validator {
	return &Validator{
		store:        st,
		fp:           fp,
		verifier:     verifier,
		maxGraceDays: maxGraceDays,
		logger:       logger,
		now:          time.Now,
	}
}

// Validate runs the ordered offline checks: format, store integrity,
// signature, expiry, then feature resolution. Warnings accumulate; an
// unrecoverable failure short-circuits to a definitive INVALID result.
// Repeated calls against an unchanged store yield identical results.
func (v *Validator) Validate(key string, strict bool) model.ValidationResult {
	res := model.ValidationResult{
		Source:     model.SourceOffline,
		Confidence: 1.0,
	}

	// Check 1: key format.
	res.ChecksPerformed = append(res.ChecksPerformed, model.CheckFormat)

	if !constant.MatchesKeyPattern(key) {
		return invalid(res, &licErr.FormatError{Key: key})
	}

	res.ChecksPassed = append(res.ChecksPassed, model.CheckFormat)

	// Check 2: store record and integrity.
	res.ChecksPerformed = append(res.ChecksPerformed, model.CheckIntegrity)

	lic, err := v.store.Get(key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			res.Status = model.StatusUnactivated
			res.Warnings = append(res.Warnings, "license has not been activated on this machine")

			return res
		}

		return invalid(res, &licErr.IntegrityError{Reason: fmt.Sprintf("license store unreadable: %v", err)})
	}

	if lic.ProductType == "" || lic.ExpiresAt.IsZero() {
		return invalid(res, &licErr.IntegrityError{Reason: "license record is missing required fields"})
	}

	if lic.Status == model.StatusRevoked {
		res = invalid(res, &licErr.RevokedError{})
		res.Status = model.StatusRevoked

		return res
	}

	current, err := v.fp.Generate()
	if err != nil {
		return invalid(res, &licErr.IntegrityError{Reason: fmt.Sprintf("cannot determine machine fingerprint: %v", err)})
	}

	switch {
	case lic.BoundFingerprint == "":
		res.Warnings = append(res.Warnings, "license record has no bound fingerprint")
	case lic.BoundFingerprint != current:
		return invalid(res, &licErr.IntegrityError{Reason: "license is bound to a different machine"})
	}

	res.ChecksPassed = append(res.ChecksPassed, model.CheckIntegrity)
	res.ExpiresAt = lic.ExpiresAt

	// Check 3: cryptographic signature over the canonical payload.
	res.ChecksPerformed = append(res.ChecksPerformed, model.CheckSignature)

	if err := v.checkSignature(lic, current, strict, &res); err != nil {
		return invalid(res, err)
	}

	res.ChecksPassed = append(res.ChecksPassed, model.CheckSignature)

	// Check 4: expiry, with the bounded grace window. Grace applies here
	// because this validator only ever runs on the offline path; an online
	// expiry is re-confirmed against the backend instead.
	res.ChecksPerformed = append(res.ChecksPerformed, model.CheckExpiry)

	now := v.now()

	switch {
	case !now.After(lic.ExpiresAt):
		res.Status = model.StatusActive
		res.Valid = true
		res.ChecksPassed = append(res.ChecksPassed, model.CheckExpiry)

	default:
		if g := grace.Status(lic.ExpiresAt, now, v.maxGraceDays); g.InGrace {
			days := g.DaysRemaining
			res.Status = model.StatusGrace
			res.Valid = true
			res.DaysRemaining = &days
			res.Confidence -= gracePenalty
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("license expired, offline grace window allows %d more day(s)", days))
		} else {
			res.Status = model.StatusExpired
		}
	}

	// Feature resolution.
	if !feature.KnownProductType(lic.ProductType) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("unknown product type %q, no features unlocked", lic.ProductType))
	}

	res.AvailableFeatures = feature.Resolve(lic.ProductType, res.Status)

	return res
}

// checkSignature verifies the signature strictly when key material is
// present, and otherwise falls back to a structural check (non-strict mode
// only), recording a warning and a confidence penalty.
func (v *Validator) checkSignature(lic *model.License, currentFP string, strict bool, res *model.ValidationResult) error {
	if len(lic.Signature) == 0 {
		return &licErr.SignatureError{Reason: "signature is empty"}
	}

	if v.verifier == nil {
		if strict {
			return &licErr.SignatureError{Reason: "no public key material available for strict verification"}
		}

		res.Confidence -= weakSignaturePenalty
		res.Warnings = append(res.Warnings, "signature not cryptographically verified: no public key material")

		return nil
	}

	bound := lic.BoundFingerprint
	if bound == "" {
		bound = currentFP
	}

	payload := signature.CanonicalPayload(lic.Key, lic.ProductType, lic.ExpiresAt, bound)

	return v.verifier.Verify(payload, lic.Signature)
}

// invalid finalizes a definitive INVALID result carrying the typed cause.
func invalid(res model.ValidationResult, cause error) model.ValidationResult {
	res.Valid = false
	res.Status = model.StatusInvalid
	res.Err = cause
	res.Warnings = append(res.Warnings, cause.Error())

	return res
}
