package error

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// FormatError reports a license key that matches none of the recognized key
// patterns. Always terminal: the key can never become valid later.
type FormatError struct {
	Key string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("license key %q does not match any recognized format", e.Key)
}

// IntegrityError reports a store-level integrity failure, most importantly a
// fingerprint that does not match the machine the license was bound to.
// Signals tampering or reuse on another machine; never retried.
type IntegrityError struct {
	Reason string
}

func (e *IntegrityError) Error() string {
	return "license integrity check failed: " + e.Reason
}

// SignatureError reports a failed cryptographic verification of the license
// payload, including unparseable key material.
type SignatureError struct {
	Reason string
}

func (e *SignatureError) Error() string {
	return "license signature verification failed: " + e.Reason
}

// NetworkError wraps a transient failure talking to the license backend.
// It is the only error class that triggers the offline fallback; it is never
// surfaced to callers of Validate as a hard failure.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("license backend unreachable during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TerminalInvalidError reports an explicit rejection by the license backend
// (4xx). Non-retryable: the result is a definitive INVALID.
type TerminalInvalidError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *TerminalInvalidError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("license rejected by backend (%d %s): %s", e.StatusCode, e.Code, e.Message)
	}

	return fmt.Sprintf("license rejected by backend: client error %d", e.StatusCode)
}

// RevokedError reports a license the backend has explicitly revoked.
type RevokedError struct {
	Reason string
}

func (e *RevokedError) Error() string {
	if e.Reason == "" {
		return "license has been revoked"
	}

	return "license has been revoked: " + e.Reason
}

// IsTerminal reports whether err must resolve to a definitive INVALID result
// and never be retried or reinterpreted.
func IsTerminal(err error) bool {
	var (
		formatErr    *FormatError
		integrityErr *IntegrityError
		signatureErr *SignatureError
		terminalErr  *TerminalInvalidError
		revokedErr   *RevokedError
	)

	return errors.As(err, &formatErr) ||
		errors.As(err, &integrityErr) ||
		errors.As(err, &signatureErr) ||
		errors.As(err, &terminalErr) ||
		errors.As(err, &revokedErr)
}

// IsNetwork reports whether err is a transient network failure that should
// trigger the offline fallback.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsConnectionError checks if an error is likely related to network connectivity
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()

	// Check for known connection error messages
	connectionErrors := []string{
		"connection refused",
		"no such host",
		"host unreachable",
		"i/o timeout",
		"no route to host",
		"network is unreachable",
		"operation timed out",
		"EOF",
		"connection reset by peer",
		"dial tcp",
		"TLS handshake",
		"context deadline exceeded",
		"operation canceled",
	}

	for _, msg := range connectionErrors {
		if strings.Contains(strings.ToLower(errStr), strings.ToLower(msg)) {
			return true
		}
	}

	// Check for specific error types
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// Try to unwrap and check nested error
	unwrapped := errors.Unwrap(err)
	if unwrapped != nil && unwrapped != err {
		return IsConnectionError(unwrapped)
	}

	return false
}
