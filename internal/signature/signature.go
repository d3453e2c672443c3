package signature

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strconv"
	"strings"
	"time"

	licErr "github.com/veridian/lib-license-go/error"
)

// Verifier checks RSA-PSS/SHA-256 signatures over the canonical license
// payload. Only the public key ships with the application; verification is
// pure and fully offline-capable.
type Verifier struct {
	pub *rsa.PublicKey
}

// NewVerifier parses a PEM-encoded RSA public key. Malformed key material is
// reported as a SignatureError, never a panic.
func NewVerifier(pemBytes []byte) (*Verifier, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, &licErr.SignatureError{Reason: "public key is not valid PEM"}
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, &licErr.SignatureError{Reason: fmt.Sprintf("failed to parse public key: %v", err)}
	}

	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, &licErr.SignatureError{Reason: "public key is not RSA"}
	}

	return &Verifier{pub: rsaPub}, nil
}

// CanonicalPayload builds the byte string the backend signs:
// key|product_type|expires_at_unix|fingerprint, UTF-8, expiry as decimal Unix
// seconds in UTC. Both sides must agree on this exact layout.
func CanonicalPayload(key, productType string, expiresAt time.Time, fingerprint string) []byte {
	fields := []string{
		key,
		productType,
		strconv.FormatInt(expiresAt.UTC().Unix(), 10),
		fingerprint,
	}

	return []byte(strings.Join(fields, "|"))
}

// Verify checks sig against payload. A nil error means the signature is
// authentic; any failure comes back as a typed SignatureError.
func (v *Verifier) Verify(payload, sig []byte) error {
	if len(sig) == 0 {
		return &licErr.SignatureError{Reason: "signature is empty"}
	}

	hash := sha256.Sum256(payload)

	if err := rsa.VerifyPSS(v.pub, crypto.SHA256, hash[:], sig, nil); err != nil {
		return &licErr.SignatureError{Reason: err.Error()}
	}

	return nil
}
