package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identities.
// Version suffix enables future algorithm migration.
const (
	DomainResolution = "qlbind/resolution/v1"
	DomainTrace      = "qlbind/trace/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ResolutionID computes the content-addressed id of a resolution record.
// Recording the same outcome twice yields the same id.
func ResolutionID(record IRObject) (string, error) {
	canonical, err := MarshalCanonical(record)
	if err != nil {
		return "", fmt.Errorf("ResolutionID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainResolution, canonical), nil
}

// TraceHash digests a whole scenario trace.
func TraceHash(trace IRArray) (string, error) {
	canonical, err := MarshalCanonical(trace)
	if err != nil {
		return "", fmt.Errorf("TraceHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}

// MustResolutionID is like ResolutionID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustResolutionID(record IRObject) string {
	id, err := ResolutionID(record)
	if err != nil {
		panic(err)
	}
	return id
}
