// Package integrity binds each sample's ciphertext fields to a content
// digest. The digest detects storage-layer corruption between ingestion and
// aggregation; it is not a MAC, and an adversary who controls the ciphertext
// fields can trivially produce a matching hash. That boundary is deliberate.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/abeer-rozba/vr-therapy-server/internal/domain"
)

// Hash returns the SHA-256 hex digest of the canonical serialization of the
// ciphertext fields. The canonical form is the JSON object with keys in
// struct declaration order: alpha, beta, gamma, heartRate.
func Hash(payload domain.EncryptedPayload) string {
	raw, _ := json.Marshal(payload) // cannot fail for a flat string struct
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the digest over the sample's ciphertext fields and
// compares it to the stored one.
func Verify(sample domain.EncryptedSample) bool {
	return Hash(sample.EncryptedData) == sample.IntegrityHash
}

// Filter returns the subset of samples whose stored digest still matches a
// fresh recomputation, preserving order. Failing samples stay in the stored
// history for audit; they are only excluded from aggregation.
func Filter(samples []domain.EncryptedSample) []domain.EncryptedSample {
	verified := make([]domain.EncryptedSample, 0, len(samples))
	for _, s := range samples {
		if Verify(s) {
			verified = append(verified, s)
		}
	}
	return verified
}
