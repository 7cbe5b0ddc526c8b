// Package envelope validates untrusted sample submissions before any domain
// object is constructed or any store mutation happens.
package envelope

import (
	"math/big"

	"github.com/abeer-rozba/vr-therapy-server/internal/domain"
)

type Result struct {
	OK     bool
	Reason string
}

// Validate runs the structural and semantic checks in a fixed order,
// short-circuiting on the first failure. The reason names the failing field.
func Validate(env domain.Envelope) Result {
	if env.SessionID == "" {
		return fail("missing sessionId")
	}
	if env.Timestamp == nil {
		return fail("missing timestamp")
	}
	if env.EncryptedData == nil {
		return fail("missing encryptedData")
	}
	if env.PublicKey == nil {
		return fail("missing publicKey")
	}
	if env.PublicKey.N == "" {
		return fail("publicKey missing n")
	}
	if env.PublicKey.G == "" {
		return fail("publicKey missing g")
	}

	fields := [4]struct {
		name  string
		value string
	}{
		{"alpha", env.EncryptedData.Alpha},
		{"beta", env.EncryptedData.Beta},
		{"gamma", env.EncryptedData.Gamma},
		{"heartRate", env.EncryptedData.HeartRate},
	}
	for _, f := range fields {
		if f.value == "" {
			return fail("encryptedData missing field " + f.name)
		}
	}
	for _, f := range fields {
		if !validCiphertext(f.value) {
			return fail("encryptedData field " + f.name + " is not a non-negative integer")
		}
	}
	return Result{OK: true}
}

func fail(reason string) Result {
	return Result{Reason: reason}
}

func validCiphertext(s string) bool {
	z, ok := new(big.Int).SetString(s, 10)
	return ok && z.Sign() >= 0
}
