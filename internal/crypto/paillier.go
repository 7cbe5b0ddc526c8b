// Package crypto wraps the additively homomorphic operations of a
// Paillier-style cryptosystem. Only public key material (n, g) is ever
// present here; the service never decrypts and never sees a private key.
package crypto

import (
	"math/big"

	"github.com/abeer-rozba/vr-therapy-server/internal/domain"
)

// PublicKey is the parsed form of wire public-key material. nSquared is the
// ciphertext modulus, precomputed once at parse time.
type PublicKey struct {
	N *big.Int
	G *big.Int

	nSquared *big.Int
}

// ParsePublicKey reconstructs a public key from untrusted wire material.
// The only validation is "parses as a positive integer"; anything deeper
// would require private material this service must never hold.
func ParsePublicKey(wire domain.PublicKey) (*PublicKey, error) {
	n, err := parsePositive("public key n", wire.N)
	if err != nil {
		return nil, err
	}
	g, err := parsePositive("public key g", wire.G)
	if err != nil {
		return nil, err
	}
	return &PublicKey{
		N:        n,
		G:        g,
		nSquared: new(big.Int).Mul(n, n),
	}, nil
}

// Add performs homomorphic addition: the product of the ciphertexts mod n²,
// so that Decrypt(Add(c1, c2)) == Decrypt(c1) + Decrypt(c2) mod n under the
// matching private key.
func (pk *PublicKey) Add(c1, c2 string) (string, error) {
	a, err := parseCiphertext("add", c1)
	if err != nil {
		return "", err
	}
	b, err := parseCiphertext("add", c2)
	if err != nil {
		return "", err
	}
	sum := new(big.Int).Mul(a, b)
	sum.Mod(sum, pk.nSquared)
	return sum.String(), nil
}

// ScalarMultiply raises the ciphertext to the scalar mod n², so that
// Decrypt(ScalarMultiply(c, k)) == k * Decrypt(c) mod n. The scalar follows
// the same encoding rule as ciphertexts: a non-negative decimal integer.
func (pk *PublicKey) ScalarMultiply(c, k string) (string, error) {
	base, err := parseCiphertext("scalarMultiply", c)
	if err != nil {
		return "", err
	}
	scalar, err := parseCiphertext("scalarMultiply", k)
	if err != nil {
		return "", err
	}
	return new(big.Int).Exp(base, scalar, pk.nSquared).String(), nil
}

func parsePositive(name, s string) (*big.Int, error) {
	if s == "" {
		return nil, &domain.CryptoError{Op: "parse", Reason: "missing " + name}
	}
	z, ok := new(big.Int).SetString(s, 10)
	if !ok || z.Sign() <= 0 {
		return nil, &domain.CryptoError{Op: "parse", Reason: name + " is not a positive integer"}
	}
	return z, nil
}

func parseCiphertext(op, s string) (*big.Int, error) {
	if s == "" {
		return nil, &domain.CryptoError{Op: op, Reason: "empty operand"}
	}
	z, ok := new(big.Int).SetString(s, 10)
	if !ok || z.Sign() < 0 {
		return nil, &domain.CryptoError{Op: op, Reason: "operand is not a non-negative integer"}
	}
	return z, nil
}
