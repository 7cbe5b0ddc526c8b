// Package aggregate folds a session's verified ciphertexts into running
// encrypted statistics without decrypting anything.
package aggregate

import (
	"github.com/abeer-rozba/vr-therapy-server/internal/crypto"
	"github.com/abeer-rozba/vr-therapy-server/internal/domain"
)

// Recompute folds the heart-rate ciphertexts of the verified samples into an
// encrypted running sum. The fold is seeded from element 0 and iterates from
// element 1: Paillier has no neutral element available without re-encrypting
// a zero, which would need randomness this service does not spend.
//
// Returns (nil, nil) when fewer than two verified samples exist; the caller
// keeps whatever statistics were previously computed. The quotient sum/count
// is never formed here: the client must decrypt the sum, then divide.
func Recompute(pk *crypto.PublicKey, verified []domain.EncryptedSample, now int64) (*domain.Statistics, error) {
	if len(verified) < 2 {
		return nil, nil
	}
	sum := verified[0].EncryptedData.HeartRate
	for _, s := range verified[1:] {
		next, err := pk.Add(sum, s.EncryptedData.HeartRate)
		if err != nil {
			return nil, err
		}
		sum = next
	}
	return &domain.Statistics{
		SampleCount: len(verified),
		EncryptedAvgHeartRate: domain.EncryptedAverage{
			Sum:   sum,
			Count: len(verified),
		},
		LastUpdated: now,
	}, nil
}
