package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abeer-rozba/vr-therapy-server/internal/crypto"
	"github.com/abeer-rozba/vr-therapy-server/internal/domain"
)

// 3233 = 53 * 61, a toy Paillier modulus; the fold only needs public
// arithmetic, not decryptability.
func testPublicKey(t *testing.T) *crypto.PublicKey {
	t.Helper()
	pk, err := crypto.ParsePublicKey(domain.PublicKey{N: "3233", G: "3234"})
	require.NoError(t, err)
	return pk
}

func sampleWithHeartRate(hr string) domain.EncryptedSample {
	return domain.EncryptedSample{
		EncryptedData: domain.EncryptedPayload{
			Alpha:     "1",
			Beta:      "2",
			Gamma:     "3",
			HeartRate: hr,
		},
	}
}

func TestRecomputeBelowThreshold(t *testing.T) {
	pk := testPublicKey(t)

	stats, err := Recompute(pk, nil, 99)
	require.NoError(t, err)
	assert.Nil(t, stats)

	stats, err = Recompute(pk, []domain.EncryptedSample{sampleWithHeartRate("12345")}, 99)
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestRecomputeTwoSamples(t *testing.T) {
	pk := testPublicKey(t)
	c1, c2 := "123456", "654321"

	want, err := pk.Add(c1, c2)
	require.NoError(t, err)

	stats, err := Recompute(pk, []domain.EncryptedSample{
		sampleWithHeartRate(c1),
		sampleWithHeartRate(c2),
	}, 1234)
	require.NoError(t, err)
	require.NotNil(t, stats)

	assert.Equal(t, want, stats.EncryptedAvgHeartRate.Sum)
	assert.Equal(t, 2, stats.EncryptedAvgHeartRate.Count)
	assert.Equal(t, 2, stats.SampleCount)
	assert.Equal(t, int64(1234), stats.LastUpdated)
}

func TestRecomputeFoldsLeftToRight(t *testing.T) {
	pk := testPublicKey(t)
	cs := []string{"11", "22", "33", "44"}

	// Seeded from element 0, folded through element 3.
	want := cs[0]
	for _, c := range cs[1:] {
		next, err := pk.Add(want, c)
		require.NoError(t, err)
		want = next
	}

	samples := make([]domain.EncryptedSample, len(cs))
	for i, c := range cs {
		samples[i] = sampleWithHeartRate(c)
	}

	stats, err := Recompute(pk, samples, 0)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, want, stats.EncryptedAvgHeartRate.Sum)
	assert.Equal(t, len(cs), stats.EncryptedAvgHeartRate.Count)
}

func TestRecomputeCorruptCiphertextFails(t *testing.T) {
	pk := testPublicKey(t)

	_, err := Recompute(pk, []domain.EncryptedSample{
		sampleWithHeartRate("123"),
		sampleWithHeartRate("not-a-ciphertext"),
	}, 0)
	require.Error(t, err)

	var cryptoErr *domain.CryptoError
	assert.ErrorAs(t, err, &cryptoErr)
}

func TestRecomputeNeverDivides(t *testing.T) {
	pk := testPublicKey(t)

	stats, err := Recompute(pk, []domain.EncryptedSample{
		sampleWithHeartRate("10"),
		sampleWithHeartRate("20"),
		sampleWithHeartRate("30"),
	}, 0)
	require.NoError(t, err)
	require.NotNil(t, stats)

	// Sum stays encrypted; count rides alongside for the client to divide
	// after decryption.
	assert.NotEmpty(t, stats.EncryptedAvgHeartRate.Sum)
	assert.Equal(t, 3, stats.EncryptedAvgHeartRate.Count)
}
