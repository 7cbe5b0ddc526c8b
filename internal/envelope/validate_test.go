package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abeer-rozba/vr-therapy-server/internal/domain"
)

func validEnvelope() domain.Envelope {
	ts := int64(1000)
	return domain.Envelope{
		SessionID: "s1",
		Timestamp: &ts,
		PublicKey: &domain.PublicKey{N: "3233", G: "3234"},
		EncryptedData: &domain.EncryptedPayload{
			Alpha:     "12345",
			Beta:      "67890",
			Gamma:     "13579",
			HeartRate: "24680",
		},
	}
}

func TestValidEnvelopePasses(t *testing.T) {
	res := Validate(validEnvelope())
	assert.True(t, res.OK)
	assert.Empty(t, res.Reason)
}

func TestChecksShortCircuitInOrder(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*domain.Envelope)
		reason string
	}{
		{
			"missing sessionId",
			func(e *domain.Envelope) { e.SessionID = "" },
			"missing sessionId",
		},
		{
			"missing timestamp",
			func(e *domain.Envelope) { e.Timestamp = nil },
			"missing timestamp",
		},
		{
			"missing encryptedData",
			func(e *domain.Envelope) { e.EncryptedData = nil },
			"missing encryptedData",
		},
		{
			"missing publicKey",
			func(e *domain.Envelope) { e.PublicKey = nil },
			"missing publicKey",
		},
		{
			"publicKey missing n",
			func(e *domain.Envelope) { e.PublicKey.N = "" },
			"publicKey missing n",
		},
		{
			"publicKey missing g",
			func(e *domain.Envelope) { e.PublicKey.G = "" },
			"publicKey missing g",
		},
		{
			"missing alpha",
			func(e *domain.Envelope) { e.EncryptedData.Alpha = "" },
			"encryptedData missing field alpha",
		},
		{
			"missing beta",
			func(e *domain.Envelope) { e.EncryptedData.Beta = "" },
			"encryptedData missing field beta",
		},
		{
			"missing gamma",
			func(e *domain.Envelope) { e.EncryptedData.Gamma = "" },
			"encryptedData missing field gamma",
		},
		{
			"missing heartRate",
			func(e *domain.Envelope) { e.EncryptedData.HeartRate = "" },
			"encryptedData missing field heartRate",
		},
		{
			"non-numeric alpha",
			func(e *domain.Envelope) { e.EncryptedData.Alpha = "xyz" },
			"encryptedData field alpha is not a non-negative integer",
		},
		{
			"negative heartRate",
			func(e *domain.Envelope) { e.EncryptedData.HeartRate = "-42" },
			"encryptedData field heartRate is not a non-negative integer",
		},
		{
			"decimal gamma",
			func(e *domain.Envelope) { e.EncryptedData.Gamma = "3.14" },
			"encryptedData field gamma is not a non-negative integer",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := validEnvelope()
			tc.mutate(&env)

			res := Validate(env)
			require.False(t, res.OK)
			assert.Equal(t, tc.reason, res.Reason)
		})
	}
}

func TestFirstFailureWins(t *testing.T) {
	// With everything missing, the sessionId check fires first.
	res := Validate(domain.Envelope{})
	require.False(t, res.OK)
	assert.Equal(t, "missing sessionId", res.Reason)
}

func TestZeroTimestampIsPresent(t *testing.T) {
	env := validEnvelope()
	zero := int64(0)
	env.Timestamp = &zero

	res := Validate(env)
	assert.True(t, res.OK)
}

func TestLargeCiphertextRoundTrips(t *testing.T) {
	env := validEnvelope()
	// Well beyond 64-bit range; must still parse as an arbitrary-precision
	// integer without loss.
	env.EncryptedData.HeartRate = "123456789012345678901234567890123456789012345678901234567890"

	res := Validate(env)
	assert.True(t, res.OK)
}
