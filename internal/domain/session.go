package domain

// PublicKey is Paillier-style public key material exactly as supplied on the
// wire: modulus n and generator g as decimal strings. It is never validated
// beyond "parses as a positive integer" and no private material ever exists
// alongside it.
type PublicKey struct {
	N string `json:"n"`
	G string `json:"g"`
}

// EncryptedPayload holds the four ciphertext fields of one sample, each an
// arbitrary-precision non-negative integer in decimal form. Field order is
// load-bearing: the integrity digest is computed over the canonical JSON
// serialization, and JSON marshalling follows declaration order.
type EncryptedPayload struct {
	Alpha     string `json:"alpha"`
	Beta      string `json:"beta"`
	Gamma     string `json:"gamma"`
	HeartRate string `json:"heartRate"`
}

// EncryptedSample is one stored sample. Samples are immutable once stored;
// session history is append-only.
type EncryptedSample struct {
	Timestamp     int64            `json:"timestamp"`
	EncryptedData EncryptedPayload `json:"encryptedData"`
	IntegrityHash string           `json:"integrityHash"`
}

// EncryptedAverage carries an encrypted sum and the plaintext count of
// ciphertexts folded into it. The quotient is never computed here: the
// client must decrypt the sum and divide by the count.
type EncryptedAverage struct {
	Sum   string `json:"sum"`
	Count int    `json:"count"`
}

type Statistics struct {
	SampleCount           int              `json:"sampleCount"`
	EncryptedAvgHeartRate EncryptedAverage `json:"encryptedAvgHeartRate"`
	LastUpdated           int64            `json:"lastUpdated"`
}

// SessionRecord is the authoritative state of one session. StartTime and
// PublicKey are set from the first sample and never change afterwards.
// Statistics stays nil until at least two verified samples exist.
type SessionRecord struct {
	SessionID  string            `json:"sessionId"`
	StartTime  int64             `json:"startTime"`
	PublicKey  PublicKey         `json:"publicKey"`
	Samples    []EncryptedSample `json:"samples"`
	Statistics *Statistics       `json:"statistics,omitempty"`
}

type SessionSummary struct {
	SessionID   string `json:"sessionId"`
	StartTime   int64  `json:"startTime"`
	SampleCount int    `json:"sampleCount"`
}

// Envelope is the untrusted wire form of one sample submission. Pointer
// fields distinguish absent from zero so the validator can report a missing
// field rather than silently accepting a default.
type Envelope struct {
	SessionID     string            `json:"sessionId"`
	Timestamp     *int64            `json:"timestamp"`
	PublicKey     *PublicKey        `json:"publicKey"`
	EncryptedData *EncryptedPayload `json:"encryptedData"`
}

// BulkEnvelope is the message body published to the queue by the bulk
// ingestion endpoint.
type BulkEnvelope struct {
	BatchID   string     `json:"batchId,omitempty"`
	Envelopes []Envelope `json:"envelopes"`
}

type SubmitResult struct {
	Accepted    bool   `json:"accepted"`
	SampleCount int    `json:"sampleCount,omitempty"`
	Error       string `json:"error,omitempty"`
}
