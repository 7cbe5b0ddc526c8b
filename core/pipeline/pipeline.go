// Package pipeline orchestrates one envelope through validate -> hash ->
// append -> recompute -> commit. The whole unit runs inside a single store
// upsert, so per-session atomicity comes from the store's keyed locking.
package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/abeer-rozba/vr-therapy-server/internal/aggregate"
	"github.com/abeer-rozba/vr-therapy-server/internal/crypto"
	"github.com/abeer-rozba/vr-therapy-server/internal/domain"
	"github.com/abeer-rozba/vr-therapy-server/internal/envelope"
	"github.com/abeer-rozba/vr-therapy-server/internal/integrity"
	"github.com/abeer-rozba/vr-therapy-server/internal/metrics"
)

type Pipeline struct {
	store domain.SessionStore
}

func New(store domain.SessionStore) *Pipeline {
	return &Pipeline{store: store}
}

// Submit ingests one envelope. A validation failure rejects with the reason
// and no store mutation. A store failure returns a non-nil error alongside a
// generic result; nothing is committed in that case. A crypto failure during
// recompute keeps the previous statistics but still commits the append.
func (p *Pipeline) Submit(ctx context.Context, env domain.Envelope) (domain.SubmitResult, error) {
	start := time.Now()
	defer func() {
		metrics.IngestDuration.Observe(time.Since(start).Seconds())
	}()

	if res := envelope.Validate(env); !res.OK {
		metrics.SamplesRejected.WithLabelValues(res.Reason).Inc()
		return domain.SubmitResult{Accepted: false, Error: res.Reason}, nil
	}

	sample := domain.EncryptedSample{
		Timestamp:     *env.Timestamp,
		EncryptedData: *env.EncryptedData,
		IntegrityHash: integrity.Hash(*env.EncryptedData),
	}

	var sampleCount int
	_, err := p.store.Upsert(ctx, env.SessionID, func(rec *domain.SessionRecord) error {
		if len(rec.Samples) == 0 {
			rec.StartTime = *env.Timestamp
			rec.PublicKey = *env.PublicKey
		}
		rec.Samples = append(rec.Samples, sample)
		sampleCount = len(rec.Samples)

		p.recompute(rec)
		return nil
	})
	if err != nil {
		metrics.StoreErrors.Inc()
		return domain.SubmitResult{Accepted: false, Error: "internal error"}, err
	}

	metrics.SamplesAccepted.Inc()
	return domain.SubmitResult{Accepted: true, SampleCount: sampleCount}, nil
}

// recompute refreshes the session's encrypted statistics from the verified
// subset of its history. Below two verified samples, or on any crypto
// failure, the previously computed statistics are left untouched.
func (p *Pipeline) recompute(rec *domain.SessionRecord) {
	verified := integrity.Filter(rec.Samples)
	if dropped := len(rec.Samples) - len(verified); dropped > 0 {
		metrics.IntegrityFailures.Add(float64(dropped))
		log.Printf("session %s: %d stored samples failed integrity verification, excluded from aggregation", rec.SessionID, dropped)
	}
	if len(verified) < 2 {
		return
	}

	pk, err := crypto.ParsePublicKey(rec.PublicKey)
	if err != nil {
		log.Printf("session %s: aggregation skipped: %v", rec.SessionID, err)
		return
	}
	stats, err := aggregate.Recompute(pk, verified, time.Now().UnixMilli())
	if err != nil {
		log.Printf("session %s: aggregation failed: %v", rec.SessionID, err)
		return
	}
	rec.Statistics = stats
	metrics.AggregateRecomputes.Inc()
}

// FetchSession returns the full session record, or ErrSessionNotFound for an
// id that has never been observed.
func (p *Pipeline) FetchSession(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	rec, err := p.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrSessionNotFound
	}
	return rec, nil
}

func (p *Pipeline) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	return p.store.ListSummaries(ctx)
}
