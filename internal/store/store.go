// Package store implements the session store over a whole-document durable
// resource: per-session keyed locks give the logical atomicity contract,
// while the read-all/replace-all cycle against the backing resource is
// serialized behind a single I/O mutex (a whole-document replace cannot
// tolerate interleaved commits, even for unrelated sessions).
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/abeer-rozba/vr-therapy-server/internal/domain"
)

type Store struct {
	res domain.Resource

	mu    sync.Mutex // guards locks
	locks map[string]*sync.Mutex

	io sync.Mutex // serializes the backing read-modify-write cycle
}

func New(res domain.Resource) *Store {
	return &Store{
		res:   res,
		locks: make(map[string]*sync.Mutex),
	}
}

// Get returns a deep copy of the session record, or (nil, nil) when the id
// has never been observed.
func (s *Store) Get(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	s.io.Lock()
	defer s.io.Unlock()

	sessions, err := s.res.ReadAll(ctx)
	if err != nil {
		return nil, &domain.StoreError{Op: "read", Err: err}
	}
	rec, ok := sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

// Upsert runs the mutator against the current record (or a fresh one for an
// unseen id) and commits the whole document. The mutator operates on a copy:
// if the commit fails, the resource keeps its prior committed state and the
// caller must treat the operation as not committed.
func (s *Store) Upsert(ctx context.Context, sessionID string, mutate domain.Mutator) (*domain.SessionRecord, error) {
	lock := s.keyLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	s.io.Lock()
	defer s.io.Unlock()

	sessions, err := s.res.ReadAll(ctx)
	if err != nil {
		return nil, &domain.StoreError{Op: "read", Err: err}
	}

	rec, ok := sessions[sessionID]
	if ok {
		rec = cloneRecord(rec)
	} else {
		rec = &domain.SessionRecord{SessionID: sessionID}
	}

	if err := mutate(rec); err != nil {
		return nil, err
	}

	sessions[sessionID] = rec
	if err := s.res.ReplaceAll(ctx, sessions); err != nil {
		return nil, &domain.StoreError{Op: "write", Err: err}
	}
	return cloneRecord(rec), nil
}

// ListSummaries returns one summary per session, sorted by start time and
// then session id so the order is deterministic.
func (s *Store) ListSummaries(ctx context.Context) ([]domain.SessionSummary, error) {
	s.io.Lock()
	defer s.io.Unlock()

	sessions, err := s.res.ReadAll(ctx)
	if err != nil {
		return nil, &domain.StoreError{Op: "read", Err: err}
	}

	summaries := make([]domain.SessionSummary, 0, len(sessions))
	for id, rec := range sessions {
		summaries = append(summaries, domain.SessionSummary{
			SessionID:   id,
			StartTime:   rec.StartTime,
			SampleCount: len(rec.Samples),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].StartTime != summaries[j].StartTime {
			return summaries[i].StartTime < summaries[j].StartTime
		}
		return summaries[i].SessionID < summaries[j].SessionID
	})
	return summaries, nil
}

func (s *Store) Close() error {
	return s.res.Close()
}

func (s *Store) keyLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

func cloneRecord(rec *domain.SessionRecord) *domain.SessionRecord {
	out := *rec
	out.Samples = append([]domain.EncryptedSample(nil), rec.Samples...)
	if rec.Statistics != nil {
		stats := *rec.Statistics
		out.Statistics = &stats
	}
	return &out
}
