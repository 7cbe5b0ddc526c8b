package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abeer-rozba/vr-therapy-server/internal/domain"
)

func newFileStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.json")
	return New(NewFileResource(path)), path
}

func sampleAt(ts int64) domain.EncryptedSample {
	return domain.EncryptedSample{
		Timestamp: ts,
		EncryptedData: domain.EncryptedPayload{
			Alpha:     fmt.Sprintf("%d", ts),
			Beta:      "2",
			Gamma:     "3",
			HeartRate: "4",
		},
		IntegrityHash: "unchecked-by-store",
	}
}

func appendSample(t *testing.T, s *Store, sessionID string, ts int64) *domain.SessionRecord {
	t.Helper()
	rec, err := s.Upsert(context.Background(), sessionID, func(rec *domain.SessionRecord) error {
		if len(rec.Samples) == 0 {
			rec.StartTime = ts
		}
		rec.Samples = append(rec.Samples, sampleAt(ts))
		return nil
	})
	require.NoError(t, err)
	return rec
}

func TestGetUnknownSessionIsAbsentNotError(t *testing.T) {
	s, _ := newFileStore(t)

	rec, err := s.Get(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestAppendRoundTrip(t *testing.T) {
	s, _ := newFileStore(t)

	const n = 5
	for i := int64(0); i < n; i++ {
		appendSample(t, s, "s1", 1000+i)
	}

	rec, err := s.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Len(t, rec.Samples, n)

	assert.Equal(t, int64(1000), rec.StartTime)
	for i := int64(0); i < n; i++ {
		assert.Equal(t, 1000+i, rec.Samples[i].Timestamp)
		assert.Equal(t, fmt.Sprintf("%d", 1000+i), rec.Samples[i].EncryptedData.Alpha)
	}
}

func TestConcurrentUpsertsSameSessionLoseNothing(t *testing.T) {
	s, _ := newFileStore(t)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			appendSample(t, s, "s1", int64(i))
		}(i)
	}
	wg.Wait()

	rec, err := s.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Len(t, rec.Samples, writers)
}

func TestConcurrentUpsertsDifferentSessions(t *testing.T) {
	s, _ := newFileStore(t)

	const sessions = 10
	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			appendSample(t, s, fmt.Sprintf("s%d", i), int64(i))
		}(i)
	}
	wg.Wait()

	summaries, err := s.ListSummaries(context.Background())
	require.NoError(t, err)
	assert.Len(t, summaries, sessions)
}

func TestListSummariesDeterministicOrder(t *testing.T) {
	s, _ := newFileStore(t)

	appendSample(t, s, "late", 3000)
	appendSample(t, s, "early", 1000)
	appendSample(t, s, "middle", 2000)
	appendSample(t, s, "middle", 2001)

	summaries, err := s.ListSummaries(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	assert.Equal(t, "early", summaries[0].SessionID)
	assert.Equal(t, "middle", summaries[1].SessionID)
	assert.Equal(t, 2, summaries[1].SampleCount)
	assert.Equal(t, "late", summaries[2].SessionID)
}

func TestMutatorErrorIsNotCommitted(t *testing.T) {
	s, _ := newFileStore(t)
	appendSample(t, s, "s1", 1000)

	boom := errors.New("mutator failure")
	_, err := s.Upsert(context.Background(), "s1", func(rec *domain.SessionRecord) error {
		rec.Samples = append(rec.Samples, sampleAt(2000))
		return boom
	})
	require.ErrorIs(t, err, boom)

	rec, err := s.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, rec.Samples, 1)
}

func TestGetReturnsACopy(t *testing.T) {
	s, _ := newFileStore(t)
	appendSample(t, s, "s1", 1000)

	rec, err := s.Get(context.Background(), "s1")
	require.NoError(t, err)
	rec.Samples[0].EncryptedData.Alpha = "mutated"

	fresh, err := s.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "1000", fresh.Samples[0].EncryptedData.Alpha)
}

func TestPersistedLayout(t *testing.T) {
	s, path := newFileStore(t)
	appendSample(t, s, "s1", 1000)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		Sessions map[string]json.RawMessage `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc.Sessions, "s1")
}

func TestReplaceAllRenameFailureLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.json")

	// A directory at the target path makes the rename itself fail, after the
	// temp file was written successfully.
	require.NoError(t, os.Mkdir(path, 0o755))

	res := NewFileResource(path)
	err := res.ReplaceAll(context.Background(), map[string]*domain.SessionRecord{
		"s1": {SessionID: "s1", StartTime: 1000},
	})
	require.Error(t, err)

	leftovers, err := filepath.Glob(filepath.Join(dir, ".sessions-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "failed commit must not leave temp files behind")
}

// failingResource lets tests inject backing-resource failures.
type failingResource struct {
	sessions   map[string]*domain.SessionRecord
	readErr    error
	replaceErr error
}

func (f *failingResource) ReadAll(ctx context.Context) (map[string]*domain.SessionRecord, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := make(map[string]*domain.SessionRecord, len(f.sessions))
	for k, v := range f.sessions {
		out[k] = v
	}
	return out, nil
}

func (f *failingResource) ReplaceAll(ctx context.Context, sessions map[string]*domain.SessionRecord) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.sessions = sessions
	return nil
}

func (f *failingResource) Close() error { return nil }

func TestReadFailureIsStoreError(t *testing.T) {
	s := New(&failingResource{readErr: errors.New("disk gone")})

	_, err := s.Get(context.Background(), "s1")
	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)

	_, err = s.Upsert(context.Background(), "s1", func(rec *domain.SessionRecord) error { return nil })
	require.ErrorAs(t, err, &storeErr)
}

func TestWriteFailureLeavesPriorState(t *testing.T) {
	res := &failingResource{sessions: map[string]*domain.SessionRecord{}}
	s := New(res)

	_, err := s.Upsert(context.Background(), "s1", func(rec *domain.SessionRecord) error {
		rec.StartTime = 1000
		rec.Samples = append(rec.Samples, sampleAt(1000))
		return nil
	})
	require.NoError(t, err)

	res.replaceErr = errors.New("disk full")
	_, err = s.Upsert(context.Background(), "s1", func(rec *domain.SessionRecord) error {
		rec.Samples = append(rec.Samples, sampleAt(2000))
		return nil
	})
	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)

	res.replaceErr = nil
	rec, err := s.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, rec.Samples, 1, "failed commit must not be observable")
}

func TestFileResourceSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")

	first := New(NewFileResource(path))
	_, err := first.Upsert(context.Background(), "s1", func(rec *domain.SessionRecord) error {
		rec.StartTime = 1000
		rec.Samples = append(rec.Samples, sampleAt(1000))
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := New(NewFileResource(path))
	rec, err := second.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(1000), rec.StartTime)
}
