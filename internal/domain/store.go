package domain

import "context"

// Mutator receives the session record to update: the existing record for a
// known session, or a freshly initialized one for a previously unseen id.
// Returning an error abandons the update without committing.
type Mutator func(rec *SessionRecord) error

// SessionStore owns the sessionId -> SessionRecord mapping. The
// read-modify-write cycle of Upsert is atomic per session id: concurrent
// writers to the same session are linearized and never lose an update.
// Get returns (nil, nil) for an unknown id; absence is not an error at this
// layer, the caller decides.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*SessionRecord, error)
	Upsert(ctx context.Context, sessionID string, mutate Mutator) (*SessionRecord, error)
	ListSummaries(ctx context.Context) ([]SessionSummary, error)
	Close() error
}

// Resource is the durable backing document behind a SessionStore: one
// resource for the whole service, read in full and replaced in full on
// every commit. A reader must never observe a half-written document.
type Resource interface {
	ReadAll(ctx context.Context) (map[string]*SessionRecord, error)
	ReplaceAll(ctx context.Context, sessions map[string]*SessionRecord) error
	Close() error
}
