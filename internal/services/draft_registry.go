package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulexconde/surveyengine/pkg/fault"
)

// DraftRegistry keeps the open authoring sessions of the process. Drafts
// left untouched for longer than the idle TTL are dropped; their last
// autosave stays in the scratch store for recovery.
type DraftRegistry struct {
	mu     sync.Mutex
	base   DraftConfig
	drafts map[string]*DraftManager
	owners map[string]string
	seen   map[string]time.Time
	now    func() time.Time
}

// NewDraftRegistry returns a registry whose drafts share the stores in base.
func NewDraftRegistry(base DraftConfig) *DraftRegistry {
	return &DraftRegistry{
		base:   base,
		drafts: map[string]*DraftManager{},
		owners: map[string]string{},
		seen:   map[string]time.Time{},
		now:    time.Now,
	}
}

// Open starts a new draft in create mode. An empty sessionID gets a fresh
// one; reopening a known session of the same owner returns its draft.
func (r *DraftRegistry) Open(ownerID, sessionID string) (string, *DraftManager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictIdle()

	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if d, ok := r.drafts[sessionID]; ok {
		if r.owners[sessionID] != ownerID {
			return "", nil, fault.ErrNotFound
		}
		r.seen[sessionID] = r.now()
		return sessionID, d, nil
	}

	d := NewDraftManager(r.config(ownerID, sessionID))
	r.register(ownerID, sessionID, d)
	return sessionID, d, nil
}

// OpenEdit starts a draft over a persisted survey owned by ownerID.
func (r *DraftRegistry) OpenEdit(ctx context.Context, ownerID, surveyID string) (string, *DraftManager, error) {
	sessionID := uuid.NewString()

	d, err := OpenDraftForEdit(ctx, r.config(ownerID, sessionID), surveyID)
	if err != nil {
		return "", nil, err
	}

	r.mu.Lock()
	r.evictIdle()
	r.register(ownerID, sessionID, d)
	r.mu.Unlock()
	return sessionID, d, nil
}

// Get returns the draft of a session owned by ownerID.
func (r *DraftRegistry) Get(ownerID, sessionID string) (*DraftManager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictIdle()

	d, ok := r.drafts[sessionID]
	if !ok || r.owners[sessionID] != ownerID {
		return nil, fault.ErrNotFound
	}
	r.seen[sessionID] = r.now()
	return d, nil
}

func (r *DraftRegistry) Close(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forget(sessionID)
}

// Len reports how many drafts are held.
func (r *DraftRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.drafts)
}

func (r *DraftRegistry) register(ownerID, sessionID string, d *DraftManager) {
	r.drafts[sessionID] = d
	r.owners[sessionID] = ownerID
	r.seen[sessionID] = r.now()
}

func (r *DraftRegistry) forget(sessionID string) {
	delete(r.drafts, sessionID)
	delete(r.owners, sessionID)
	delete(r.seen, sessionID)
}

// evictIdle must be called with mu held.
func (r *DraftRegistry) evictIdle() {
	if r.base.IdleTTL <= 0 {
		return
	}
	cutoff := r.now().Add(-r.base.IdleTTL)
	for id, last := range r.seen {
		if last.Before(cutoff) {
			r.forget(id)
			slog.Info("idle draft evicted", slog.String("session_id", id))
		}
	}
}

func (r *DraftRegistry) config(ownerID, sessionID string) DraftConfig {
	cfg := r.base
	cfg.OwnerID = ownerID
	cfg.SessionID = sessionID
	return cfg
}
