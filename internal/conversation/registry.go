package conversation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HistoryLoader restores the recent prompts of a session seen before.
type HistoryLoader interface {
	Load(ctx context.Context, sessionID string) ([]string, error)
}

type registryEntry struct {
	session  *Session
	lastSeen time.Time
}

// Registry hands out one Session per session id. Sessions idle for longer
// than the TTL are dropped; their history survives in the HistoryLoader.
type Registry struct {
	mu         sync.Mutex
	sessions   map[string]*registryEntry
	loader     HistoryLoader
	maxHistory int
	idleTTL    time.Duration
	lastSweep  time.Time
	now        func() time.Time
	logger     *zap.Logger
}

func NewRegistry(loader HistoryLoader, maxHistory int, idleTTL time.Duration, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sessions:   make(map[string]*registryEntry),
		loader:     loader,
		maxHistory: maxHistory,
		idleTTL:    idleTTL,
		now:        time.Now,
		logger:     logger,
	}
}

// Get returns the session for id, creating it on first sight.
func (r *Registry) Get(ctx context.Context, id string) *Session {
	r.mu.Lock()
	now := r.now()
	r.sweepLocked(now)
	if e, ok := r.sessions[id]; ok {
		e.lastSeen = now
		r.mu.Unlock()
		return e.session
	}
	r.mu.Unlock()

	var history []string
	if r.loader != nil {
		h, err := r.loader.Load(ctx, id)
		if err != nil {
			r.logger.Warn("failed to load history", zap.String("session", id), zap.Error(err))
		}
		history = h
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another request may have created it while history was loading.
	if e, ok := r.sessions[id]; ok {
		e.lastSeen = now
		return e.session
	}
	s := NewSession(id, history, r.maxHistory)
	r.sessions[id] = &registryEntry{session: s, lastSeen: now}
	return s
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) sweepLocked(now time.Time) {
	if r.idleTTL <= 0 || now.Sub(r.lastSweep) < time.Minute {
		return
	}
	r.lastSweep = now
	for id, e := range r.sessions {
		if now.Sub(e.lastSeen) > r.idleTTL {
			delete(r.sessions, id)
		}
	}
}
