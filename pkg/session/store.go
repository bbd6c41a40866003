package session

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"
)

// Store abstracts session persistence. The in-memory store suits single-node
// deployments; the Redis store allows several nodes to share sessions.
type Store interface {
	// Get retrieves a session by ID. Returns nil, nil if not found.
	Get(ctx context.Context, sessionID string) (*State, error)
	// Save creates or updates a session.
	Save(ctx context.Context, state *State) error
	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error
	// Each invokes fn for every stored session. Iteration order is
	// unspecified; fn receives a copy it may retain.
	Each(ctx context.Context, fn func(*State) error) error
	// Close releases any background resources.
	Close() error
}

const defaultShardCount = 16

// shard is one lock-guarded slice of the session map.
type shard struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

// InMemoryStore implements Store with a sharded in-memory map so unrelated
// sessions never contend on one lock. Expired sessions are swept by a
// background goroutine.
type InMemoryStore struct {
	shards []*shard

	maxAge     time.Duration // session TTL since last activity
	cleanupTTL time.Duration // sweep interval

	stopCleanup chan struct{}
	cleanupOnce sync.Once
}

// StoreOption is a functional option for configuring InMemoryStore.
type StoreOption func(*InMemoryStore)

// WithMaxAge sets the idle TTL after which sessions are swept.
func WithMaxAge(d time.Duration) StoreOption {
	return func(s *InMemoryStore) {
		s.maxAge = d
	}
}

// WithCleanupInterval sets how often the sweep routine runs.
func WithCleanupInterval(d time.Duration) StoreOption {
	return func(s *InMemoryStore) {
		s.cleanupTTL = d
	}
}

// NewInMemoryStore creates a sharded in-memory session store and starts its
// cleanup goroutine.
func NewInMemoryStore(opts ...StoreOption) *InMemoryStore {
	s := &InMemoryStore{
		shards:      make([]*shard, defaultShardCount),
		maxAge:      1 * time.Hour,
		cleanupTTL:  5 * time.Minute,
		stopCleanup: make(chan struct{}),
	}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]*State)}
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.cleanupLoop()

	return s
}

func (s *InMemoryStore) shardFor(sessionID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Get retrieves a session by ID. Stale sessions are treated as not found;
// actual removal happens in the sweep.
func (s *InMemoryStore) Get(_ context.Context, sessionID string) (*State, error) {
	sh := s.shardFor(sessionID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	state, ok := sh.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	if time.Since(state.LastActivity) > s.maxAge {
		return nil, nil
	}
	return state.Clone(), nil
}

// Save creates or updates a session.
func (s *InMemoryStore) Save(_ context.Context, state *State) error {
	if state == nil {
		return fmt.Errorf("session state is nil")
	}
	if state.SessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	sh := s.shardFor(state.SessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.sessions[state.SessionID] = state.Clone()
	return nil
}

// Delete removes a session.
func (s *InMemoryStore) Delete(_ context.Context, sessionID string) error {
	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	delete(sh.sessions, sessionID)
	return nil
}

// Each visits every stored session, one shard at a time.
func (s *InMemoryStore) Each(_ context.Context, fn func(*State) error) error {
	for _, sh := range s.shards {
		sh.mu.RLock()
		states := make([]*State, 0, len(sh.sessions))
		for _, state := range sh.sessions {
			states = append(states, state.Clone())
		}
		sh.mu.RUnlock()

		for _, state := range states {
			if err := fn(state); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close stops the cleanup goroutine.
func (s *InMemoryStore) Close() error {
	s.cleanupOnce.Do(func() {
		close(s.stopCleanup)
	})
	return nil
}

func (s *InMemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCleanup:
			return
		}
	}
}

// sweep removes sessions idle past the TTL.
func (s *InMemoryStore) sweep() {
	now := time.Now()
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, state := range sh.sessions {
			if now.Sub(state.LastActivity) > s.maxAge {
				delete(sh.sessions, id)
			}
		}
		sh.mu.Unlock()
	}
}

// StoreStats contains session store statistics.
type StoreStats struct {
	SessionCount  int `json:"session_count"`
	TotalMessages int `json:"total_messages"`
	ScamsDetected int `json:"scams_detected"`
}

// Stats returns a point-in-time snapshot of store contents.
func (s *InMemoryStore) Stats() StoreStats {
	var stats StoreStats
	for _, sh := range s.shards {
		sh.mu.RLock()
		stats.SessionCount += len(sh.sessions)
		for _, state := range sh.sessions {
			stats.TotalMessages += state.MessageCount
			if state.ScamDetected {
				stats.ScamsDetected++
			}
		}
		sh.mu.RUnlock()
	}
	return stats
}

var _ Store = (*InMemoryStore)(nil)
