package flow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pravoline/intakebot/internal/models"
)

// Default session store configuration.
const (
	// DefaultSessionTTL is how long an untouched session is kept before the
	// sweeper evicts it. Evicting drops the assistant thread handle, so the
	// next message from that user starts a fresh conversation context.
	DefaultSessionTTL = 24 * time.Hour
	// DefaultSweepInterval is how often the sweeper scans for idle sessions.
	DefaultSweepInterval = 30 * time.Minute
)

// Session is the transient per-user state: the structured-flow position, the
// booking record under construction, and the assistant thread handle.
//
// Sessions are not internally locked. Concurrent messages from one user are
// not expected; last write wins if they happen.
type Session struct {
	Key      string
	State    models.StateType
	Draft    models.BookingRecord
	ThreadID string
	LastSeen time.Time
}

// SessionStore keeps sessions in memory, keyed by user identity, with
// last-access tracking and periodic eviction of idle entries. State is lost
// on process restart by design.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewSessionStore creates a session store with the given idle TTL.
// A non-positive TTL falls back to DefaultSessionTTL.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	slog.Debug("NewSessionStore: creating session store", "ttl", ttl)
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Get returns the session for the given key, creating it on first contact,
// and marks it as seen.
func (s *SessionStore) Get(key string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		sess = &Session{Key: key}
		s.sessions[key] = sess
		slog.Debug("SessionStore.Get: session created", "key", key)
	}
	sess.LastSeen = time.Now()
	return sess
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle longer than the TTL and returns how many were
// removed.
func (s *SessionStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, sess := range s.sessions {
		if now.Sub(sess.LastSeen) > s.ttl {
			delete(s.sessions, key)
			evicted++
		}
	}
	if evicted > 0 {
		slog.Info("SessionStore.Sweep: idle sessions evicted", "evicted", evicted, "remaining", len(s.sessions))
	}
	return evicted
}

// StartSweeper runs the eviction sweep on a fixed interval until the context
// is cancelled.
func (s *SessionStore) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		slog.Debug("SessionStore.StartSweeper: sweeper started", "interval", interval)
		for {
			select {
			case <-ctx.Done():
				slog.Debug("SessionStore.StartSweeper: sweeper stopped")
				return
			case now := <-ticker.C:
				s.Sweep(now)
			}
		}
	}()
}
