package cart

import (
	"context"
	"sync"
	"time"

	"github.com/MohitNegi1997/MoltenMotion/internal/notify"
	"github.com/MohitNegi1997/MoltenMotion/internal/storage"
	"go.uber.org/zap"
)

type session struct {
	store    *Store
	bus      *notify.Bus
	lastUsed time.Time
}

// Sessions owns one Store per browsing session. Each session gets its own
// storage slot and its own change bus. The cart itself lives in storage, so
// an idle session can be dropped and rebuilt later without losing items.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*session
	factory  storage.Factory
	log      *zap.Logger
	opts     []Option
	now      func() time.Time
}

func NewSessions(factory storage.Factory, log *zap.Logger, opts ...Option) *Sessions {
	return &Sessions{
		sessions: make(map[string]*session),
		factory:  factory,
		log:      log,
		opts:     opts,
		now:      time.Now,
	}
}

// Get returns the Store of sessionID, creating and registering it on first
// use.
func (s *Sessions) Get(sessionID string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		sess.lastUsed = s.now()
		return sess.store
	}

	bus := notify.NewBus()
	sess := &session{
		store:    s.newStore(sessionID, bus),
		bus:      bus,
		lastUsed: s.now(),
	}
	s.sessions[sessionID] = sess
	return sess.store
}

// Peek returns the registered Store of sessionID or, for a session that is
// not registered, a throwaway Store over the same slot. It never grows the
// registry, so it is the one to use for reads.
func (s *Sessions) Peek(sessionID string) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		sess.lastUsed = s.now()
		return sess.store
	}
	return s.newStore(sessionID, notify.NewBus())
}

// Evict drops sessions unused for longer than idle that have no live
// subscribers and reports how many went.
func (s *Sessions) Evict(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-idle)
	evicted := 0
	for id, sess := range s.sessions {
		if sess.lastUsed.After(cutoff) || sess.bus.Len() > 0 {
			continue
		}
		delete(s.sessions, id)
		evicted++
	}
	return evicted
}

// Run evicts idle sessions every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Evict(idle); n > 0 {
				s.log.Debug("evicted idle cart sessions", zap.Int("evicted", n), zap.Int("live", s.Len()))
			}
		}
	}
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Sessions) newStore(sessionID string, bus *notify.Bus) *Store {
	opts := append([]Option{WithSession(sessionID)}, s.opts...)
	return New(s.factory(storage.SessionKey(sessionID)), bus, s.log, opts...)
}
