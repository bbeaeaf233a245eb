// Package session keeps one set of view-models per browser session: the
// page shell, its staking panel factory and the wallet capability.
package session

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"mlm-landing/internal/landing"
	"mlm-landing/internal/observability"
	"mlm-landing/internal/solana"
	"mlm-landing/internal/staking"
	"mlm-landing/internal/wallet"
)

// Config holds the settings every new session is created with.
type Config struct {
	Landing landing.Config
	Staking staking.Config
	Wallet  wallet.Config
}

// DefaultConfig returns the default view-model settings.
func DefaultConfig() Config {
	return Config{
		Landing: landing.DefaultConfig(),
		Staking: staking.DefaultConfig(),
		Wallet:  wallet.DefaultConfig(),
	}
}

// Session is one visitor's state. Shell and Wallet are safe for concurrent use.
type Session struct {
	ID     string
	Shell  *landing.Shell
	Wallet *wallet.Session

	created time.Time
	cancel  context.CancelFunc
	done    chan struct{}

	mu       sync.Mutex
	lastSeen time.Time
}

// Created returns the creation time.
func (s *Session) Created() time.Time {
	return s.created
}

// LastSeen returns the time of the last request that used the session.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// stop cancels the shell timers, waits for them and releases the wallet.
func (s *Session) stop() {
	s.cancel()
	<-s.done
	s.Shell.Close()
	s.Wallet.Disconnect()
}

// Store is an in-memory session registry.
type Store struct {
	cfg    Config
	rpc    solana.RPCClient
	ws     solana.WSClient
	logger *log.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
}

// NewStore creates an empty registry. ws may be nil.
func NewStore(cfg Config, rpc solana.RPCClient, ws solana.WSClient, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Store{
		cfg:      cfg,
		rpc:      rpc,
		ws:       ws,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session with id and marks it as seen.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		sess.touch(st.now())
	}
	return sess, ok
}

// GetOrCreate returns the session with id, or a new one when id is unknown.
// The bool reports whether a session was created.
func (st *Store) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if sess, ok := st.Get(id); ok {
			return sess, false
		}
	}
	return st.Create(), true
}

// Create mounts a fresh shell and wallet and starts the shell timers.
func (st *Store) Create() *Session {
	now := st.now()
	w := wallet.NewSession(st.cfg.Wallet, st.rpc, st.ws, st.logger)
	stakingCfg := st.cfg.Staking
	logger := st.logger
	shell := landing.NewShell(st.cfg.Landing, func() *staking.Panel {
		return staking.NewPanel(stakingCfg, w, logger)
	}, st.now, nil)

	ctx, cancel := context.WithCancel(context.Background())
	sess := &Session{
		ID:       uuid.NewString(),
		Shell:    shell,
		Wallet:   w,
		created:  now,
		cancel:   cancel,
		done:     make(chan struct{}),
		lastSeen: now,
	}
	go func() {
		defer close(sess.done)
		shell.Run(ctx)
	}()

	st.mu.Lock()
	if st.closed {
		st.mu.Unlock()
		sess.stop()
		return sess
	}
	st.sessions[sess.ID] = sess
	st.mu.Unlock()

	observability.RecordSessionCreated()
	st.logger.Printf("Created session %s", sess.ID)
	return sess
}

// Remove stops and drops a session.
func (st *Store) Remove(id string) bool {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if !ok {
		return false
	}
	sess.stop()
	observability.RecordSessionsExpired(1)
	return true
}

// Sweep removes sessions idle for longer than ttl and returns how many.
func (st *Store) Sweep(ttl time.Duration) int {
	cutoff := st.now().Add(-ttl)

	var expired []*Session
	st.mu.Lock()
	for id, sess := range st.sessions {
		if sess.LastSeen().Before(cutoff) {
			expired = append(expired, sess)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, sess := range expired {
		sess.stop()
	}
	if len(expired) > 0 {
		observability.RecordSessionsExpired(len(expired))
		st.logger.Printf("Expired %d idle sessions", len(expired))
	}
	return len(expired)
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Close stops every session. Sessions created afterwards are stopped at once.
func (st *Store) Close() {
	st.mu.Lock()
	st.closed = true
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	for _, sess := range sessions {
		sess.stop()
	}
	if len(sessions) > 0 {
		observability.RecordSessionsExpired(len(sessions))
	}
}
