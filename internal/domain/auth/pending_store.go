package auth

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
)

// PendingAuth holds runtime data of a sign-in between code request and resolution
type PendingAuth struct {
	Account   string
	Conn      domain.Connection
	CodeHash  string
	Stage     domain.AuthState
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired checks whether the challenge is past its TTL
func (p *PendingAuth) IsExpired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// PendingStore keeps at most one pending sign-in per account in memory
type PendingStore struct {
	mu              sync.Mutex
	pending         map[string]*PendingAuth
	ttl             time.Duration
	cleanupInterval time.Duration
	onExpire        func(account string)
	now             func() time.Time
	stopCleanup     chan struct{}
	stopOnce        sync.Once
	logger          zerolog.Logger
}

// NewPendingStore creates a new pending sign-in store
func NewPendingStore(ttl, cleanupInterval time.Duration, logger zerolog.Logger) *PendingStore {
	return &PendingStore{
		pending:         make(map[string]*PendingAuth),
		ttl:             ttl,
		cleanupInterval: cleanupInterval,
		now:             time.Now,
		stopCleanup:     make(chan struct{}),
		logger:          logger.With().Str("component", "pending_auth_store").Logger(),
	}
}

// Put stores a pending sign-in and returns the one it replaced, if any
func (s *PendingStore) Put(p *PendingAuth) *PendingAuth {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p.CreatedAt = now
	p.ExpiresAt = now.Add(s.ttl)

	previous := s.pending[p.Account]
	s.pending[p.Account] = p
	s.logger.Debug().Str("account", p.Account).Msg("pending sign-in stored")
	return previous
}

// Get returns the pending sign-in of an account
func (s *PendingStore) Get(account string) (*PendingAuth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[account]
	if !ok {
		return nil, ErrNoPendingAuth
	}
	if p.IsExpired(s.now()) {
		return nil, ErrPendingExpired
	}
	return p, nil
}

// SetStage moves a pending sign-in to the next stage
func (s *PendingStore) SetStage(account string, stage domain.AuthState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pending[account]; ok {
		p.Stage = stage
	}
}

// Take removes and returns the pending sign-in of an account
func (s *PendingStore) Take(account string) *PendingAuth {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.pending[account]
	delete(s.pending, account)
	return p
}

// TakeExpired removes and returns the pending sign-in only if it has expired
func (s *PendingStore) TakeExpired(account string) *PendingAuth {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[account]
	if !ok || !p.IsExpired(s.now()) {
		return nil
	}
	delete(s.pending, account)
	return p
}

// TakeAll removes and returns every pending sign-in
func (s *PendingStore) TakeAll() []*PendingAuth {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*PendingAuth, 0, len(s.pending))
	for _, p := range s.pending {
		all = append(all, p)
	}
	s.pending = make(map[string]*PendingAuth)
	return all
}

// Expired returns accounts whose pending sign-in is past its TTL
func (s *PendingStore) Expired() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var accounts []string
	for account, p := range s.pending {
		if p.IsExpired(now) {
			accounts = append(accounts, account)
		}
	}
	return accounts
}

// Count returns the current number of pending sign-ins
func (s *PendingStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Start starts the cleanup goroutine. onExpire is called for every expired account.
func (s *PendingStore) Start(onExpire func(account string)) {
	s.onExpire = onExpire
	go s.runCleanup()
}

// Stop stops the cleanup goroutine
func (s *PendingStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCleanup) })
}

// Cleanup reports expired sign-ins and returns how many were found
func (s *PendingStore) Cleanup() int {
	expired := s.Expired()
	for _, account := range expired {
		if s.onExpire != nil {
			s.onExpire(account)
		}
	}

	if len(expired) > 0 {
		s.logger.Info().Int("expired", len(expired)).Msg("cleaned up expired sign-ins")
	}
	return len(expired)
}

// runCleanup periodically expires abandoned sign-ins
func (s *PendingStore) runCleanup() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	s.logger.Info().
		Dur("interval", s.cleanupInterval).
		Dur("ttl", s.ttl).
		Msg("pending sign-in cleanup started")

	for {
		select {
		case <-s.stopCleanup:
			s.logger.Info().Msg("pending sign-in cleanup stopped")
			return
		case <-ticker.C:
			s.Cleanup()
		}
	}
}
