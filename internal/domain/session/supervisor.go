package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
)

// Policy controls reconnection of failed workers
type Policy struct {
	ReconnectBase        time.Duration
	ReconnectMax         time.Duration
	MaxReconnectAttempts int
	// StableAfter is how long a worker must stay live for its attempt counter to reset
	StableAfter          time.Duration
	MaxConcurrentConnect int
}

// Backoff returns the delay before the given reconnect attempt, starting at 1
func (p Policy) Backoff(attempt int) time.Duration {
	delay := p.ReconnectBase
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.ReconnectMax {
			return p.ReconnectMax
		}
	}
	if delay > p.ReconnectMax {
		return p.ReconnectMax
	}
	return delay
}

// Status describes the worker of one account
type Status struct {
	State     State
	LiveSince time.Time
	Attempts  int
	// Failure is the error that ended supervision, nil while the worker is running
	Failure error
}

type handle struct {
	mu       sync.Mutex
	worker   *Worker
	attempts int
	failure  error

	cancel context.CancelFunc
	done   chan struct{}
}

func (h *handle) status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := Status{State: StateStopped, Attempts: h.attempts, Failure: h.failure}
	if h.worker != nil {
		st.State = h.worker.State()
		st.LiveSince = h.worker.LiveSince()
	}
	if h.failure != nil {
		st.State = StateStopped
	}
	return st
}

// Supervisor owns the workers of all authorized accounts and restarts them after transport failures
type Supervisor struct {
	platform domain.Platform
	deps     Deps
	policy   Policy
	gate     chan struct{}
	logger   zerolog.Logger

	mu      sync.Mutex
	workers map[string]*handle

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSupervisor creates a supervisor. Workers live until Stop, StopAll or a terminal failure.
func NewSupervisor(platform domain.Platform, deps Deps, policy Policy) *Supervisor {
	ctx, cancel := context.WithCancel(context.Background())

	var gate chan struct{}
	if policy.MaxConcurrentConnect > 0 {
		gate = make(chan struct{}, policy.MaxConcurrentConnect)
	}

	return &Supervisor{
		platform: platform,
		deps:     deps,
		policy:   policy,
		gate:     gate,
		logger:   deps.Logger.With().Str("component", "session_supervisor").Logger(),
		workers:  make(map[string]*handle),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs a worker for the account, replacing any running one.
// conn may be an already authorized connection; when nil a new one is opened.
func (s *Supervisor) Start(ctx context.Context, name string, conn domain.Connection) error {
	if s.ctx.Err() != nil {
		return errors.New("supervisor is stopped")
	}
	if err := s.Stop(ctx, name); err != nil {
		return err
	}

	workerCtx, cancel := context.WithCancel(s.ctx)
	h := &handle{cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	s.workers[name] = h
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.supervise(workerCtx, name, conn, h)
	}()

	s.logger.Info().Str("account", name).Msg("worker started")
	return nil
}

// Stop stops the account's worker and waits for its connection teardown.
// The worker stays registered until it has exited, so a timed out Stop can be retried.
func (s *Supervisor) Stop(ctx context.Context, name string) error {
	s.mu.Lock()
	h, ok := s.workers[name]
	s.mu.Unlock()

	if !ok {
		return nil
	}

	h.cancel()
	select {
	case <-h.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	if s.workers[name] == h {
		delete(s.workers, name)
	}
	s.mu.Unlock()

	s.refreshMetrics()
	s.logger.Info().Str("account", name).Msg("worker stopped")
	return nil
}

// StartAll starts workers for every authorized account and returns how many were started
func (s *Supervisor) StartAll(ctx context.Context) int {
	started := 0
	for _, acc := range s.deps.Registry.Accounts() {
		if acc.AuthState != domain.AuthAuthorized {
			continue
		}
		if err := s.Start(ctx, acc.Name, nil); err != nil {
			s.logger.Error().Err(err).Str("account", acc.Name).Msg("failed to start worker")
			continue
		}
		started++
	}
	return started
}

// StopAll stops every worker and waits for them to exit
func (s *Supervisor) StopAll(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	count := len(s.workers)
	s.workers = make(map[string]*handle)
	s.mu.Unlock()

	s.logger.Info().Int("workers", count).Msg("all workers stopped")
	return nil
}

// Status returns the worker status of an account
func (s *Supervisor) Status(name string) (Status, bool) {
	s.mu.Lock()
	h, ok := s.workers[name]
	s.mu.Unlock()

	if !ok {
		return Status{State: StateStopped}, false
	}
	return h.status(), true
}

// IsLive reports whether the account's worker is processing events
func (s *Supervisor) IsLive(name string) bool {
	st, ok := s.Status(name)
	return ok && st.State == StateLive
}

// LiveCount returns the number of live workers
func (s *Supervisor) LiveCount() int {
	s.mu.Lock()
	handles := make([]*handle, 0, len(s.workers))
	for _, h := range s.workers {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	live := 0
	for _, h := range handles {
		if h.status().State == StateLive {
			live++
		}
	}
	return live
}

// Failed returns names of accounts whose supervision ended with an error
func (s *Supervisor) Failed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var names []string
	for name, h := range s.workers {
		if h.status().Failure != nil {
			names = append(names, name)
		}
	}
	return names
}

func (s *Supervisor) supervise(ctx context.Context, name string, conn domain.Connection, h *handle) {
	defer close(h.done)

	log := s.logger.With().Str("account", name).Logger()
	attempts := 0

	for {
		if conn == nil {
			var err error
			conn, err = s.open(ctx, name)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if !s.retry(ctx, log, h, &attempts, err) {
					return
				}
				continue
			}
		}

		w := NewWorker(name, conn, s.deps, s.gate)
		w.onState = func(State) { s.refreshMetrics() }
		h.mu.Lock()
		h.worker = w
		h.mu.Unlock()

		err := w.Run(ctx)
		conn = nil

		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = domain.E(domain.KindTransport, "run", name, domain.ErrStreamClosed)
		}

		if domain.IsKind(err, domain.KindAuth) {
			s.revoke(name, err, h)
			return
		}

		if since := w.LiveSince(); !since.IsZero() && s.deps.now().Sub(since) >= s.policy.StableAfter {
			attempts = 0
		}
		if !s.retry(ctx, log, h, &attempts, err) {
			return
		}
	}
}

func (s *Supervisor) open(ctx context.Context, name string) (domain.Connection, error) {
	creds, err := s.deps.Registry.Credentials(name)
	if err != nil {
		return nil, err
	}
	conn, err := s.platform.Open(ctx, name, creds)
	if err != nil {
		return nil, classify(err, "open", name)
	}
	return conn, nil
}

// retry waits before the next attempt. Returns false when supervision must end.
func (s *Supervisor) retry(ctx context.Context, log zerolog.Logger, h *handle, attempts *int, err error) bool {
	if domain.IsKind(err, domain.KindUnknownAccount) {
		s.fail(h, err)
		return false
	}

	*attempts++
	h.mu.Lock()
	h.attempts = *attempts
	h.mu.Unlock()

	if s.policy.MaxReconnectAttempts > 0 && *attempts > s.policy.MaxReconnectAttempts {
		log.Error().Err(err).Int("attempts", *attempts-1).Msg("worker gave up reconnecting")
		s.fail(h, err)
		return false
	}

	delay := s.policy.Backoff(*attempts)
	s.deps.Metrics.RecordAccountReconnection()
	log.Warn().Err(err).
		Int("attempt", *attempts).
		Dur("delay", delay).
		Msg("worker failed, reconnecting")

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// revoke returns an account whose session is no longer valid to unauthorized
func (s *Supervisor) revoke(name string, err error, h *handle) {
	s.logger.Warn().Err(err).Str("account", name).Msg("session revoked, account needs to sign in again")
	s.fail(h, err)

	if setErr := s.deps.Registry.SetAuthState(name, domain.AuthUnauthorized); setErr != nil {
		s.logger.Warn().Err(setErr).Str("account", name).Msg("failed to reset auth state")
		return
	}
	if perr := s.deps.Persister.Persist(context.Background()); perr != nil {
		s.logger.Error().Err(perr).Str("account", name).Msg("failed to persist auth state")
	}
}

func (s *Supervisor) fail(h *handle, err error) {
	h.mu.Lock()
	h.failure = err
	h.mu.Unlock()
	s.refreshMetrics()
}

func (s *Supervisor) refreshMetrics() {
	if s.deps.Metrics == nil {
		return
	}
	s.deps.Metrics.UpdateAccounts(s.LiveCount(), len(s.deps.Registry.Accounts()))
}
