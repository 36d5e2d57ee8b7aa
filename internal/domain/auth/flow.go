// Package auth drives interactive sign-in of accounts
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/metrics"
)

const closeTimeout = 10 * time.Second

// Result is the outcome of a sign-in step
type Result string

const (
	ResultCodeSent          Result = "code_sent"
	ResultPasswordRequired  Result = "password_required"
	ResultAuthorized        Result = "authorized"
	ResultAlreadyAuthorized Result = "already_authorized"
)

// Registry is the part of the account registry used by sign-in
type Registry interface {
	Credentials(name string) (domain.Credentials, error)
	AuthState(name string) (domain.AuthState, error)
	SetAuthState(name string, state domain.AuthState) error
}

// SessionStarter hands authorized connections over to session workers
type SessionStarter interface {
	Start(ctx context.Context, name string, conn domain.Connection) error
	Stop(ctx context.Context, name string) error
}

// Flow runs the code and password sign-in of accounts.
// Steps of one account are serialized; different accounts proceed independently.
type Flow struct {
	platform  domain.Platform
	registry  Registry
	starter   SessionStarter
	persister domain.Persister
	pending   *PendingStore
	logger    zerolog.Logger
	metrics   *metrics.Metrics

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewFlow creates a new sign-in flow
func NewFlow(
	platform domain.Platform,
	registry Registry,
	starter SessionStarter,
	persister domain.Persister,
	pending *PendingStore,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *Flow {
	return &Flow{
		platform:  platform,
		registry:  registry,
		starter:   starter,
		persister: persister,
		pending:   pending,
		logger:    logger.With().Str("component", "auth_flow").Logger(),
		metrics:   m,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (f *Flow) lock(account string) func() {
	f.locksMu.Lock()
	mu, ok := f.locks[account]
	if !ok {
		mu = &sync.Mutex{}
		f.locks[account] = mu
	}
	f.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// RequestCode opens an ephemeral connection and asks the platform for a verification code.
// A previous pending sign-in of the account is discarded. An account whose stored session
// is still valid is handed straight to its session worker. When an authorized account cannot
// be reached, it stays authorized and its session worker is restarted.
func (f *Flow) RequestCode(ctx context.Context, account string) (Result, error) {
	unlock := f.lock(account)
	defer unlock()

	creds, err := f.registry.Credentials(account)
	if err != nil {
		return "", err
	}
	prior, err := f.registry.AuthState(account)
	if err != nil {
		return "", err
	}
	keep := prior == domain.AuthAuthorized

	f.discard(f.pending.Take(account))
	if err := f.starter.Stop(ctx, account); err != nil {
		return "", domain.E(domain.KindTransport, "request_code", account, err)
	}

	conn, err := f.platform.Open(ctx, account, creds)
	if err != nil {
		return "", f.failRequest(ctx, account, nil, keep, err)
	}
	if err := conn.Connect(ctx); err != nil {
		return "", f.failRequest(ctx, account, conn, keep, err)
	}

	authorized, err := conn.Authorized(ctx)
	if err != nil {
		return "", f.failRequest(ctx, account, conn, keep, err)
	}
	if authorized {
		if err := f.complete(ctx, account, conn); err != nil {
			return "", err
		}
		f.metrics.RecordAuthAttempt("request_code", string(ResultAlreadyAuthorized))
		return ResultAlreadyAuthorized, nil
	}

	hash, err := conn.SendCode(ctx)
	if err != nil {
		return "", f.failRequest(ctx, account, conn, false, err)
	}

	f.pending.Put(&PendingAuth{
		Account:  account,
		Conn:     conn,
		CodeHash: hash,
		Stage:    domain.AuthCodePending,
	})
	if err := f.registry.SetAuthState(account, domain.AuthCodePending); err != nil {
		f.discard(f.pending.Take(account))
		return "", err
	}

	f.metrics.RecordAuthAttempt("request_code", string(ResultCodeSent))
	f.logger.Info().Str("account", account).Msg("verification code requested")
	return ResultCodeSent, nil
}

// SubmitCode signs in with the received code
func (f *Flow) SubmitCode(ctx context.Context, account, code string) (Result, error) {
	unlock := f.lock(account)
	defer unlock()

	p, err := f.awaiting(account, domain.AuthCodePending, "submit_code")
	if err != nil {
		return "", err
	}

	err = p.Conn.SignIn(ctx, code, p.CodeHash)
	switch {
	case errors.Is(err, domain.ErrPasswordRequired):
		f.pending.SetStage(account, domain.AuthPasswordPending)
		if err := f.registry.SetAuthState(account, domain.AuthPasswordPending); err != nil {
			f.discard(f.pending.Take(account))
			return "", err
		}
		f.metrics.RecordAuthAttempt("submit_code", string(ResultPasswordRequired))
		f.logger.Info().Str("account", account).Msg("second factor password required")
		return ResultPasswordRequired, nil
	case err != nil:
		return "", f.fail(account, "submit_code", err)
	}

	f.pending.Take(account)
	if err := f.complete(ctx, account, p.Conn); err != nil {
		return "", err
	}
	f.metrics.RecordAuthAttempt("submit_code", string(ResultAuthorized))
	return ResultAuthorized, nil
}

// SubmitPassword completes second factor sign-in
func (f *Flow) SubmitPassword(ctx context.Context, account, password string) (Result, error) {
	unlock := f.lock(account)
	defer unlock()

	p, err := f.awaiting(account, domain.AuthPasswordPending, "submit_password")
	if err != nil {
		return "", err
	}

	if err := p.Conn.SignInPassword(ctx, password); err != nil {
		return "", f.fail(account, "submit_password", err)
	}

	f.pending.Take(account)
	if err := f.complete(ctx, account, p.Conn); err != nil {
		return "", err
	}
	f.metrics.RecordAuthAttempt("submit_password", string(ResultAuthorized))
	return ResultAuthorized, nil
}

// Cancel abandons a pending sign-in of the account, if any
func (f *Flow) Cancel(_ context.Context, account string) error {
	unlock := f.lock(account)
	defer unlock()

	p := f.pending.Take(account)
	if p == nil {
		return nil
	}
	f.discard(p)
	f.resetPending(account)
	f.logger.Info().Str("account", account).Msg("pending sign-in cancelled")
	return nil
}

// Shutdown closes every pending connection
func (f *Flow) Shutdown() int {
	f.pending.Stop()
	all := f.pending.TakeAll()
	for _, p := range all {
		f.discard(p)
	}
	return len(all)
}

// Pending returns the number of sign-ins in progress
func (f *Flow) Pending() int {
	return f.pending.Count()
}

// Expire drops an abandoned sign-in and returns the account to unauthorized
func (f *Flow) Expire(account string) {
	unlock := f.lock(account)
	defer unlock()

	p := f.pending.TakeExpired(account)
	if p == nil {
		return
	}
	f.discard(p)
	f.resetPending(account)
	f.metrics.RecordAuthAttempt(string(p.Stage), "expired")
	f.logger.Info().Str("account", account).Msg("pending sign-in expired")
}

func (f *Flow) awaiting(account string, stage domain.AuthState, op string) (*PendingAuth, error) {
	if _, err := f.registry.AuthState(account); err != nil {
		return nil, err
	}

	p, err := f.pending.Get(account)
	if errors.Is(err, ErrPendingExpired) {
		f.discard(f.pending.Take(account))
		f.resetPending(account)
	}
	if err != nil {
		return nil, domain.E(domain.KindAuth, op, account, err)
	}
	if p.Stage != stage {
		return nil, domain.E(domain.KindAuth, op, account, ErrUnexpectedStep)
	}
	return p, nil
}

// complete marks the account authorized and hands the connection to its session worker
func (f *Flow) complete(ctx context.Context, account string, conn domain.Connection) error {
	if err := f.registry.SetAuthState(account, domain.AuthAuthorized); err != nil {
		f.closeConn(conn)
		return err
	}
	f.persist(ctx, account)

	if err := f.starter.Start(ctx, account, conn); err != nil {
		f.closeConn(conn)
		return domain.E(domain.KindTransport, "start_session", account, err)
	}

	f.logger.Info().Str("account", account).Msg("account authorized")
	return nil
}

// fail ends the sign-in; stored credentials are kept for a retry
func (f *Flow) fail(account, op string, err error) error {
	f.discard(f.pending.Take(account))
	if setErr := f.registry.SetAuthState(account, domain.AuthUnauthorized); setErr != nil {
		f.logger.Warn().Err(setErr).Str("account", account).Msg("failed to reset auth state")
	}
	f.persist(context.Background(), account)

	kind := domain.KindOf(err)
	if kind == domain.KindUnknown {
		kind = domain.KindAuth
	}
	f.metrics.RecordAuthAttempt(op, kind.String())
	f.logger.Warn().Err(err).Str("account", account).Str("op", op).Msg("sign-in failed")
	return domain.E(kind, op, account, err)
}

// failRequest ends a code request. With keep set the stored session was never
// rejected, so the account stays authorized and its worker is brought back.
func (f *Flow) failRequest(ctx context.Context, account string, conn domain.Connection, keep bool, err error) error {
	if conn != nil {
		f.closeConn(conn)
	}
	if keep {
		if startErr := f.starter.Start(ctx, account, nil); startErr != nil {
			f.logger.Warn().Err(startErr).Str("account", account).Msg("failed to restart session worker")
		}
	} else if setErr := f.registry.SetAuthState(account, domain.AuthUnauthorized); setErr != nil {
		f.logger.Warn().Err(setErr).Str("account", account).Msg("failed to reset auth state")
	}

	kind := domain.KindOf(err)
	if kind == domain.KindUnknown {
		kind = domain.KindTransport
	}
	f.metrics.RecordAuthAttempt("request_code", kind.String())
	f.logger.Warn().Err(err).Str("account", account).Msg("code request failed")
	return domain.E(kind, "request_code", account, err)
}

// resetPending returns an account still waiting for a challenge answer to unauthorized
func (f *Flow) resetPending(account string) {
	state, err := f.registry.AuthState(account)
	if err != nil || !state.Pending() {
		return
	}
	if err := f.registry.SetAuthState(account, domain.AuthUnauthorized); err != nil {
		f.logger.Warn().Err(err).Str("account", account).Msg("failed to reset auth state")
	}
}

func (f *Flow) persist(ctx context.Context, account string) {
	if err := f.persister.Persist(ctx); err != nil {
		f.logger.Error().Err(err).Str("account", account).Msg("failed to persist auth state")
	}
}

func (f *Flow) discard(p *PendingAuth) {
	if p == nil {
		return
	}
	f.closeConn(p.Conn)
}

func (f *Flow) closeConn(conn domain.Connection) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := conn.Close(ctx); err != nil {
		f.logger.Debug().Err(err).Msg("failed to close sign-in connection")
	}
}
