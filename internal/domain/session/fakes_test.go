package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/account/registry"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/cache"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/metrics"
)

type fakeConn struct {
	events     chan domain.Event
	dialogs    []int64
	connectErr error
	authorized bool
	// closeGate, when set, holds Close until it is closed
	closeGate chan struct{}

	dialogCalls atomic.Int32
	closed      atomic.Bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{events: make(chan domain.Event, 16), authorized: true}
}

func (c *fakeConn) Connect(context.Context) error { return c.connectErr }

func (c *fakeConn) Authorized(context.Context) (bool, error) { return c.authorized, nil }

func (c *fakeConn) SendCode(context.Context) (string, error) { return "", errors.New("unexpected") }

func (c *fakeConn) SignIn(context.Context, string, string) error { return errors.New("unexpected") }

func (c *fakeConn) SignInPassword(context.Context, string) error { return errors.New("unexpected") }

func (c *fakeConn) Dialogs(context.Context) ([]int64, error) {
	c.dialogCalls.Add(1)
	return c.dialogs, nil
}

func (c *fakeConn) Subscribe(context.Context) (<-chan domain.Event, error) { return c.events, nil }

func (c *fakeConn) Download(context.Context, *domain.Media, string) error { return nil }

func (c *fakeConn) Close(ctx context.Context) error {
	if c.closeGate != nil {
		select {
		case <-c.closeGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.closed.Store(true)
	return nil
}

type fakePlatform struct {
	mu     sync.Mutex
	conns  []*fakeConn
	opened int
	next   func(n int) *fakeConn
}

func (p *fakePlatform) Open(context.Context, string, domain.Credentials) (domain.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opened++
	conn := p.next(p.opened)
	p.conns = append(p.conns, conn)
	return conn, nil
}

func (p *fakePlatform) Forget(context.Context, string) error { return nil }

func (p *fakePlatform) Opened() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opened
}

type fakeReporter struct {
	mu      sync.Mutex
	reports []domain.DeletionReport
	err     error
}

func (r *fakeReporter) Report(_ context.Context, rep domain.DeletionReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, rep)
	return r.err
}

func (r *fakeReporter) Reports() []domain.DeletionReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.DeletionReport(nil), r.reports...)
}

type fakePersister struct {
	calls atomic.Int32
}

func (p *fakePersister) Persist(context.Context) error {
	p.calls.Add(1)
	return nil
}

type fixture struct {
	registry  *registry.Registry
	cache     *cache.MessageCache
	reporter  *fakeReporter
	persister *fakePersister
	deps      Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	loc := domain.ReportZone(3)
	reg := registry.New(loc, zerolog.Nop())
	if err := reg.AddAccount("alpha", domain.Credentials{APIID: 1, APIHash: "h", Phone: "+7"}); err != nil {
		t.Fatalf("AddAccount() error = %v", err)
	}
	if err := reg.SetAuthState("alpha", domain.AuthAuthorized); err != nil {
		t.Fatalf("SetAuthState() error = %v", err)
	}

	f := &fixture{
		registry:  reg,
		cache:     cache.NewMessageCache(cache.DefaultRetention, zerolog.Nop()),
		reporter:  &fakeReporter{},
		persister: &fakePersister{},
	}
	f.deps = Deps{
		Registry:  f.registry,
		Cache:     f.cache,
		Reporter:  f.reporter,
		Persister: f.persister,
		Retention: cache.DefaultRetention,
		Zone:      loc,
		Logger:    zerolog.Nop(),
		Metrics:   metrics.GetDefaultMetrics(),
	}
	return f
}

func inbound(conversationID int64, id int, text string) domain.InboundMessage {
	return domain.InboundMessage{Message: domain.CachedMessage{
		Key:            domain.MessageKey{ID: id},
		ConversationID: conversationID,
		Text:           text,
		ReceivedAt:     time.Now(),
	}}
}
