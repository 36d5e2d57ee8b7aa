package report

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/metrics"
)

type fakeRegistry struct {
	mu        sync.Mutex
	accounts  []domain.Account
	counts    map[string]map[string]int
	rollovers int
	panicOn   string
}

func (r *fakeRegistry) Accounts() []domain.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Account(nil), r.accounts...)
}

func (r *fakeRegistry) DayCount(name, day string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == r.panicOn {
		panic("broken record")
	}
	days, ok := r.counts[name]
	if !ok {
		return 0, domain.E(domain.KindUnknownAccount, "day_count", name, domain.ErrAccountNotFound)
	}
	return days[day], nil
}

func (r *fakeRegistry) RollOver() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollovers++
}

type sentText struct {
	dest domain.Destination
	text string
}

type fakeSender struct {
	mu     sync.Mutex
	texts  []sentText
	failOn int64
}

func (s *fakeSender) SendText(_ context.Context, dest domain.Destination, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dest.ChatID == s.failOn {
		return errors.New("chat not found")
	}
	s.texts = append(s.texts, sentText{dest: dest, text: text})
	return nil
}

func (s *fakeSender) SendMedia(context.Context, domain.Destination, domain.MediaUpload) error {
	return nil
}

type fakePersister struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (p *fakePersister) Persist(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.err
}

func newTestScheduler(reg Registry, sender domain.Sender, persister domain.Persister) *Scheduler {
	return NewScheduler(reg, sender, persister, domain.ReportZone(3), 4, time.Minute, zerolog.Nop(), metrics.GetDefaultMetrics())
}

func dest(id int64) *domain.Destination {
	return &domain.Destination{ChatID: id}
}

func TestScheduler_RunCycle_RolloverAtFour(t *testing.T) {
	loc := domain.ReportZone(3)
	reg := &fakeRegistry{
		accounts: []domain.Account{{Name: "alpha", Destination: dest(-100)}},
		counts:   map[string]map[string]int{"alpha": {"2024-05-02": 3}},
	}
	sender := &fakeSender{}
	persister := &fakePersister{}
	s := newTestScheduler(reg, sender, persister)

	err := s.RunCycle(context.Background(), time.Date(2024, 5, 2, 4, 0, 0, 0, loc))
	require.NoError(t, err)

	require.Len(t, sender.texts, 1)
	assert.Contains(t, sender.texts[0].text, "Новых диалогов: 3")
	assert.Contains(t, sender.texts[0].text, "Время: 04:00 МСК")
	assert.Equal(t, 1, reg.rollovers)
	assert.Equal(t, 1, persister.calls)
}

func TestScheduler_RunCycle_NoRolloverAtEight(t *testing.T) {
	loc := domain.ReportZone(3)
	reg := &fakeRegistry{
		accounts: []domain.Account{{Name: "alpha", Destination: dest(-100)}},
		counts:   map[string]map[string]int{"alpha": {}},
	}
	persister := &fakePersister{}
	s := newTestScheduler(reg, &fakeSender{}, persister)

	require.NoError(t, s.RunCycle(context.Background(), time.Date(2024, 5, 2, 8, 0, 0, 0, loc)))

	assert.Equal(t, 0, reg.rollovers)
	assert.Equal(t, 0, persister.calls)
}

func TestScheduler_RunCycle_MidnightReportsClosingDay(t *testing.T) {
	loc := domain.ReportZone(3)
	reg := &fakeRegistry{
		accounts: []domain.Account{{Name: "alpha", Destination: dest(-100)}},
		counts:   map[string]map[string]int{"alpha": {"2024-05-01": 5, "2024-05-02": 1}},
	}
	sender := &fakeSender{}
	s := newTestScheduler(reg, sender, &fakePersister{})

	require.NoError(t, s.RunCycle(context.Background(), time.Date(2024, 5, 2, 0, 0, 0, 0, loc)))

	require.Len(t, sender.texts, 1)
	assert.Contains(t, sender.texts[0].text, "Дата: 01.05.2024")
	assert.Contains(t, sender.texts[0].text, "Новых диалогов: 5")
}

func TestScheduler_RunCycle_SkipsAndContinues(t *testing.T) {
	loc := domain.ReportZone(3)
	reg := &fakeRegistry{
		accounts: []domain.Account{
			{Name: "alpha", Destination: dest(-1)},
			{Name: "beta"},
			{Name: "gamma", Destination: dest(-3)},
		},
		counts: map[string]map[string]int{"alpha": {}, "beta": {}, "gamma": {}},
	}
	sender := &fakeSender{failOn: -1}
	s := newTestScheduler(reg, sender, &fakePersister{})

	require.NoError(t, s.RunCycle(context.Background(), time.Date(2024, 5, 2, 12, 0, 0, 0, loc)))

	require.Len(t, sender.texts, 1)
	assert.Equal(t, int64(-3), sender.texts[0].dest.ChatID)
	assert.True(t, strings.HasPrefix(sender.texts[0].text, "📊 Отчёт по проекту gamma"))
}

func TestScheduler_RunCycle_Errors(t *testing.T) {
	loc := domain.ReportZone(3)

	t.Run("persist failure", func(t *testing.T) {
		reg := &fakeRegistry{counts: map[string]map[string]int{}}
		s := newTestScheduler(reg, &fakeSender{}, &fakePersister{err: errors.New("db down")})

		err := s.RunCycle(context.Background(), time.Date(2024, 5, 2, 4, 0, 0, 0, loc))
		require.Error(t, err)
		assert.Equal(t, 1, reg.rollovers)
	})

	t.Run("panic is recovered", func(t *testing.T) {
		reg := &fakeRegistry{
			accounts: []domain.Account{{Name: "alpha", Destination: dest(-1)}},
			counts:   map[string]map[string]int{},
			panicOn:  "alpha",
		}
		s := newTestScheduler(reg, &fakeSender{}, &fakePersister{})

		err := s.RunCycle(context.Background(), time.Date(2024, 5, 2, 8, 0, 0, 0, loc))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panic")
	})
}

func TestScheduler_StartStop(t *testing.T) {
	s := newTestScheduler(&fakeRegistry{}, &fakeSender{}, &fakePersister{})

	s.Start()
	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not interrupt the boundary wait")
	}
}
