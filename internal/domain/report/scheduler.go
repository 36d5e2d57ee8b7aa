package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/metrics"
)

// Registry is the part of the account registry read by the scheduler
type Registry interface {
	Accounts() []domain.Account
	DayCount(name, day string) (int, error)
	RollOver()
}

// Scheduler sends summaries at fixed local boundaries and rolls statistics over once a day
type Scheduler struct {
	registry     Registry
	sender       domain.Sender
	persister    domain.Persister
	loc          *time.Location
	rolloverHour int
	retryBackoff time.Duration
	now          func() time.Time
	logger       zerolog.Logger
	metrics      *metrics.Metrics

	done   chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a new report scheduler
func NewScheduler(
	registry Registry,
	sender domain.Sender,
	persister domain.Persister,
	loc *time.Location,
	rolloverHour int,
	retryBackoff time.Duration,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		registry:     registry,
		sender:       sender,
		persister:    persister,
		loc:          loc,
		rolloverHour: rolloverHour,
		retryBackoff: retryBackoff,
		now:          time.Now,
		logger:       logger.With().Str("component", "report_scheduler").Logger(),
		metrics:      m,
		done:         make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start starts the scheduler loop
func (s *Scheduler) Start() {
	s.logger.Info().
		Str("zone", s.loc.String()).
		Int("rollover_hour", s.rolloverHour).
		Time("next_report", NextBoundary(s.now(), s.loc)).
		Msg("Starting report scheduler")

	s.wg.Add(1)
	go s.run()
}

// Stop interrupts any sleep and waits for the loop to exit
func (s *Scheduler) Stop() {
	s.logger.Info().Msg("Stopping report scheduler")

	s.cancel()
	close(s.done)
	s.wg.Wait()

	s.logger.Info().Msg("Report scheduler stopped")
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	var last time.Time
	for {
		from := s.now()
		if from.Before(last) {
			from = last
		}
		next := NextBoundary(from, s.loc)

		if !s.sleep(next.Sub(s.now())) {
			return
		}
		last = next

		if err := s.RunCycle(s.ctx, next); err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.metrics.RecordReportCycleError()
			s.logger.Error().Err(err).
				Time("boundary", next).
				Dur("retry_in", s.retryBackoff).
				Msg("report cycle failed")

			if !s.sleep(s.retryBackoff) {
				return
			}
		}
	}
}

// sleep waits for d and returns false if the scheduler was stopped meanwhile
func (s *Scheduler) sleep(d time.Duration) bool {
	if d <= 0 {
		select {
		case <-s.done:
			return false
		default:
			return true
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-s.done:
		return false
	case <-timer.C:
		return true
	}
}

// RunCycle sends the summaries of one boundary and rolls statistics over at the rollover hour.
// Per-account send failures are logged and do not fail the cycle.
func (s *Scheduler) RunCycle(ctx context.Context, boundary time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("report cycle panic: %v", r)
		}
	}()

	start := time.Now()
	local := boundary.In(s.loc)
	day := PeriodDay(boundary, s.loc)
	dayKey := domain.DayKey(day, s.loc)

	sent := 0
	for _, acc := range s.registry.Accounts() {
		if err := ctx.Err(); err != nil {
			return err
		}

		log := s.logger.With().Str("account", acc.Name).Logger()
		if acc.Destination == nil {
			log.Warn().Msg("report destination is not set, skipping summary")
			continue
		}

		count, err := s.registry.DayCount(acc.Name, dayKey)
		if err != nil {
			log.Debug().Err(err).Msg("account disappeared before summary")
			continue
		}

		text := FormatSummary(acc.Name, day, local, count, s.rolloverHour)
		if err := s.sender.SendText(ctx, *acc.Destination, text); err != nil {
			log.Error().
				Err(domain.E(domain.KindTransport, "send_summary", acc.Name, err)).
				Msg("failed to send summary")
			continue
		}
		sent++
	}

	if local.Hour() == s.rolloverHour && local.Minute() == 0 {
		s.registry.RollOver()
		s.metrics.RecordRollover()
		if err := s.persister.Persist(ctx); err != nil {
			return fmt.Errorf("persist rollover: %w", err)
		}
	}

	s.metrics.RecordReportCycle(sent, time.Since(start).Seconds())
	s.logger.Info().
		Time("boundary", local).
		Int("sent", sent).
		Msg("report cycle completed")
	return nil
}
