package persistence

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/metrics"
)

// ErrWriterStopped is returned by Persist after the writer has been stopped
var ErrWriterStopped = errors.New("persistence writer stopped")

// WriterConfig holds retry settings of the writer
type WriterConfig struct {
	SaveAttempts int
	RetryDelay   time.Duration
	SaveTimeout  time.Duration
}

type saveRequest struct {
	result chan error
}

// Writer is the single goroutine that saves the full state.
// Requests arriving while a save runs are served together by the next save.
type Writer struct {
	store   domain.SnapshotStore
	source  domain.SnapshotSource
	cfg     WriterConfig
	logger  zerolog.Logger
	metrics *metrics.Metrics

	requests chan saveRequest
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	mu        sync.RWMutex
	lastErr   error
	lastSaved time.Time
}

// NewWriter creates a new snapshot writer
func NewWriter(store domain.SnapshotStore, source domain.SnapshotSource, cfg WriterConfig, logger zerolog.Logger, m *metrics.Metrics) *Writer {
	if cfg.SaveAttempts <= 0 {
		cfg.SaveAttempts = 1
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = 30 * time.Second
	}

	return &Writer{
		store:    store,
		source:   source,
		cfg:      cfg,
		logger:   logger.With().Str("component", "persistence_writer").Logger(),
		metrics:  m,
		requests: make(chan saveRequest, 64),
		done:     make(chan struct{}),
	}
}

// Start starts the writer loop
func (w *Writer) Start() {
	w.logger.Info().
		Int("attempts", w.cfg.SaveAttempts).
		Dur("retry_delay", w.cfg.RetryDelay).
		Msg("Starting persistence writer")

	w.wg.Add(1)
	go w.run()
}

// Stop answers queued requests, writes a final snapshot and waits for the loop to exit
func (w *Writer) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info().Msg("Stopping persistence writer")
		close(w.done)
		w.wg.Wait()
		w.logger.Info().Msg("Persistence writer stopped")
	})
}

// Persist saves the current state and blocks until the save that covers this call finishes
func (w *Writer) Persist(ctx context.Context) error {
	req := saveRequest{result: make(chan error, 1)}

	select {
	case <-w.done:
		return domain.E(domain.KindPersistence, "persist", "", ErrWriterStopped)
	default:
	}

	select {
	case w.requests <- req:
	case <-w.done:
		return domain.E(domain.KindPersistence, "persist", "", ErrWriterStopped)
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastError returns the error of the most recent save, nil after a success
func (w *Writer) LastError() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastErr
}

// LastSaved returns the time of the most recent successful save
func (w *Writer) LastSaved() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastSaved
}

func (w *Writer) run() {
	defer w.wg.Done()

	for {
		select {
		case req := <-w.requests:
			batch := w.drain([]saveRequest{req})
			w.reply(batch, w.save())

		case <-w.done:
			batch := w.drain(nil)
			err := w.save()
			w.reply(batch, err)
			if err != nil {
				w.logger.Error().Err(err).Msg("final snapshot save failed")
			}
			return
		}
	}
}

// drain collects every request already queued
func (w *Writer) drain(batch []saveRequest) []saveRequest {
	for {
		select {
		case req := <-w.requests:
			batch = append(batch, req)
		default:
			return batch
		}
	}
}

func (w *Writer) reply(batch []saveRequest, err error) {
	for _, req := range batch {
		req.result <- err
	}
}

// save snapshots the state once and retries the write with a fixed delay
func (w *Writer) save() error {
	snapshot := w.source.Snapshot()
	start := time.Now()

	var err error
	for attempt := 1; attempt <= w.cfg.SaveAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), w.cfg.SaveTimeout)
		err = w.store.Save(ctx, snapshot)
		cancel()

		if err == nil {
			break
		}

		w.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", w.cfg.SaveAttempts).
			Msg("snapshot save failed")

		if attempt < w.cfg.SaveAttempts && w.cfg.RetryDelay > 0 {
			time.Sleep(w.cfg.RetryDelay)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		w.lastErr = domain.E(domain.KindPersistence, "save_snapshot", "", err)
		w.metrics.RecordPersistenceError()
		w.logger.Error().Err(err).
			Int("accounts", len(snapshot.Accounts)).
			Msg("snapshot could not be saved")
		return w.lastErr
	}

	w.lastErr = nil
	w.lastSaved = time.Now()
	w.metrics.RecordPersistence(time.Since(start).Seconds())
	w.logger.Debug().
		Int("accounts", len(snapshot.Accounts)).
		Dur("duration", time.Since(start)).
		Msg("snapshot saved")
	return nil
}

var _ domain.Persister = (*Writer)(nil)
