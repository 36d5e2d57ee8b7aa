// Package session runs one event-processing worker per authorized account
package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
)

const closeTimeout = 10 * time.Second

// Worker processes the event stream of one account.
// It walks Connecting, Backfilling (only before the first successful backfill), Live and Stopped.
type Worker struct {
	account string
	conn    domain.Connection
	deps    Deps
	gate    chan struct{}
	logger  zerolog.Logger

	state     atomic.Int32
	liveSince atomic.Int64
	onState   func(State)
}

// NewWorker creates a worker over an opened connection.
// gate bounds concurrent connects across workers and may be nil.
func NewWorker(account string, conn domain.Connection, deps Deps, gate chan struct{}) *Worker {
	return &Worker{
		account: account,
		conn:    conn,
		deps:    deps,
		gate:    gate,
		logger: deps.Logger.With().
			Str("component", "session_worker").
			Str("account", account).
			Logger(),
	}
}

// State returns the current state
func (w *Worker) State() State {
	return State(w.state.Load())
}

// LiveSince returns when the worker entered Live, zero if it never did
func (w *Worker) LiveSince() time.Time {
	ns := w.liveSince.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

func (w *Worker) setState(s State) {
	w.state.Store(int32(s))
	if s == StateLive {
		w.liveSince.Store(w.deps.now().UnixNano())
	}
	w.logger.Debug().Str("state", s.String()).Msg("worker state changed")
	if w.onState != nil {
		w.onState(s)
	}
}

// Run drives the worker until ctx is cancelled or the stream fails.
// Returns nil on cancellation. The connection is closed on every exit path.
func (w *Worker) Run(ctx context.Context) error {
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := w.conn.Close(closeCtx); err != nil {
			w.logger.Warn().Err(err).Msg("failed to close connection")
		}
		w.setState(StateStopped)
	}()

	w.setState(StateConnecting)
	if err := w.connect(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	if err := w.backfill(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	events, err := w.conn.Subscribe(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return domain.E(domain.KindTransport, "subscribe", w.account, err)
	}

	w.setState(StateLive)
	w.logger.Info().Msg("session is live")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return domain.E(domain.KindTransport, "receive", w.account, domain.ErrStreamClosed)
			}
			w.handle(ctx, event)
		}
	}
}

func (w *Worker) connect(ctx context.Context) error {
	if w.gate != nil {
		select {
		case w.gate <- struct{}{}:
			defer func() { <-w.gate }()
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := w.conn.Connect(ctx); err != nil {
		return classify(err, "connect", w.account)
	}

	authorized, err := w.conn.Authorized(ctx)
	if err != nil {
		return classify(err, "auth_status", w.account)
	}
	if !authorized {
		return domain.E(domain.KindAuth, "auth_status", w.account, domain.ErrNotAuthorized)
	}
	return nil
}

// backfill seeds the dialog set with pre-existing conversations before live processing,
// so they are not counted as new
func (w *Worker) backfill(ctx context.Context) error {
	initialized, err := w.deps.Registry.IsInitialized(w.account)
	if err != nil {
		return err
	}
	if initialized {
		return nil
	}

	w.setState(StateBackfilling)
	start := time.Now()

	dialogs, err := w.conn.Dialogs(ctx)
	if err != nil {
		return classify(err, "backfill", w.account)
	}

	seeded, err := w.deps.Registry.SeedDialogs(w.account, dialogs)
	if err != nil {
		return err
	}
	if !seeded {
		return nil
	}

	if err := w.deps.Persister.Persist(ctx); err != nil {
		w.logger.Error().Err(err).Msg("failed to persist backfill")
	}

	w.logger.Info().
		Int("dialogs", len(dialogs)).
		Dur("duration", time.Since(start)).
		Msg("existing dialogs loaded")
	return nil
}

func (w *Worker) handle(ctx context.Context, event domain.Event) {
	switch e := event.(type) {
	case domain.InboundMessage:
		w.handleMessage(ctx, e.Message)
	case domain.DeletionBatch:
		w.handleDeletion(ctx, e)
	default:
		w.logger.Debug().Msgf("ignoring event %T", event)
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg domain.CachedMessage) {
	w.deps.Cache.Put(w.account, msg)
	w.deps.Metrics.RecordMessageCached()

	if msg.Outgoing || msg.ConversationID == 0 {
		return
	}

	inserted, err := w.deps.Registry.RecordNewDialog(w.account, msg.ConversationID)
	if err != nil {
		w.logger.Warn().Err(err).Msg("failed to record dialog")
		return
	}
	if !inserted {
		return
	}

	w.deps.Metrics.RecordNewDialog(w.account)
	w.logger.Info().
		Int64("conversation_id", msg.ConversationID).
		Str("conversation_name", msg.ConversationName).
		Msg("new dialog")

	// The increment must be durable before the next event
	if err := w.deps.Persister.Persist(ctx); err != nil {
		w.logger.Error().Err(err).Msg("failed to persist new dialog")
	}

	if w.deps.Publisher != nil {
		now := w.deps.now()
		event := domain.NewDialogEvent{
			Account:        w.account,
			ConversationID: msg.ConversationID,
			Day:            domain.DayKey(now, w.deps.Zone),
			ObservedAt:     now,
		}
		if err := w.deps.Publisher.PublishNewDialog(ctx, event); err != nil {
			w.logger.Warn().Err(err).Msg("failed to publish new dialog event")
		}
	}
}

func (w *Worker) handleDeletion(ctx context.Context, batch domain.DeletionBatch) {
	keys := batch.Keys()
	observedAt := batch.ObservedAt
	if observedAt.IsZero() {
		observedAt = w.deps.now()
	}

	dest, err := w.deps.Registry.Destination(w.account)
	if err != nil {
		w.logger.Warn().Err(err).Msg("failed to read destination")
	}

	misses := 0
	for _, key := range keys {
		msg, ok := w.deps.Cache.Get(w.account, key)
		if !ok {
			misses++
			w.logger.Debug().
				Str("kind", domain.KindCacheMiss.String()).
				Int64("channel_id", key.ChannelID).
				Int("message_id", key.ID).
				Msg("deleted message not in cache")
			continue
		}

		w.report(ctx, dest, msg, observedAt)
		w.deps.Cache.Remove(w.account, key)
	}

	w.deps.Metrics.RecordDeletion(len(keys), misses)

	if evicted := w.deps.Cache.EvictOlderThan(w.account, w.deps.Retention); evicted > 0 {
		w.logger.Debug().Int("evicted", evicted).Msg("expired messages evicted")
	}
}

func (w *Worker) report(ctx context.Context, dest *domain.Destination, msg domain.CachedMessage, observedAt time.Time) {
	log := w.logger.With().
		Int64("conversation_id", msg.ConversationID).
		Int("message_id", msg.Key.ID).
		Logger()

	if dest == nil {
		log.Info().Msg("message deleted, report destination is not set")
		return
	}

	err := w.deps.Reporter.Report(ctx, domain.DeletionReport{
		Account:     w.account,
		Destination: *dest,
		Message:     msg,
		ObservedAt:  observedAt,
		Downloader:  w.conn,
	})
	switch {
	case err == nil:
	case domain.IsKind(err, domain.KindMedia):
		log.Warn().Err(err).Msg("deletion reported without media")
	default:
		log.Error().Err(err).Str("kind", domain.KindOf(err).String()).Msg("failed to deliver deletion report")
	}
}

// classify keeps an already classified error and treats anything else as a transport failure
func classify(err error, op, account string) error {
	if domain.KindOf(err) != domain.KindUnknown {
		return err
	}
	return domain.E(domain.KindTransport, op, account, err)
}
