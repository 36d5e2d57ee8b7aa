package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/telegram/query"
	"github.com/gotd/td/telegram/query/dialogs"
	"github.com/gotd/td/telegram/updates"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/metrics"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/utils"
)

const (
	dialogsBatchSize = 100
	maxFloodRetries  = 3
)

// ClientConfig holds configuration for Client
type ClientConfig struct {
	Account     string
	Credentials domain.Credentials
	Sessions    *PostgresSessionStorage
	States      *UpdatesStateStorage
	EventBuffer int
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
}

// Client is one account's MTProto connection implementing domain.Connection
type Client struct {
	account string
	creds   domain.Credentials

	client  *telegram.Client
	gaps    *updates.Manager
	events  chan domain.Event
	buffer  int
	limiter *rate.Limiter

	// Connection state
	mu         sync.RWMutex
	connected  bool
	subscribed bool
	api        *tg.Client
	runCtx     context.Context
	cancel     context.CancelFunc
	runDone    chan struct{}

	// streamMu guards sends on events against closing it
	streamMu     sync.RWMutex
	streamClosed bool

	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewClient creates a client; no network activity happens until Connect
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Credentials.APIID == 0 {
		return nil, fmt.Errorf("APIID is required")
	}
	if cfg.Credentials.APIHash == "" {
		return nil, fmt.Errorf("APIHash is required")
	}
	if cfg.Credentials.Phone == "" {
		return nil, fmt.Errorf("PhoneNumber is required")
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 256
	}

	c := &Client{
		account: cfg.Account,
		creds:   cfg.Credentials,
		buffer:  cfg.EventBuffer,
		limiter: rate.NewLimiter(rate.Every(time.Second), 10), // 10 requests per second
		logger: cfg.Logger.With().
			Str("component", "mtproto_client").
			Str("account", cfg.Account).
			Str("phone", utils.MaskPhoneNumber(cfg.Credentials.Phone)).
			Logger(),
		metrics: cfg.Metrics,
	}

	dispatcher := tg.NewUpdateDispatcher()
	dispatcher.OnNewMessage(c.onNewMessage)
	dispatcher.OnNewChannelMessage(c.onNewChannelMessage)
	dispatcher.OnDeleteMessages(c.onDeleteMessages)
	dispatcher.OnDeleteChannelMessages(c.onDeleteChannelMessages)

	c.gaps = updates.New(updates.Config{
		Handler: dispatcher,
		Storage: cfg.States,
	})

	c.client = telegram.NewClient(cfg.Credentials.APIID, cfg.Credentials.APIHash, telegram.Options{
		SessionStorage: cfg.Sessions,
		UpdateHandler:  c.gaps,
	})

	return c, nil
}

// Connect starts the MTProto connection. The connection outlives ctx and ends on Close.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	if c.runDone != nil {
		c.mu.Unlock()
		return fmt.Errorf("client was closed")
	}

	c.logger.Info().Msg("connecting to Telegram")

	runCtx, cancel := context.WithCancel(context.Background())
	c.runCtx = runCtx
	c.cancel = cancel
	c.runDone = make(chan struct{})
	runDone := c.runDone
	c.mu.Unlock()

	ready := make(chan struct{})
	errChan := make(chan error, 1)

	go func() {
		defer close(runDone)
		defer c.endStream()

		err := c.client.Run(runCtx, func(ctx context.Context) error {
			c.mu.Lock()
			c.api = c.client.API()
			c.connected = true
			c.mu.Unlock()

			close(ready)

			// Keep connection alive
			<-ctx.Done()
			return ctx.Err()
		})

		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		cancel()

		if err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Warn().Err(err).Msg("connection ended")
		}
		select {
		case errChan <- err:
		default:
		}
	}()

	select {
	case <-ready:
		c.logger.Info().Msg("successfully connected to Telegram")
		return nil
	case err := <-errChan:
		cancel()
		if err == nil {
			err = domain.ErrNotConnected
		}
		return fmt.Errorf("failed to connect: %w", err)
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

func (c *Client) getAPI() (*tg.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected || c.api == nil {
		return nil, domain.ErrNotConnected
	}
	return c.api, nil
}

// Authorized reports whether the stored session is signed in
func (c *Client) Authorized(ctx context.Context) (bool, error) {
	if _, err := c.getAPI(); err != nil {
		return false, err
	}

	status, err := c.client.Auth().Status(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check auth status: %w", err)
	}
	return status.Authorized, nil
}

// SendCode requests a login code and returns the phone code hash
func (c *Client) SendCode(ctx context.Context) (string, error) {
	if _, err := c.getAPI(); err != nil {
		return "", err
	}

	var sent tg.AuthSentCodeClass
	err := c.call(ctx, func() error {
		var err error
		sent, err = c.client.Auth().SendCode(ctx, c.creds.Phone, auth.SendCodeOptions{})
		return err
	})
	if isRejectedCredentials(err) {
		return "", domain.E(domain.KindAuth, "send_code", c.account, err)
	}
	if err != nil {
		return "", fmt.Errorf("failed to send code: %w", err)
	}

	code, ok := sent.(*tg.AuthSentCode)
	if !ok {
		return "", fmt.Errorf("unexpected sent code type %T", sent)
	}

	c.logger.Info().Msg("login code sent")
	return code.PhoneCodeHash, nil
}

// SignIn completes sign-in with a code
func (c *Client) SignIn(ctx context.Context, code, codeHash string) error {
	if _, err := c.getAPI(); err != nil {
		return err
	}

	_, err := c.client.Auth().SignIn(ctx, c.creds.Phone, code, codeHash)
	if errors.Is(err, auth.ErrPasswordAuthNeeded) {
		return domain.ErrPasswordRequired
	}
	if isRejectedCredentials(err) {
		return domain.E(domain.KindAuth, "sign_in", c.account, err)
	}
	if err != nil {
		return fmt.Errorf("sign in failed: %w", err)
	}

	c.logger.Info().Msg("signed in with code")
	return nil
}

// SignInPassword completes sign-in with the second factor password
func (c *Client) SignInPassword(ctx context.Context, password string) error {
	if _, err := c.getAPI(); err != nil {
		return err
	}

	_, err := c.client.Auth().Password(ctx, password)
	if isRejectedCredentials(err) || errors.Is(err, auth.ErrPasswordInvalid) {
		return domain.E(domain.KindAuth, "sign_in_password", c.account, err)
	}
	if err != nil {
		return fmt.Errorf("password sign in failed: %w", err)
	}

	c.logger.Info().Msg("signed in with password")
	return nil
}

// Dialogs lists conversations whose top message exists
func (c *Client) Dialogs(ctx context.Context) ([]int64, error) {
	api, err := c.getAPI()
	if err != nil {
		return nil, err
	}

	var ids []int64
	err = c.call(ctx, func() error {
		ids = ids[:0]
		return query.GetDialogs(api).BatchSize(dialogsBatchSize).ForEach(ctx, func(ctx context.Context, elem dialogs.Elem) error {
			dialog, ok := elem.Dialog.(*tg.Dialog)
			if !ok || dialog.TopMessage == 0 {
				return nil
			}
			if id := markedPeerID(dialog.Peer); id != 0 {
				ids = append(ids, id)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list dialogs: %w", err)
	}

	c.logger.Info().Int("dialogs", len(ids)).Msg("dialogs enumerated")
	return ids, nil
}

// Subscribe starts gap-aware update delivery and returns the event stream
func (c *Client) Subscribe(ctx context.Context) (<-chan domain.Event, error) {
	api, err := c.getAPI()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.subscribed {
		c.mu.Unlock()
		return nil, fmt.Errorf("already subscribed")
	}
	c.subscribed = true
	c.events = make(chan domain.Event, c.buffer)
	events := c.events
	runCtx := c.runCtx
	c.mu.Unlock()

	self, err := c.client.Self(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get self: %w", err)
	}

	go func() {
		defer c.endStream()

		err := c.gaps.Run(runCtx, api, self.ID, updates.AuthOptions{
			OnStart: func(ctx context.Context) {
				c.logger.Info().Int64("user_id", self.ID).Msg("update stream started")
			},
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Warn().Err(err).Msg("update stream ended")
		}
	}()

	return events, nil
}

// endStream closes the event channel once, whichever of the stream or the connection ends first
func (c *Client) endStream() {
	c.mu.RLock()
	events := c.events
	c.mu.RUnlock()

	if events == nil {
		return
	}

	c.streamMu.Lock()
	defer c.streamMu.Unlock()
	if !c.streamClosed {
		c.streamClosed = true
		close(events)
	}
}

// emit delivers an event unless the stream has ended
func (c *Client) emit(event domain.Event) {
	c.mu.RLock()
	events, runCtx := c.events, c.runCtx
	c.mu.RUnlock()

	c.streamMu.RLock()
	defer c.streamMu.RUnlock()

	if c.streamClosed || events == nil {
		return
	}

	select {
	case events <- event:
	case <-runCtx.Done():
	}
}

// Download fetches the media to path
func (c *Client) Download(ctx context.Context, media *domain.Media, path string) error {
	api, err := c.getAPI()
	if err != nil {
		return err
	}

	loc, err := fileLocation(media)
	if err != nil {
		return err
	}

	return c.call(ctx, func() error {
		_, err := downloader.NewDownloader().Download(api, loc).ToPath(ctx, path)
		return err
	})
}

// Close ends the connection and the event stream
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	cancel := c.cancel
	runDone := c.runDone
	c.cancel = nil
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}

	c.logger.Info().Msg("disconnecting from Telegram")
	cancel()

	select {
	case <-runDone:
		c.logger.Debug().Msg("client stopped gracefully")
	case <-ctx.Done():
		c.logger.Warn().Msg("disconnect timeout reached while waiting for client shutdown")
		return ctx.Err()
	}

	return nil
}

// call applies the rate limit and retries FLOOD_WAIT errors after the requested pause
func (c *Client) call(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait cancelled: %w", err)
		}

		err := fn()
		wait, ok := tgerr.AsFloodWait(err)
		if !ok || attempt >= maxFloodRetries {
			return err
		}

		c.metrics.RecordAccountRateLimit()
		c.logger.Warn().
			Int("attempt", attempt+1).
			Dur("wait_duration", wait).
			Msg("flood wait detected, waiting before retry")

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// Ensure Client implements domain.Connection interface
var _ domain.Connection = (*Client)(nil)
