package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/metrics"
)

// PublisherConfig holds configuration for the event publisher
type PublisherConfig struct {
	Brokers             []string
	TopicNewDialog      string
	TopicMessageDeleted string
	Logger              zerolog.Logger
	Metrics             *metrics.Metrics
}

// Publisher emits domain events to Kafka through an asynchronous producer.
// Events are keyed by account name so one account's events keep their order.
type Publisher struct {
	producer     sarama.AsyncProducer
	topicDialog  string
	topicDeleted string
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	now          func() time.Time

	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
	mu        sync.RWMutex
	closed    bool
}

// NewPublisher creates a Publisher backed by a new async producer
func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers specified")
	}
	if cfg.TopicNewDialog == "" || cfg.TopicMessageDeleted == "" {
		return nil, fmt.Errorf("kafka topics are required")
	}

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.Compression = sarama.CompressionSnappy

	// Idempotent mode requires acks from all replicas and a single in-flight request
	config.Producer.Idempotent = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Net.MaxOpenRequests = 1
	config.Producer.Retry.Max = 5
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.ClientID = "sentinel-service-producer"
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	p := newPublisher(producer, cfg)

	cfg.Logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic_new_dialog", cfg.TopicNewDialog).
		Str("topic_message_deleted", cfg.TopicMessageDeleted).
		Msg("Kafka publisher initialized")

	return p, nil
}

func newPublisher(producer sarama.AsyncProducer, cfg PublisherConfig) *Publisher {
	p := &Publisher{
		producer:     producer,
		topicDialog:  cfg.TopicNewDialog,
		topicDeleted: cfg.TopicMessageDeleted,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		now:          time.Now,
	}

	p.wg.Add(2)
	go p.handleSuccesses()
	go p.handleErrors()

	return p
}

// PublishNewDialog queues a dialog.new event
func (p *Publisher) PublishNewDialog(ctx context.Context, event domain.NewDialogEvent) error {
	return p.publish(ctx, p.topicDialog, EventTypeDialogNew, event.Account, event.ObservedAt, NewDialogPayload{
		ConversationID: event.ConversationID,
		Day:            event.Day,
	})
}

// PublishDeletion queues a message.deleted event
func (p *Publisher) PublishDeletion(ctx context.Context, event domain.DeletionEvent) error {
	return p.publish(ctx, p.topicDeleted, EventTypeMessageDeleted, event.Account, event.ObservedAt, MessageDeletedPayload{
		ConversationID:   event.ConversationID,
		ConversationName: event.ConversationName,
		MessageID:        event.MessageID,
		HasMedia:         event.HasMedia,
		MediaKind:        event.MediaKind,
		ArchiveURL:       event.ArchiveURL,
	})
}

func (p *Publisher) publish(ctx context.Context, topic, eventType, account string, occurredAt time.Time, payload any) error {
	if account == "" {
		return fmt.Errorf("account is required")
	}
	if occurredAt.IsZero() {
		occurredAt = p.now()
	}

	value, err := json.Marshal(Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		Account:    account,
		OccurredAt: occurredAt.UTC(),
		Payload:    payload,
	})
	if err != nil {
		return domain.E(domain.KindTransport, "publish", account, fmt.Errorf("failed to marshal %s event: %w", eventType, err))
	}

	msg := &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(account),
		Value:     sarama.ByteEncoder(value),
		Timestamp: occurredAt,
		Metadata:  p.now(),
	}

	// Holding the read lock keeps Close from closing Input under a pending send
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return domain.E(domain.KindTransport, "publish", account, fmt.Errorf("publisher is closed"))
	}

	select {
	case p.producer.Input() <- msg:
		p.logger.Debug().
			Str("topic", topic).
			Str("type", eventType).
			Str("account", account).
			Msg("Event queued for sending to Kafka")
		return nil
	case <-ctx.Done():
		return domain.E(domain.KindTransport, "publish", account, fmt.Errorf("context cancelled while sending event: %w", ctx.Err()))
	}
}

func (p *Publisher) handleSuccesses() {
	defer p.wg.Done()

	for msg := range p.producer.Successes() {
		if p.metrics != nil {
			p.metrics.RecordKafkaMessage(p.sinceQueued(msg))
		}
		p.logger.Debug().
			Str("topic", msg.Topic).
			Int32("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("Event sent to Kafka")
	}
}

func (p *Publisher) handleErrors() {
	defer p.wg.Done()

	for producerErr := range p.producer.Errors() {
		if p.metrics != nil {
			p.metrics.RecordKafkaError(errorType(producerErr.Err))
		}
		p.logger.Error().
			Err(producerErr.Err).
			Str("topic", producerErr.Msg.Topic).
			Interface("key", producerErr.Msg.Key).
			Msg("Failed to send event to Kafka")
	}
}

func (p *Publisher) sinceQueued(msg *sarama.ProducerMessage) float64 {
	queued, ok := msg.Metadata.(time.Time)
	if !ok {
		return 0
	}
	return p.now().Sub(queued).Seconds()
}

func errorType(err error) string {
	switch {
	case errors.Is(err, sarama.ErrMessageSizeTooLarge):
		return "message_too_large"
	case errors.Is(err, sarama.ErrOutOfBrokers):
		return "out_of_brokers"
	case errors.Is(err, sarama.ErrNotEnoughReplicas), errors.Is(err, sarama.ErrNotEnoughReplicasAfterAppend):
		return "not_enough_replicas"
	case errors.Is(err, sarama.ErrRequestTimedOut):
		return "timeout"
	default:
		return "produce"
	}
}

// Close flushes pending events and stops the publisher. It is idempotent.
func (p *Publisher) Close() error {
	return p.CloseWithTimeout(10 * time.Second)
}

// CloseWithTimeout is Close with a bound on waiting for the result handlers
func (p *Publisher) CloseWithTimeout(timeout time.Duration) error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		if err := p.producer.Close(); err != nil {
			p.closeErr = fmt.Errorf("producer close failed: %w", err)
		}

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(timeout):
			if p.closeErr == nil {
				p.closeErr = fmt.Errorf("close timeout after %s: handlers did not finish in time", timeout)
			}
		}

		if p.closeErr != nil {
			p.logger.Error().Err(p.closeErr).Msg("Kafka publisher closed with errors")
			return
		}
		p.logger.Info().Msg("Kafka publisher closed")
	})

	return p.closeErr
}
