package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
)

func newTestPublisher(t *testing.T, producer sarama.AsyncProducer) *Publisher {
	t.Helper()
	return newPublisher(producer, PublisherConfig{
		TopicNewDialog:      "dialog.new",
		TopicMessageDeleted: "message.deleted",
		Logger:              zerolog.Nop(),
	})
}

func mockConfig() *sarama.Config {
	config := mocks.NewTestConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	return config
}

func TestNewPublisher_Validation(t *testing.T) {
	_, err := NewPublisher(PublisherConfig{TopicNewDialog: "a", TopicMessageDeleted: "b"})
	require.EqualError(t, err, "no kafka brokers specified")

	_, err = NewPublisher(PublisherConfig{Brokers: []string{"localhost:9092"}})
	require.EqualError(t, err, "kafka topics are required")
}

func TestPublisher_PublishNewDialog(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, mockConfig())
	observed := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	producer.ExpectInputWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "dialog.new" {
			return errors.New("wrong topic " + msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "alpha" {
			return errors.New("wrong key " + string(key))
		}
		return nil
	})

	p := newTestPublisher(t, producer)
	err := p.PublishNewDialog(context.Background(), domain.NewDialogEvent{
		Account:        "alpha",
		ConversationID: 42,
		Day:            "2024-05-01",
		ObservedAt:     observed,
	})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestPublisher_EnvelopeStructure(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, mockConfig())

	var captured []byte
	producer.ExpectInputWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		value, err := msg.Value.Encode()
		captured = value
		return err
	})

	p := newTestPublisher(t, producer)
	err := p.PublishDeletion(context.Background(), domain.DeletionEvent{
		Account:          "alpha",
		ConversationID:   -1001234,
		ConversationName: "News",
		MessageID:        7,
		HasMedia:         true,
		MediaKind:        "voice",
		ObservedAt:       time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, p.Close())

	var envelope struct {
		ID         string                `json:"id"`
		Type       string                `json:"type"`
		Account    string                `json:"account"`
		OccurredAt time.Time             `json:"occurred_at"`
		Payload    MessageDeletedPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(captured, &envelope))

	assert.NotEmpty(t, envelope.ID)
	assert.Equal(t, EventTypeMessageDeleted, envelope.Type)
	assert.Equal(t, "alpha", envelope.Account)
	assert.Equal(t, int64(-1001234), envelope.Payload.ConversationID)
	assert.Equal(t, 7, envelope.Payload.MessageID)
	assert.Equal(t, "voice", envelope.Payload.MediaKind)
	assert.Empty(t, envelope.Payload.ArchiveURL)
}

func TestPublisher_UniqueIDs(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, mockConfig())

	ids := make(map[string]bool)
	checker := func(msg *sarama.ProducerMessage) error {
		value, _ := msg.Value.Encode()
		var envelope Envelope
		if err := json.Unmarshal(value, &envelope); err != nil {
			return err
		}
		ids[envelope.ID] = true
		return nil
	}
	for i := 0; i < 3; i++ {
		producer.ExpectInputWithMessageCheckerFunctionAndSucceed(checker)
	}

	p := newTestPublisher(t, producer)
	for i := 0; i < 3; i++ {
		require.NoError(t, p.PublishNewDialog(context.Background(), domain.NewDialogEvent{
			Account:        "alpha",
			ConversationID: int64(i),
		}))
	}
	require.NoError(t, p.Close())

	assert.Len(t, ids, 3)
}

func TestPublisher_RequiresAccount(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, mockConfig())
	p := newTestPublisher(t, producer)

	err := p.PublishNewDialog(context.Background(), domain.NewDialogEvent{ConversationID: 1})
	assert.Error(t, err)
	require.NoError(t, p.Close())
}

func TestPublisher_ProduceErrorIsAsync(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, mockConfig())
	producer.ExpectInputAndFail(sarama.ErrOutOfBrokers)

	p := newTestPublisher(t, producer)
	require.NoError(t, p.PublishNewDialog(context.Background(), domain.NewDialogEvent{Account: "alpha"}))
	require.NoError(t, p.Close())
}

func TestPublisher_ClosedRejectsEvents(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, mockConfig())
	p := newTestPublisher(t, producer)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	err := p.PublishNewDialog(context.Background(), domain.NewDialogEvent{Account: "alpha"})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindTransport))
}

func TestErrorType(t *testing.T) {
	assert.Equal(t, "out_of_brokers", errorType(sarama.ErrOutOfBrokers))
	assert.Equal(t, "message_too_large", errorType(sarama.ErrMessageSizeTooLarge))
	assert.Equal(t, "produce", errorType(errors.New("boom")))
}
