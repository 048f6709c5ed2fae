package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"

	domainchat "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/domain/chat"
)

// eventEnvelope is the wire form of a chat event on the broker.
type eventEnvelope struct {
	Type    string       `json:"type"`
	Message eventMessage `json:"message"`
	Time    time.Time    `json:"time"`
}

type eventMessage struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Body       string    `json:"body"`
	ProductID  string    `json:"product_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Publisher emits chat events to a Kafka topic. Events are keyed by
// receiver id so one receiver's notifications stay ordered.
type Publisher struct {
	sync  sarama.SyncProducer
	topic string
}

func NewPublisher(brokers []string, topic string, cfg *sarama.Config) (*Publisher, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Producer.Return.Successes = true
	sync, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &Publisher{sync: sync, topic: topic}, nil
}

func (p *Publisher) PublishMessageCreated(ctx context.Context, event domainchat.MessageCreated) error {
	payload, err := json.Marshal(eventEnvelope{
		Type: event.EventName(),
		Message: eventMessage{
			ID:         event.Message.ID,
			SenderID:   event.Message.SenderID,
			ReceiverID: event.Message.ReceiverID,
			Body:       event.Message.Body,
			ProductID:  event.Message.ProductID,
			CreatedAt:  event.Message.CreatedAt,
		},
		Time: event.OccurredAt(),
	})
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.Message.ReceiverID),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event"), Value: []byte(event.EventName())},
		},
	}
	_, _, err = p.sync.SendMessage(msg)
	return err
}

func (p *Publisher) Close() error {
	if p.sync == nil {
		return nil
	}
	return p.sync.Close()
}
