package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/IBM/sarama"

	domainchat "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/domain/chat"
)

// Notifier re-drives the notification dispatcher from broker events.
type Notifier interface {
	Notify(ctx context.Context, msg domainchat.Message)
}

// NotifyConsumer consumes chat events and hands message-created
// events to the dispatcher. Dispatch is best-effort, so offsets are
// committed regardless of the outcome: the broker gives each event
// at-least-once to some instance, the Telegram hop stays lossy by
// contract.
type NotifyConsumer struct {
	group    sarama.ConsumerGroup
	topic    string
	notifier Notifier
	logger   *slog.Logger
}

func NewNotifyConsumer(brokers []string, groupID, topic string, cfg *sarama.Config, notifier Notifier, logger *slog.Logger) (*NotifyConsumer, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Version = sarama.V2_5_0_0
	g, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}
	return &NotifyConsumer{group: g, topic: topic, notifier: notifier, logger: logger}, nil
}

func (c *NotifyConsumer) Run(ctx context.Context) error {
	handler := notifyGroupHandler{notifier: c.notifier, logger: c.logger}
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, handler); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *NotifyConsumer) Close() error {
	return c.group.Close()
}

type notifyGroupHandler struct {
	notifier Notifier
	logger   *slog.Logger
}

func (h notifyGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h notifyGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h notifyGroupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for record := range claim.Messages() {
		h.handle(sess.Context(), record)
		sess.MarkMessage(record, "")
	}
	return nil
}

func (h notifyGroupHandler) handle(ctx context.Context, record *sarama.ConsumerMessage) {
	var envelope eventEnvelope
	if err := json.Unmarshal(record.Value, &envelope); err != nil {
		if h.logger != nil {
			h.logger.Warn("chat event decode failed", "topic", record.Topic, "offset", record.Offset, "error", err)
		}
		return
	}
	if envelope.Type != domainchat.MessageCreatedEventName {
		return
	}
	if h.notifier == nil {
		return
	}
	h.notifier.Notify(ctx, domainchat.Message{
		ID:         envelope.Message.ID,
		SenderID:   envelope.Message.SenderID,
		ReceiverID: envelope.Message.ReceiverID,
		Body:       envelope.Message.Body,
		ProductID:  envelope.Message.ProductID,
		CreatedAt:  envelope.Message.CreatedAt,
	})
}
