package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	domainchat "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/domain/chat"
)

// Broadcaster pushes a freshly inserted message to live subscribers.
type Broadcaster interface {
	Publish(msg domainchat.Message)
}

// EventPublisher hands the MessageCreated event to a broker for
// cross-instance consumers.
type EventPublisher interface {
	PublishMessageCreated(ctx context.Context, event domainchat.MessageCreated) error
}

// Notifier performs best-effort out-of-band delivery. It never
// returns an error; outcomes are logged by the implementation.
type Notifier interface {
	Notify(ctx context.Context, msg domainchat.Message)
}

const sideEffectTimeout = 10 * time.Second

// Service owns the message log operations: send, history, read-state
// transitions and unread counting. All collaborators are optional
// except the repository; nil side-effect ports are skipped.
type Service struct {
	Messages domainchat.MessageRepository
	Realtime Broadcaster
	Events   EventPublisher
	Notify   Notifier
	Logger   *slog.Logger
}

// Send validates and stores a message, then fans out side effects
// without letting any of them fail the send: the returned message is
// durable as soon as the repository insert succeeds.
func (s *Service) Send(ctx context.Context, params domainchat.NewMessageParams) (*domainchat.Message, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	msg, err := s.Messages.Insert(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}

	if s.Realtime != nil {
		s.Realtime.Publish(*msg)
	}
	event := domainchat.MessageCreated{Message: *msg, Time: msg.CreatedAt}
	if s.Events != nil {
		go s.publishEvent(event)
	}
	if s.Notify != nil {
		go s.dispatch(*msg)
	}
	return msg, nil
}

// History returns the full exchange between self and partner in
// chronological order, optionally narrowed to one product listing.
func (s *Service) History(ctx context.Context, selfID, partnerID, productID string) ([]domainchat.Message, error) {
	if selfID == "" {
		return nil, domainchat.ErrSenderRequired
	}
	if partnerID == "" {
		return nil, domainchat.ErrReceiverRequired
	}
	messages, err := s.Messages.Between(ctx, selfID, partnerID, productID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return messages, nil
}

// MarkRead flips every unread message from partner to self. The
// receiver-side predicate lives in the repository, so the caller can
// never touch another user's inbox or its own outgoing messages.
func (s *Service) MarkRead(ctx context.Context, selfID, partnerID string) (int64, error) {
	if selfID == "" {
		return 0, domainchat.ErrReceiverRequired
	}
	if partnerID == "" {
		return 0, domainchat.ErrSenderRequired
	}
	marked, err := s.Messages.MarkRead(ctx, selfID, partnerID)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	return marked, nil
}

// UnreadCount totals unread messages addressed to self across all
// partners.
func (s *Service) UnreadCount(ctx context.Context, selfID string) (int64, error) {
	if selfID == "" {
		return 0, domainchat.ErrReceiverRequired
	}
	count, err := s.Messages.CountUnread(ctx, selfID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

// publishEvent runs detached from the request context so a cancelled
// sender does not tear down the broker publish.
func (s *Service) publishEvent(event domainchat.MessageCreated) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()
	if err := s.Events.PublishMessageCreated(ctx, event); err != nil && s.Logger != nil {
		s.Logger.Error("publish message event failed", "message_id", event.Message.ID, "error", err)
	}
}

func (s *Service) dispatch(msg domainchat.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()
	s.Notify.Notify(ctx, msg)
}
