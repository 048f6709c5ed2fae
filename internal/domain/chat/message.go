package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/domain/user"
)

var (
	ErrEmptyBody        = errors.New("chat: message body is required")
	ErrSenderRequired   = errors.New("chat: sender is required")
	ErrReceiverRequired = errors.New("chat: receiver is required")
	ErrSelfMessage      = errors.New("chat: sender and receiver must differ")
	ErrNotFound         = errors.New("chat: not found")
)

// Message is a single chat message between two marketplace users.
// Immutable once stored except for the read flag, which only ever
// moves from false to true.
type Message struct {
	ID         string
	SenderID   string
	ReceiverID string
	Body       string
	ProductID  string
	CreatedAt  time.Time
	IsRead     bool
}

// Conversation is the derived per-partner view shown in the inbox.
// It is never persisted; the aggregator recomputes it from messages.
type Conversation struct {
	Partner     user.Profile
	LastMessage Message
	UnreadCount int64
}

// NewMessageParams carries caller-supplied fields for an insert.
// ID and CreatedAt are assigned by the repository on insert.
type NewMessageParams struct {
	SenderID   string
	ReceiverID string
	Body       string
	ProductID  string
}

// Validate trims and checks the params before any store round-trip.
func (p *NewMessageParams) Validate() error {
	p.SenderID = strings.TrimSpace(p.SenderID)
	p.ReceiverID = strings.TrimSpace(p.ReceiverID)
	p.Body = strings.TrimSpace(p.Body)
	p.ProductID = strings.TrimSpace(p.ProductID)
	if p.SenderID == "" {
		return ErrSenderRequired
	}
	if p.ReceiverID == "" {
		return ErrReceiverRequired
	}
	if p.SenderID == p.ReceiverID {
		return ErrSelfMessage
	}
	if p.Body == "" {
		return ErrEmptyBody
	}
	return nil
}

// MessageRepository is the persistence port for the message log.
// CreatedAt is assigned at insert time by the implementation and is
// monotonically non-decreasing; it is the sole ordering key.
type MessageRepository interface {
	// Insert appends a new unread message and returns it with the
	// assigned id and timestamp.
	Insert(ctx context.Context, params NewMessageParams) (*Message, error)
	// Between returns every message exchanged between the two users,
	// both directions, ascending by created_at. A non-empty productID
	// narrows the result to that listing.
	Between(ctx context.Context, a, b, productID string) ([]Message, error)
	// Latest returns the most recent message between the two users,
	// or ErrNotFound when they never exchanged one.
	Latest(ctx context.Context, a, b string) (*Message, error)
	// DistinctReceivers lists users the given user has sent to.
	DistinctReceivers(ctx context.Context, senderID string) ([]string, error)
	// DistinctSenders lists users the given user has received from.
	DistinctSenders(ctx context.Context, receiverID string) ([]string, error)
	// MarkRead flips is_read on unread messages sent by senderID to
	// receiverID and reports how many rows changed. Idempotent.
	MarkRead(ctx context.Context, receiverID, senderID string) (int64, error)
	// CountUnread counts unread messages addressed to the user.
	CountUnread(ctx context.Context, receiverID string) (int64, error)
	// CountUnreadFrom counts unread messages from one specific sender.
	CountUnreadFrom(ctx context.Context, receiverID, senderID string) (int64, error)
}
