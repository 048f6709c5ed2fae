package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domainchat "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/domain/chat"
	domainuser "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/domain/user"
)

// Kind tags the notification template to use. The set is open:
// new kinds only need a template entry.
type Kind string

const (
	KindNewMessage Kind = "new_message"
	KindCartUpdate Kind = "cart_update"
)

// Outcome is the terminal state of one dispatch attempt. All
// outcomes are silent to the end user; the message itself is already
// durable by the time a dispatch runs.
type Outcome string

const (
	OutcomeDelivered       Outcome = "delivered"
	OutcomeSkippedNoTarget Outcome = "skipped_no_identity"
	OutcomeSkippedOptedOut Outcome = "skipped_opted_out"
	OutcomeFailed          Outcome = "failed"
)

// Channel delivers formatted text to an external identity.
type Channel interface {
	Send(ctx context.Context, chatID, text string) error
}

// Dispatcher performs best-effort external notification for inserted
// messages. Failures are logged and discarded; nothing here ever
// propagates back to the sender's send call.
type Dispatcher struct {
	Profiles    domainuser.ProfileRepository
	Preferences domainuser.PreferencesRepository
	Channel     Channel
	Logger      *slog.Logger
}

// Notify satisfies the chat service's fire-and-forget port.
func (d *Dispatcher) Notify(ctx context.Context, msg domainchat.Message) {
	d.Dispatch(ctx, msg)
}

// Dispatch resolves the receiver's external identity and preference
// flags, then attempts delivery. Returns the terminal outcome, which
// callers may use for logging or tests but must not act on.
func (d *Dispatcher) Dispatch(ctx context.Context, msg domainchat.Message) Outcome {
	receiver, err := d.Profiles.ByID(ctx, msg.ReceiverID)
	if err != nil {
		if !errors.Is(err, domainuser.ErrNotFound) {
			return d.failed(msg, fmt.Errorf("receiver lookup: %w", err))
		}
		return d.finish(msg, OutcomeSkippedNoTarget)
	}
	if receiver.TelegramChatID == "" {
		return d.finish(msg, OutcomeSkippedNoTarget)
	}

	prefs, err := d.Preferences.ByUserID(ctx, msg.ReceiverID)
	if err != nil {
		return d.failed(msg, fmt.Errorf("preferences lookup: %w", err))
	}
	if !prefs.PushChatMessages {
		return d.finish(msg, OutcomeSkippedOptedOut)
	}

	if d.Channel == nil {
		return d.finish(msg, OutcomeSkippedNoTarget)
	}
	text := d.render(ctx, KindNewMessage, msg)
	if err := d.Channel.Send(ctx, receiver.TelegramChatID, text); err != nil {
		return d.failed(msg, fmt.Errorf("channel send: %w", err))
	}
	return d.finish(msg, OutcomeDelivered)
}

// render formats the channel text for a notification kind. Sender
// name resolution is itself best-effort.
func (d *Dispatcher) render(ctx context.Context, kind Kind, msg domainchat.Message) string {
	senderName := msg.SenderID
	if sender, err := d.Profiles.ByID(ctx, msg.SenderID); err == nil && sender.DisplayName != "" {
		senderName = sender.DisplayName
	}
	switch kind {
	case KindNewMessage:
		body := msg.Body
		// Truncate on rune boundaries so a multi-byte character is never
		// cut in half.
		if runes := []rune(body); len(runes) > 120 {
			body = string(runes[:117]) + "..."
		}
		return fmt.Sprintf("New message from %s:\n%s", senderName, body)
	case KindCartUpdate:
		return fmt.Sprintf("%s updated an item in your cart", senderName)
	default:
		return fmt.Sprintf("New activity from %s", senderName)
	}
}

func (d *Dispatcher) finish(msg domainchat.Message, outcome Outcome) Outcome {
	if d.Logger != nil && outcome != OutcomeDelivered {
		d.Logger.Debug("notification dispatch skipped", "message_id", msg.ID, "receiver_id", msg.ReceiverID, "outcome", string(outcome))
	}
	return outcome
}

func (d *Dispatcher) failed(msg domainchat.Message, err error) Outcome {
	if d.Logger != nil {
		d.Logger.Warn("notification dispatch failed", "message_id", msg.ID, "receiver_id", msg.ReceiverID, "error", err)
	}
	return OutcomeFailed
}
