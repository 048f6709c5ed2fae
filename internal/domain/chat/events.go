package chat

import "time"

const MessageCreatedEventName = "chat.message.created"

// MessageCreated is emitted after a message has been durably stored.
// Consumers use it as a liveness hint (realtime fan-out) and as the
// trigger for out-of-band notification dispatch.
type MessageCreated struct {
	Message Message
	Time    time.Time
}

func (e MessageCreated) EventName() string {
	return MessageCreatedEventName
}

func (e MessageCreated) AggregateID() string {
	return e.Message.ID
}

func (e MessageCreated) OccurredAt() time.Time {
	return e.Time
}
