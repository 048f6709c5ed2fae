package realtime

import (
	"log/slog"
	"sync"

	domainchat "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/domain/chat"
)

const defaultBuffer = 16

// Hub fans out inserted messages to live subscriptions. It is a
// liveness hint, not a durable log: a subscriber that falls behind
// has events dropped and must resynchronize by refetching.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	logger *slog.Logger
}

func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Subscription is one user's live feed. Close is idempotent and must
// be called when the consumer goes away, or the channel leaks for the
// process lifetime.
type Subscription struct {
	hub    *Hub
	userID string
	events chan domainchat.Message
	once   sync.Once
}

// Events yields inserted messages involving the subscribed user.
// The channel is closed by Close.
func (s *Subscription) Events() <-chan domainchat.Message {
	return s.events
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.events)
	})
}

// Subscribe registers a live feed for the user.
func (h *Hub) Subscribe(userID string) *Subscription {
	sub := &Subscription{
		hub:    h,
		userID: userID,
		events: make(chan domainchat.Message, h.buffer),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[userID] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Publish delivers the message to both participants' subscriptions.
// Sender-side echo is deliberate: it keeps an open sender view in
// sync without relying on optimistic local state.
func (h *Hub) Publish(msg domainchat.Message) {
	// Sends happen under the read lock: Close removes the subscription
	// under the write lock before closing its channel, so a send can
	// never hit a closed channel. Sends are non-blocking, so holding
	// the lock is cheap.
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := make(map[*Subscription]struct{})
	for _, id := range []string{msg.ReceiverID, msg.SenderID} {
		for sub := range h.subs[id] {
			if _, dup := delivered[sub]; dup {
				continue
			}
			delivered[sub] = struct{}{}
			select {
			case sub.events <- msg:
			default:
				if h.logger != nil {
					h.logger.Debug("realtime subscriber lagging, event dropped", "user_id", sub.userID, "message_id", msg.ID)
				}
			}
		}
	}
}

// SubscriberCount reports live subscriptions for a user.
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[sub.userID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.userID)
		}
	}
}
