package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domainchat "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/domain/chat"
)

// MessageRepository stores messages in memory. Not suitable for production.
type MessageRepository struct {
	mu       sync.RWMutex
	messages []domainchat.Message
	lastAt   time.Time
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

func (r *MessageRepository) Insert(ctx context.Context, params domainchat.NewMessageParams) (*domainchat.Message, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	// Timestamps are assigned here, never by the caller, and are kept
	// strictly non-decreasing even when the wall clock steps back.
	now := time.Now().UTC()
	if !now.After(r.lastAt) {
		now = r.lastAt.Add(time.Microsecond)
	}
	r.lastAt = now

	msg := domainchat.Message{
		ID:         uuid.NewString(),
		SenderID:   params.SenderID,
		ReceiverID: params.ReceiverID,
		Body:       params.Body,
		ProductID:  params.ProductID,
		CreatedAt:  now,
		IsRead:     false,
	}
	r.messages = append(r.messages, msg)
	return &msg, nil
}

func (r *MessageRepository) Between(ctx context.Context, a, b, productID string) ([]domainchat.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domainchat.Message, 0)
	for _, m := range r.messages {
		if !betweenPair(m, a, b) {
			continue
		}
		if productID != "" && m.ProductID != productID {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MessageRepository) Latest(ctx context.Context, a, b string) (*domainchat.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *domainchat.Message
	for i := range r.messages {
		m := r.messages[i]
		if !betweenPair(m, a, b) {
			continue
		}
		if latest == nil || m.CreatedAt.After(latest.CreatedAt) {
			copied := m
			latest = &copied
		}
	}
	if latest == nil {
		return nil, domainchat.ErrNotFound
	}
	return latest, nil
}

func (r *MessageRepository) DistinctReceivers(ctx context.Context, senderID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return distinct(r.messages, func(m domainchat.Message) (string, bool) {
		return m.ReceiverID, m.SenderID == senderID
	}), nil
}

func (r *MessageRepository) DistinctSenders(ctx context.Context, receiverID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return distinct(r.messages, func(m domainchat.Message) (string, bool) {
		return m.SenderID, m.ReceiverID == receiverID
	}), nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var marked int64
	for i := range r.messages {
		m := &r.messages[i]
		if m.ReceiverID == receiverID && m.SenderID == senderID && !m.IsRead {
			m.IsRead = true
			marked++
		}
	}
	return marked, nil
}

func (r *MessageRepository) CountUnread(ctx context.Context, receiverID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, m := range r.messages {
		if m.ReceiverID == receiverID && !m.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *MessageRepository) CountUnreadFrom(ctx context.Context, receiverID, senderID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, m := range r.messages {
		if m.ReceiverID == receiverID && m.SenderID == senderID && !m.IsRead {
			count++
		}
	}
	return count, nil
}

func betweenPair(m domainchat.Message, a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

func distinct(messages []domainchat.Message, pick func(domainchat.Message) (string, bool)) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, m := range messages {
		id, ok := pick(m)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
