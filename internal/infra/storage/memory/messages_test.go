package memory

import (
	"context"
	"errors"
	"testing"

	domainchat "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/domain/chat"
)

func insert(t *testing.T, r *MessageRepository, sender, receiver, body, product string) *domainchat.Message {
	t.Helper()
	msg, err := r.Insert(context.Background(), domainchat.NewMessageParams{
		SenderID:   sender,
		ReceiverID: receiver,
		Body:       body,
		ProductID:  product,
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	return msg
}

func TestInsertTimestampsMonotonic(t *testing.T) {
	r := NewMessageRepository()
	var prev *domainchat.Message
	for i := 0; i < 50; i++ {
		msg := insert(t, r, "alice", "bob", "tick", "")
		if prev != nil && msg.CreatedAt.Before(prev.CreatedAt) {
			t.Fatalf("timestamp went backwards: %v after %v", msg.CreatedAt, prev.CreatedAt)
		}
		prev = msg
	}
}

func TestBetweenIsSymmetric(t *testing.T) {
	r := NewMessageRepository()
	ctx := context.Background()
	insert(t, r, "alice", "bob", "a to b", "")
	insert(t, r, "bob", "alice", "b to a", "")
	insert(t, r, "alice", "carol", "unrelated", "")

	forward, err := r.Between(ctx, "alice", "bob", "")
	if err != nil {
		t.Fatal(err)
	}
	backward, err := r.Between(ctx, "bob", "alice", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(forward) != 2 || len(backward) != 2 {
		t.Fatalf("got %d/%d messages, want 2/2", len(forward), len(backward))
	}
	for i := range forward {
		if forward[i].ID != backward[i].ID {
			t.Fatal("direction of the lookup must not change the result")
		}
	}
}

func TestLatestNotFound(t *testing.T) {
	r := NewMessageRepository()
	if _, err := r.Latest(context.Background(), "alice", "bob"); !errors.Is(err, domainchat.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestDistinctPartnersDeduplicated(t *testing.T) {
	r := NewMessageRepository()
	ctx := context.Background()
	insert(t, r, "alice", "bob", "one", "")
	insert(t, r, "alice", "bob", "two", "")
	insert(t, r, "alice", "carol", "three", "")

	receivers, err := r.DistinctReceivers(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(receivers) != 2 {
		t.Fatalf("got %v, want [bob carol]", receivers)
	}

	senders, err := r.DistinctSenders(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(senders) != 1 || senders[0] != "alice" {
		t.Fatalf("got %v, want [alice]", senders)
	}
}

func TestMarkReadOnlyTargetsOneDirection(t *testing.T) {
	r := NewMessageRepository()
	ctx := context.Background()
	insert(t, r, "alice", "bob", "to bob", "")
	insert(t, r, "bob", "alice", "to alice", "")
	insert(t, r, "carol", "bob", "from carol", "")

	marked, err := r.MarkRead(ctx, "bob", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if marked != 1 {
		t.Fatalf("marked %d, want 1", marked)
	}
	if n, _ := r.CountUnreadFrom(ctx, "bob", "carol"); n != 1 {
		t.Fatalf("carol's message affected: unread %d, want 1", n)
	}
	if n, _ := r.CountUnread(ctx, "alice"); n != 1 {
		t.Fatalf("alice's inbox affected: unread %d, want 1", n)
	}
}
