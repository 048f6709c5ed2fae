package chat

import (
	"context"
	"errors"
	"testing"

	domainuser "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/domain/user"
	"github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/infra/storage/memory"
)

func seedProfiles(t *testing.T, repo domainuser.ProfileRepository, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := repo.Save(context.Background(), &domainuser.Profile{ID: id, DisplayName: "user " + id}); err != nil {
			t.Fatal(err)
		}
	}
}

func TestListConversationsCompleteness(t *testing.T) {
	messages := memory.NewMessageRepository()
	profiles := memory.NewProfileRepository()
	seedProfiles(t, profiles, "alice", "bob", "carol", "dave")
	s := &Service{Messages: messages}
	agg := &Aggregator{Messages: messages, Profiles: profiles}
	ctx := context.Background()

	// bob appears as receiver, carol as sender, dave both ways.
	mustSend(t, s, "alice", "bob", "hi bob")
	mustSend(t, s, "carol", "alice", "hi alice")
	mustSend(t, s, "alice", "dave", "hi dave")
	mustSend(t, s, "dave", "alice", "hi back")

	conversations, err := agg.ListConversations(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(conversations) != 3 {
		t.Fatalf("got %d conversations, want 3", len(conversations))
	}
	seen := map[string]int{}
	for _, conv := range conversations {
		seen[conv.Partner.ID]++
	}
	for _, partner := range []string{"bob", "carol", "dave"} {
		if seen[partner] != 1 {
			t.Fatalf("partner %s appears %d times, want exactly once", partner, seen[partner])
		}
	}
}

func TestListConversationsOrderingAndLastMessage(t *testing.T) {
	messages := memory.NewMessageRepository()
	profiles := memory.NewProfileRepository()
	seedProfiles(t, profiles, "alice", "bob", "carol")
	s := &Service{Messages: messages}
	agg := &Aggregator{Messages: messages, Profiles: profiles}

	mustSend(t, s, "alice", "bob", "older thread")
	mustSend(t, s, "alice", "carol", "first to carol")
	last := mustSend(t, s, "alice", "carol", "second to carol")

	conversations, err := agg.ListConversations(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(conversations) != 2 {
		t.Fatalf("got %d conversations, want 2", len(conversations))
	}
	if conversations[0].Partner.ID != "carol" {
		t.Fatalf("most recent conversation first: got %s", conversations[0].Partner.ID)
	}
	if conversations[0].LastMessage.ID != last.ID {
		t.Fatalf("last message: got %s, want %s", conversations[0].LastMessage.ID, last.ID)
	}
}

func TestListConversationsUnreadCounts(t *testing.T) {
	messages := memory.NewMessageRepository()
	profiles := memory.NewProfileRepository()
	seedProfiles(t, profiles, "alice", "bob")
	s := &Service{Messages: messages}
	agg := &Aggregator{Messages: messages, Profiles: profiles}
	ctx := context.Background()

	mustSend(t, s, "alice", "bob", "one")
	mustSend(t, s, "alice", "bob", "two")
	mustSend(t, s, "bob", "alice", "reply")

	// Bob sees two unread from alice; his own sent message does not count.
	conversations, err := agg.ListConversations(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(conversations) != 1 || conversations[0].UnreadCount != 2 {
		t.Fatalf("bob inbox: %+v", conversations)
	}

	if _, err := s.MarkRead(ctx, "bob", "alice"); err != nil {
		t.Fatal(err)
	}
	conversations, _ = agg.ListConversations(ctx, "bob")
	if conversations[0].UnreadCount != 0 {
		t.Fatalf("unread after mark read: got %d, want 0", conversations[0].UnreadCount)
	}

	// Alice's view was never affected by bob's mark-read.
	aliceView, _ := agg.ListConversations(ctx, "alice")
	if len(aliceView) != 1 || aliceView[0].UnreadCount != 1 {
		t.Fatalf("alice inbox: %+v", aliceView)
	}
}

type erroringProfiles struct{}

func (erroringProfiles) ByID(ctx context.Context, id string) (*domainuser.Profile, error) {
	return nil, errors.New("profile store down")
}

func (erroringProfiles) Save(ctx context.Context, profile *domainuser.Profile) error {
	return errors.New("profile store down")
}

func TestListConversationsToleratesProfileFailures(t *testing.T) {
	messages := memory.NewMessageRepository()
	s := &Service{Messages: messages}
	agg := &Aggregator{Messages: messages, Profiles: erroringProfiles{}}

	mustSend(t, s, "alice", "bob", "hello")

	conversations, err := agg.ListConversations(context.Background(), "alice")
	if err != nil {
		t.Fatalf("one bad profile lookup must not fail the list: %v", err)
	}
	if len(conversations) != 1 {
		t.Fatalf("got %d conversations, want 1", len(conversations))
	}
	if conversations[0].Partner.ID != "bob" {
		t.Fatalf("expected bare-id fallback profile, got %+v", conversations[0].Partner)
	}
}

func TestListConversationsOfflineCatchUp(t *testing.T) {
	// A receiver with no live subscription still sees new messages on
	// the next aggregation.
	messages := memory.NewMessageRepository()
	profiles := memory.NewProfileRepository()
	seedProfiles(t, profiles, "alice", "bob")
	s := &Service{Messages: messages}
	agg := &Aggregator{Messages: messages, Profiles: profiles}
	ctx := context.Background()

	before, err := agg.ListConversations(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(before) != 0 {
		t.Fatalf("expected empty inbox, got %d", len(before))
	}

	sent := mustSend(t, s, "alice", "bob", "you around?")

	after, err := agg.ListConversations(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != 1 || after[0].LastMessage.ID != sent.ID || after[0].UnreadCount != 1 {
		t.Fatalf("offline catch-up failed: %+v", after)
	}
}
