package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	domainchat "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/domain/chat"
	domainuser "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/domain/user"
	"github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/infra/storage/memory"
)

type recordingChannel struct {
	err    error
	chatID string
	text   string
	calls  int
}

func (c *recordingChannel) Send(ctx context.Context, chatID, text string) error {
	c.calls++
	c.chatID = chatID
	c.text = text
	return c.err
}

func testMessage() domainchat.Message {
	return domainchat.Message{
		ID:         "m1",
		SenderID:   "alice",
		ReceiverID: "bob",
		Body:       "is the desk still for sale?",
	}
}

func newDispatcher(t *testing.T, channel Channel) (*Dispatcher, *memory.ProfileRepository, *memory.PreferencesRepository) {
	t.Helper()
	profiles := memory.NewProfileRepository()
	prefs := memory.NewPreferencesRepository()
	return &Dispatcher{Profiles: profiles, Preferences: prefs, Channel: channel}, profiles, prefs
}

func linkTelegram(t *testing.T, profiles *memory.ProfileRepository, userID, chatID string) {
	t.Helper()
	if err := profiles.Save(context.Background(), &domainuser.Profile{ID: userID, DisplayName: userID, TelegramChatID: chatID}); err != nil {
		t.Fatal(err)
	}
}

func TestDispatchDelivered(t *testing.T) {
	channel := &recordingChannel{}
	d, profiles, _ := newDispatcher(t, channel)
	linkTelegram(t, profiles, "bob", "tg-42")

	outcome := d.Dispatch(context.Background(), testMessage())
	if outcome != OutcomeDelivered {
		t.Fatalf("got %s, want %s", outcome, OutcomeDelivered)
	}
	if channel.chatID != "tg-42" {
		t.Fatalf("delivered to %s, want tg-42", channel.chatID)
	}
	if channel.text == "" {
		t.Fatal("expected rendered text")
	}
}

func TestDispatchSkippedWithoutIdentity(t *testing.T) {
	channel := &recordingChannel{}
	d, profiles, _ := newDispatcher(t, channel)

	// No profile row at all.
	if outcome := d.Dispatch(context.Background(), testMessage()); outcome != OutcomeSkippedNoTarget {
		t.Fatalf("missing profile: got %s", outcome)
	}

	// Profile exists but no linked bot id.
	if err := profiles.Save(context.Background(), &domainuser.Profile{ID: "bob"}); err != nil {
		t.Fatal(err)
	}
	if outcome := d.Dispatch(context.Background(), testMessage()); outcome != OutcomeSkippedNoTarget {
		t.Fatalf("unlinked profile: got %s", outcome)
	}
	if channel.calls != 0 {
		t.Fatalf("channel must not be called, got %d calls", channel.calls)
	}
}

func TestDispatchSkippedWhenOptedOut(t *testing.T) {
	channel := &recordingChannel{}
	d, profiles, prefs := newDispatcher(t, channel)
	linkTelegram(t, profiles, "bob", "tg-42")
	if err := prefs.Save(context.Background(), domainuser.NotificationPreferences{UserID: "bob", PushChatMessages: false}); err != nil {
		t.Fatal(err)
	}

	if outcome := d.Dispatch(context.Background(), testMessage()); outcome != OutcomeSkippedOptedOut {
		t.Fatalf("got %s, want %s", outcome, OutcomeSkippedOptedOut)
	}
	if channel.calls != 0 {
		t.Fatal("opted-out receiver must not be contacted")
	}
}

func TestDispatchFailedOnChannelError(t *testing.T) {
	channel := &recordingChannel{err: errors.New("rate limited")}
	d, profiles, _ := newDispatcher(t, channel)
	linkTelegram(t, profiles, "bob", "tg-42")

	if outcome := d.Dispatch(context.Background(), testMessage()); outcome != OutcomeFailed {
		t.Fatalf("got %s, want %s", outcome, OutcomeFailed)
	}
}

func TestRenderTruncatesLongBodies(t *testing.T) {
	d, profiles, _ := newDispatcher(t, &recordingChannel{})
	linkTelegram(t, profiles, "alice", "tg-1")

	msg := testMessage()
	for len(msg.Body) < 400 {
		msg.Body += " and another thing"
	}
	text := d.render(context.Background(), KindNewMessage, msg)
	if len(text) > 200 {
		t.Fatalf("rendered text too long: %d bytes", len(text))
	}
}

func TestRenderTruncatesOnRuneBoundary(t *testing.T) {
	d, profiles, _ := newDispatcher(t, &recordingChannel{})
	linkTelegram(t, profiles, "alice", "tg-1")

	msg := testMessage()
	msg.Body = strings.Repeat("привет мир ", 30)
	text := d.render(context.Background(), KindNewMessage, msg)
	if !utf8.ValidString(text) {
		t.Fatal("truncation produced invalid UTF-8")
	}
	if !strings.HasSuffix(text, "...") {
		t.Errorf("long body should end with ellipsis, got %q", text)
	}
}
