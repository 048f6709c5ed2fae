package realtime

import (
	"testing"
	"time"

	domainchat "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/domain/chat"
)

func testMsg(id, sender, receiver string) domainchat.Message {
	return domainchat.Message{ID: id, SenderID: sender, ReceiverID: receiver, Body: "hi", CreatedAt: time.Now()}
}

func receiveOne(t *testing.T, sub *Subscription) domainchat.Message {
	t.Helper()
	select {
	case msg, ok := <-sub.Events():
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return domainchat.Message{}
}

func TestPublishReachesBothParticipants(t *testing.T) {
	hub := NewHub(4, nil)
	receiver := hub.Subscribe("bob")
	defer receiver.Close()
	sender := hub.Subscribe("alice")
	defer sender.Close()
	other := hub.Subscribe("carol")
	defer other.Close()

	hub.Publish(testMsg("m1", "alice", "bob"))

	if got := receiveOne(t, receiver); got.ID != "m1" {
		t.Fatalf("receiver got %s", got.ID)
	}
	if got := receiveOne(t, sender); got.ID != "m1" {
		t.Fatalf("sender echo got %s", got.ID)
	}
	select {
	case msg := <-other.Events():
		t.Fatalf("uninvolved user received %s", msg.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCloseIsIdempotentAndReleases(t *testing.T) {
	hub := NewHub(4, nil)
	sub := hub.Subscribe("bob")
	if hub.SubscriberCount("bob") != 1 {
		t.Fatal("expected one subscriber")
	}
	sub.Close()
	sub.Close()
	if hub.SubscriberCount("bob") != 0 {
		t.Fatal("close must release the subscription")
	}

	// Publishing after close must not panic or deliver.
	hub.Publish(testMsg("m1", "alice", "bob"))
	if _, ok := <-sub.Events(); ok {
		t.Fatal("closed subscription must not receive events")
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(1, nil)
	sub := hub.Subscribe("bob")
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		hub.Publish(testMsg("m1", "alice", "bob"))
		hub.Publish(testMsg("m2", "alice", "bob"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber buffer")
	}
	if got := receiveOne(t, sub); got.ID != "m1" {
		t.Fatalf("got %s, want the buffered event", got.ID)
	}
}

func TestMultipleSubscriptionsPerUser(t *testing.T) {
	hub := NewHub(4, nil)
	tab1 := hub.Subscribe("bob")
	defer tab1.Close()
	tab2 := hub.Subscribe("bob")
	defer tab2.Close()

	hub.Publish(testMsg("m1", "alice", "bob"))

	if got := receiveOne(t, tab1); got.ID != "m1" {
		t.Fatalf("tab1 got %s", got.ID)
	}
	if got := receiveOne(t, tab2); got.ID != "m1" {
		t.Fatalf("tab2 got %s", got.ID)
	}
}
