package broadcast

import (
	"fmt"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroadcaster() *Broadcaster {
	return New(log.New(io.Discard))
}

func drain(s *Subscriber, n int) []Message {
	out := make([]Message, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, <-s.C())
	}
	return out
}

func TestPublishDeliversInOrder(t *testing.T) {
	b := newTestBroadcaster()
	sub := b.Subscribe("t1", "alice")
	defer b.Unsubscribe("t1", sub)

	for i := 0; i < 5; i++ {
		i := i
		b.Publish("t1", KindSnapshot, func(string) any { return i })
	}

	msgs := drain(sub, 5)
	for i, msg := range msgs {
		assert.Equal(t, KindSnapshot, msg.Kind)
		assert.Equal(t, i, msg.Data)
	}
}

func TestPublishRendersPerViewer(t *testing.T) {
	b := newTestBroadcaster()
	alice := b.Subscribe("t1", "alice")
	bob := b.Subscribe("t1", "bob")
	defer b.Unsubscribe("t1", alice)
	defer b.Unsubscribe("t1", bob)

	b.Publish("t1", KindSnapshot, func(viewerID string) any {
		return fmt.Sprintf("view for %s", viewerID)
	})

	assert.Equal(t, "view for alice", (<-alice.C()).Data)
	assert.Equal(t, "view for bob", (<-bob.C()).Data)
}

func TestPublishScopedToTable(t *testing.T) {
	b := newTestBroadcaster()
	s1 := b.Subscribe("t1", "alice")
	s2 := b.Subscribe("t2", "alice")
	defer b.Unsubscribe("t1", s1)
	defer b.Unsubscribe("t2", s2)

	b.Publish("t1", KindSnapshot, func(string) any { return "only t1" })

	assert.Equal(t, "only t1", (<-s1.C()).Data)
	select {
	case msg := <-s2.C():
		t.Fatalf("unexpected message on t2 subscriber: %+v", msg)
	default:
	}
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	b := newTestBroadcaster()
	sub := b.Subscribe("t1", "alice")

	// Never drained: overflow the queue by one.
	for i := 0; i <= sendBuffer; i++ {
		b.Publish("t1", KindSnapshot, func(string) any { return i })
	}

	assert.Equal(t, 0, b.SubscriberCount("t1"))

	// The channel is closed after the buffered backlog.
	got := 0
	for range sub.C() {
		got++
	}
	assert.Equal(t, sendBuffer, got)
}

func TestUnsubscribeClosesStream(t *testing.T) {
	b := newTestBroadcaster()
	sub := b.Subscribe("t1", "alice")
	require.Equal(t, 1, b.SubscriberCount("t1"))

	b.Unsubscribe("t1", sub)
	assert.Equal(t, 0, b.SubscriberCount("t1"))

	_, ok := <-sub.C()
	assert.False(t, ok)

	// Idempotent.
	b.Unsubscribe("t1", sub)
}
