// Package broadcast fans authoritative table snapshots out to subscribers.
//
// Messages are enqueued per subscriber inside the table's critical section
// and drained by the transport outside of it, so each subscriber observes the
// table's mutations in order.
package broadcast

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Message kinds pushed to subscribers.
const (
	KindSnapshot    = "snapshot"
	KindGameSummary = "game_summary_notification"
)

// Message is one push-channel frame.
type Message struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

// sendBuffer bounds the per-subscriber queue; a subscriber that falls this
// far behind is dropped rather than allowed to stall the table.
const sendBuffer = 64

// Subscriber is one attached consumer of a table's snapshots.
type Subscriber struct {
	viewerID string
	ch       chan Message
	once     sync.Once
}

// ViewerID returns the identity snapshots are rendered for.
func (s *Subscriber) ViewerID() string { return s.viewerID }

// C is the ordered stream of messages for this subscriber. It is closed when
// the subscriber is detached or dropped.
func (s *Subscriber) C() <-chan Message { return s.ch }

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

// Broadcaster maintains the subscriber sets for all tables.
type Broadcaster struct {
	mu     sync.RWMutex
	tables map[string]map[*Subscriber]struct{}
	logger *log.Logger
}

// New creates a Broadcaster.
func New(logger *log.Logger) *Broadcaster {
	return &Broadcaster{
		tables: make(map[string]map[*Subscriber]struct{}),
		logger: logger.WithPrefix("broadcast"),
	}
}

// Subscribe attaches a viewer to a table's snapshot stream.
func (b *Broadcaster) Subscribe(tableID, viewerID string) *Subscriber {
	s := &Subscriber{
		viewerID: viewerID,
		ch:       make(chan Message, sendBuffer),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	subs, ok := b.tables[tableID]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		b.tables[tableID] = subs
	}
	subs[s] = struct{}{}
	return s
}

// Unsubscribe detaches a subscriber and closes its stream.
func (b *Broadcaster) Unsubscribe(tableID string, s *Subscriber) {
	b.mu.Lock()
	if subs, ok := b.tables[tableID]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(b.tables, tableID)
		}
	}
	b.mu.Unlock()
	s.close()
}

// Publish renders and enqueues one message per subscriber of the table. The
// render callback receives the subscriber's viewer identity so hole-card
// visibility is decided per recipient. Subscribers with a full queue are
// dropped.
func (b *Broadcaster) Publish(tableID, kind string, render func(viewerID string) any) {
	b.mu.RLock()
	subs := make([]*Subscriber, 0, len(b.tables[tableID]))
	for s := range b.tables[tableID] {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	var dropped []*Subscriber
	for _, s := range subs {
		msg := Message{Kind: kind, Data: render(s.viewerID)}
		select {
		case s.ch <- msg:
		default:
			b.logger.Warn("subscriber queue full, dropping", "table", tableID, "viewer", s.viewerID)
			dropped = append(dropped, s)
		}
	}

	for _, s := range dropped {
		b.Unsubscribe(tableID, s)
	}
}

// SubscriberCount returns the number of attached subscribers for a table.
func (b *Broadcaster) SubscriberCount(tableID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.tables[tableID])
}
