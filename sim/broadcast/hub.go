// Package broadcast fans a run's ordered event stream out to any number of
// concurrent subscribers without ever blocking the simulation. Each
// subscriber owns a bounded queue; one that cannot keep up is disconnected
// with a terminal notice rather than allowed to slow the run's worker.
package broadcast

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/hockeysim/hockeysim/sim"
)

// MessageType tags the frames a subscriber receives.
type MessageType string

const (
	// MessageSnapshot is the catch-up frame delivered once on subscribe.
	MessageSnapshot MessageType = "snapshot"
	// MessageEvent carries one live event plus the resulting game state.
	MessageEvent MessageType = "event"
	// MessageOverflow is the terminal frame for a disconnected slow consumer.
	MessageOverflow MessageType = "overflow"
	// MessageEnd marks a cleanly closed stream (run reached terminal state).
	MessageEnd MessageType = "end"
)

// Message is one frame on a subscription stream.
type Message struct {
	Type     MessageType   `json:"type"`
	Event    *sim.Event    `json:"event,omitempty"`
	Snapshot *sim.Snapshot `json:"snapshot,omitempty"`
}

// Filter selects event kinds. A nil or empty filter passes everything.
type Filter map[sim.Kind]bool

// NewFilter builds a Filter from kind names.
func NewFilter(kinds ...sim.Kind) Filter {
	if len(kinds) == 0 {
		return nil
	}
	f := make(Filter, len(kinds))
	for _, k := range kinds {
		f[k] = true
	}
	return f
}

func (f Filter) pass(k sim.Kind) bool {
	if len(f) == 0 {
		return true
	}
	// Terminal frames always pass so a filtered stream still ends.
	if k == sim.KindGameEnd || k == sim.KindRunError {
		return true
	}
	return f[k]
}

// Subscription is one consumer's handle on a run's stream. Receive until C
// is closed; the final frame before close is MessageEnd or MessageOverflow.
type Subscription struct {
	C      <-chan Message
	ch     chan Message
	filter Filter
	hub    *Hub
	closed bool
}

// Cancel detaches the subscription. Safe to call more than once and
// concurrently with publishing.
func (s *Subscription) Cancel() {
	s.hub.unsubscribe(s)
}

// DefaultQueueDepth bounds a subscriber's unread backlog. A full game
// produces a few hundred events, so a keeping-up consumer never comes
// close; only a stalled one trips the overflow disconnect.
const DefaultQueueDepth = 256

// Hub is the per-run publish/subscribe fan-out. Publish is called only by
// the run's single worker; Subscribe and Cancel may race with it from any
// goroutine, so the subscriber registry is mutex-guarded.
type Hub struct {
	gameID string
	depth  int

	mu     sync.Mutex
	subs   map[*Subscription]bool
	snap   sim.Snapshot
	closed bool

	log *logrus.Entry
}

// NewHub creates a hub for one run.
func NewHub(gameID string, queueDepth int) *Hub {
	if queueDepth <= 0 {
		queueDepth = DefaultQueueDepth
	}
	return &Hub{
		gameID: gameID,
		depth:  queueDepth,
		subs:   make(map[*Subscription]bool),
		log:    logrus.WithField("game", gameID),
	}
}

// Publish delivers one event to all current subscribers in sequence order
// and records the snapshot for catch-up. Never blocks: a subscriber whose
// queue is full is disconnected with an overflow notice. Implements
// sim.EventSink.
func (h *Hub) Publish(ev sim.Event, snap sim.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.snap = snap

	msg := Message{Type: MessageEvent, Event: &ev, Snapshot: &snap}
	for s := range h.subs {
		if !s.filter.pass(ev.Kind) {
			continue
		}
		select {
		case s.ch <- msg:
		default:
			h.dropLocked(s)
		}
	}
}

// Subscribe attaches a new consumer. The first frame on the stream is a
// catch-up snapshot of the game state at subscribe time; every later frame
// is a live event with a sequence number strictly greater than the
// snapshot's, with no gap or duplicate.
func (h *Hub) Subscribe(filter Filter) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Message, h.depth)
	s := &Subscription{C: ch, ch: ch, filter: filter, hub: h}

	snap := h.snap
	snap.GameID = h.gameID
	ch <- Message{Type: MessageSnapshot, Snapshot: &snap}

	if h.closed {
		// Stream already over: deliver the snapshot and end immediately.
		ch <- Message{Type: MessageEnd, Snapshot: &snap}
		close(ch)
		s.closed = true
		return s
	}
	h.subs[s] = true
	return s
}

// Close ends the stream for all subscribers with a final end frame.
// Called once by the run's worker after the terminal event is published.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	snap := h.snap
	for s := range h.subs {
		select {
		case s.ch <- Message{Type: MessageEnd, Snapshot: &snap}:
		default:
		}
		close(s.ch)
		s.closed = true
		delete(h.subs, s)
	}
}

// Subscribers reports the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) unsubscribe(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.subs[s] {
		return
	}
	delete(h.subs, s)
	close(s.ch)
	s.closed = true
}

// dropLocked disconnects a subscriber that fell behind. The overflow
// notice replaces the oldest queued frame so the consumer can observe why
// its stream ended even with a full queue.
func (h *Hub) dropLocked(s *Subscription) {
	delete(h.subs, s)
	// Make room for the terminal frame.
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- Message{Type: MessageOverflow}:
	default:
	}
	close(s.ch)
	s.closed = true
	h.log.Warn("dropped slow subscriber")
}
