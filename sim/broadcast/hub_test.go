package broadcast

import (
	"testing"

	"github.com/hockeysim/hockeysim/sim"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(seq uint64, kind sim.Kind) (sim.Event, sim.Snapshot) {
	ev := sim.Event{Sequence: seq, Kind: kind}
	snap := sim.Snapshot{GameID: "g1", LastSequence: seq}
	return ev, snap
}

func TestHub_SubscriberGetsSnapshotFirst(t *testing.T) {
	// GIVEN a hub that has already published two events
	h := NewHub("g1", 8)
	h.Publish(testEvent(1, sim.KindPeriodStart))
	h.Publish(testEvent(2, sim.KindFaceoff))

	// WHEN a consumer subscribes
	sub := h.Subscribe(nil)
	defer sub.Cancel()

	// THEN the first frame is the catch-up snapshot at sequence 2
	msg := <-sub.C
	require.Equal(t, MessageSnapshot, msg.Type)
	require.NotNil(t, msg.Snapshot)
	assert.Equal(t, uint64(2), msg.Snapshot.LastSequence)
	assert.Equal(t, "g1", msg.Snapshot.GameID)
}

func TestHub_NoGapBetweenSnapshotAndEvents(t *testing.T) {
	// GIVEN a subscriber joining mid-stream
	h := NewHub("g1", 32)
	for seq := uint64(1); seq <= 5; seq++ {
		h.Publish(testEvent(seq, sim.KindShot))
	}
	sub := h.Subscribe(nil)
	defer sub.Cancel()
	for seq := uint64(6); seq <= 10; seq++ {
		h.Publish(testEvent(seq, sim.KindShot))
	}

	// THEN every event after the snapshot follows with no gap or duplicate
	first := <-sub.C
	require.Equal(t, MessageSnapshot, first.Type)
	next := first.Snapshot.LastSequence + 1
	for seq := next; seq <= 10; seq++ {
		msg := <-sub.C
		require.Equal(t, MessageEvent, msg.Type)
		assert.Equal(t, seq, msg.Event.Sequence)
	}
}

func TestHub_SlowSubscriberDisconnectedWithOverflow(t *testing.T) {
	// GIVEN a subscriber with a two-frame queue that never reads
	h := NewHub("g1", 2)
	sub := h.Subscribe(nil)

	// WHEN the stream outruns the queue (snapshot occupies one slot)
	for seq := uint64(1); seq <= 5; seq++ {
		h.Publish(testEvent(seq, sim.KindShot))
	}

	// THEN the subscriber is detached and its stream ends with overflow
	assert.Equal(t, 0, h.Subscribers())
	var last Message
	for msg := range sub.C {
		last = msg
	}
	assert.Equal(t, MessageOverflow, last.Type)
}

func TestHub_FastSubscribersUnaffectedBySlowOne(t *testing.T) {
	// GIVEN one subscriber that never reads and one that keeps up
	h := NewHub("g1", 2)
	slow := h.Subscribe(nil)
	_ = slow
	fast := h.Subscribe(nil)
	defer fast.Cancel()

	msg := <-fast.C
	require.Equal(t, MessageSnapshot, msg.Type)

	// WHEN the stream far outruns the slow consumer's queue
	for seq := uint64(1); seq <= 20; seq++ {
		h.Publish(testEvent(seq, sim.KindShot))
		msg := <-fast.C
		// THEN the keeping-up consumer still sees every event in order
		require.Equal(t, MessageEvent, msg.Type)
		assert.Equal(t, seq, msg.Event.Sequence)
	}
	assert.Equal(t, 1, h.Subscribers(), "only the fast subscriber should remain")
}

func TestHub_FilterPassesSelectedAndTerminalKinds(t *testing.T) {
	// GIVEN a goals-only subscription
	h := NewHub("g1", 32)
	sub := h.Subscribe(NewFilter(sim.KindGoal))
	defer sub.Cancel()

	h.Publish(testEvent(1, sim.KindShot))
	h.Publish(testEvent(2, sim.KindGoal))
	h.Publish(testEvent(3, sim.KindFaceoff))
	h.Publish(testEvent(4, sim.KindGameEnd))
	h.Close()

	// THEN only the goal and the terminal marker come through
	var kinds []sim.Kind
	for msg := range sub.C {
		if msg.Type == MessageEvent {
			kinds = append(kinds, msg.Event.Kind)
		}
	}
	require.Len(t, kinds, 2)
	assert.Equal(t, sim.KindGoal, kinds[0])
	assert.Equal(t, sim.KindGameEnd, kinds[1])
}

func TestHub_CloseDeliversEndFrame(t *testing.T) {
	h := NewHub("g1", 8)
	sub := h.Subscribe(nil)

	h.Publish(testEvent(1, sim.KindPeriodStart))
	h.Close()

	var last Message
	for msg := range sub.C {
		last = msg
	}
	assert.Equal(t, MessageEnd, last.Type)
}

func TestHub_SubscribeAfterCloseEndsImmediately(t *testing.T) {
	// GIVEN a finished stream
	h := NewHub("g1", 8)
	h.Publish(testEvent(7, sim.KindGameEnd))
	h.Close()

	// WHEN a late consumer subscribes
	sub := h.Subscribe(nil)

	// THEN it still receives the final snapshot, then end, then close
	msg := <-sub.C
	require.Equal(t, MessageSnapshot, msg.Type)
	assert.Equal(t, uint64(7), msg.Snapshot.LastSequence)

	msg = <-sub.C
	assert.Equal(t, MessageEnd, msg.Type)

	_, open := <-sub.C
	assert.False(t, open, "stream should be closed")
}

func TestHub_CancelIsIdempotent(t *testing.T) {
	h := NewHub("g1", 8)
	sub := h.Subscribe(nil)

	sub.Cancel()
	sub.Cancel()
	assert.Equal(t, 0, h.Subscribers())

	// Publishing after cancel must not panic or block.
	h.Publish(testEvent(1, sim.KindShot))
}

func TestHub_PublishAfterCloseIsNoOp(t *testing.T) {
	h := NewHub("g1", 8)
	h.Close()
	h.Publish(testEvent(1, sim.KindShot))
	assert.Equal(t, 0, h.Subscribers())
}
