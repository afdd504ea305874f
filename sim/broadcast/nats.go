package broadcast

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/hockeysim/hockeysim/sim"
)

// NATSBridge republishes a run's event stream onto a NATS subject so
// consumers outside the process can follow the game. It implements
// sim.EventSink; publish failures are logged and dropped, never surfaced
// to the run; external transport health must not affect simulation
// progress.
type NATSBridge struct {
	conn    *nats.Conn
	subject string
	log     *logrus.Entry
}

// NewNATSBridge connects the bridge for one game. Events go to
// "game.<gameID>.events".
func NewNATSBridge(conn *nats.Conn, gameID string) *NATSBridge {
	return &NATSBridge{
		conn:    conn,
		subject: fmt.Sprintf("game.%s.events", gameID),
		log:     logrus.WithField("game", gameID),
	}
}

// Publish implements sim.EventSink.
func (b *NATSBridge) Publish(ev sim.Event, snap sim.Snapshot) {
	payload, err := json.Marshal(Message{Type: MessageEvent, Event: &ev, Snapshot: &snap})
	if err != nil {
		b.log.WithError(err).Warn("failed to encode event for bridge")
		return
	}
	if err := b.conn.Publish(b.subject, payload); err != nil {
		b.log.WithError(err).Warn("failed to publish event to bridge")
	}
}
