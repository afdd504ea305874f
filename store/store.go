// Package store holds the persistence boundary for finished runs. The
// engine only ever hands a sink its output artifacts (box score and
// play-by-play), so swapping the backing store never touches simulation
// code.
package store

import (
	"context"

	"github.com/hockeysim/hockeysim/sim"
)

// RunRecord identifies the run an artifact belongs to.
type RunRecord struct {
	RunID  string
	GameID string
	Seed   int64
	Status sim.RunStatus
}

// Sink consumes a run's output artifacts. Sequence numbers in the
// play-by-play are stable and gapless, so writes are idempotent per run.
type Sink interface {
	SaveBoxScore(ctx context.Context, run RunRecord, box sim.BoxScore) error
	SavePlayByPlay(ctx context.Context, run RunRecord, events []sim.Event) error
}

// NopSink discards everything. Used for offline runs and tests.
type NopSink struct{}

func (NopSink) SaveBoxScore(context.Context, RunRecord, sim.BoxScore) error   { return nil }
func (NopSink) SavePlayByPlay(context.Context, RunRecord, []sim.Event) error { return nil }
