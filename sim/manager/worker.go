package manager

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hockeysim/hockeysim/sim"
	"github.com/hockeysim/hockeysim/store"
)

// runWorker drives one run to a terminal state. Everything inside a run is
// strictly sequential: generate, apply, aggregate, publish, pace, repeat.
// Pause and terminate are checked cooperatively before each step, and
// neither consumes RNG state, so control operations can never change the
// event sequence a seed produces.
func (m *Manager) runWorker(r *Run) {
	defer m.wg.Done()

	log := m.log.WithFields(logrus.Fields{"run": r.ID, "game": r.GameID})

	timeout := r.cfg.Timeout
	if timeout <= 0 {
		timeout = m.cfg.DefaultTimeout
	}
	deadline := time.Now().Add(timeout)

	defer func() {
		if cause := recover(); cause != nil {
			// An engine invariant violation is fatal to this run only.
			// Everything generated so far is preserved and flagged.
			log.WithField("cause", cause).Error("run failed")
			m.finalize(r, sim.StatusFailed, fmt.Sprintf("%v", cause))
		}
	}()

	for {
		proceed := r.awaitResume()
		if !proceed {
			log.Info("run terminated")
			m.finalize(r, sim.StatusTerminated, r.terminalReason())
			return
		}
		if time.Now().After(deadline) {
			log.Warn("run exceeded wall-clock budget")
			m.finalize(r, sim.StatusFailed, sim.CauseTimeout)
			return
		}

		delta, done := r.game.Step()
		if done {
			log.Info("run completed")
			m.finalize(r, sim.StatusCompleted, "")
			return
		}
		r.pace(delta)
	}
}

// awaitResume blocks while the run is paused. Returns false once the run
// has been terminated.
func (r *Run) awaitResume() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.paused && !r.terminated {
		r.cond.Wait()
	}
	return !r.terminated
}

func (r *Run) terminalReason() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reason == "" {
		return "terminated by operator"
	}
	return r.reason
}

// pace sleeps out the step's share of wall-clock time for the configured
// mode, scaled by the live speed multiplier. Interrupted immediately by
// terminate; pause takes effect at the next step boundary instead.
func (r *Run) pace(delta int64) {
	if delta <= 0 {
		return
	}
	r.mu.Lock()
	mode := r.cfg.Mode
	mult := r.speed
	if mode == sim.ModeAccelerated && r.cfg.SpeedMultiplier > 0 {
		mult *= r.cfg.SpeedMultiplier
	}
	r.mu.Unlock()

	if mode == sim.ModeInstant || mult <= 0 {
		return
	}
	d := time.Duration(float64(delta) * float64(time.Second) / mult)
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-r.wake:
	}
}

// finalize records the terminal status, emits the terminal stream frame
// for abnormal endings, flushes artifacts to the sink, closes the hub and
// releases the concurrency slot.
func (m *Manager) finalize(r *Run, status sim.RunStatus, cause string) {
	r.mu.Lock()
	r.status = status
	r.errCause = cause
	snap := r.game.Snapshot()
	r.snap = snap
	r.mu.Unlock()

	if status != sim.StatusCompleted {
		// Surface the failure on the stream as well as via status; a
		// consumer must never be left waiting on a silently dead run.
		r.Hub.Publish(sim.Event{
			Sequence:  snap.LastSequence + 1,
			Kind:      sim.KindRunError,
			Clock:     snap.Clock,
			HomeScore: snap.HomeScore,
			AwayScore: snap.AwayScore,
			Detail:    sim.RunErrorDetail{Status: status, Cause: cause},
		}, snap)
	}
	r.Hub.Close()

	m.persist(r, status)
	m.onRunFinished(r, status)
}

// persist flushes the run's artifacts. Sink errors are logged, not fatal:
// the run's own outcome is already decided.
func (m *Manager) persist(r *Run, status sim.RunStatus) {
	record := store.RunRecord{RunID: r.ID, GameID: r.GameID, Seed: r.Seed, Status: status}
	ctx, cancel := persistCtx()
	defer cancel()

	if r.cfg.GenerateBoxScore {
		if err := m.sink.SaveBoxScore(ctx, record, r.game.BoxScore()); err != nil {
			m.log.WithError(err).WithField("run", r.ID).Error("failed to persist box score")
		}
	}
	if r.cfg.GeneratePlayByPlay {
		if err := m.sink.SavePlayByPlay(ctx, record, r.game.Events()); err != nil {
			m.log.WithError(err).WithField("run", r.ID).Error("failed to persist play-by-play")
		}
	}
}
