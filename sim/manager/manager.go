// Package manager owns the lifecycle of simulation runs: admission
// control, concurrency limiting, cooperative pause/resume/terminate, and
// status reporting. One worker goroutine drives each active run; the
// manager itself only touches the registry, so a misbehaving run can never
// take the process down with it.
package manager

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/hockeysim/hockeysim/sim"
	"github.com/hockeysim/hockeysim/sim/broadcast"
	"github.com/hockeysim/hockeysim/store"
)

// Config tunes the manager.
type Config struct {
	// MaxConcurrentGames is the fixed worker budget.
	MaxConcurrentGames int
	// QueueCapacity bounds the FIFO admission queue. Zero means requests
	// beyond the budget are rejected outright.
	QueueCapacity int
	// DefaultTimeout is each run's wall-clock budget when its config
	// carries none.
	DefaultTimeout time.Duration
	// SubscriberQueueDepth is passed through to each run's hub.
	SubscriberQueueDepth int
	// SinkFactory, when set, builds one extra sink per admitted run, on
	// top of the run's hub. Used to bridge streams onto external
	// transports such as NATS.
	SinkFactory func(gameID string) sim.EventSink
}

// DefaultConfig returns the serving defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentGames:   4,
		QueueCapacity:        32,
		DefaultTimeout:       2 * time.Hour,
		SubscriberQueueDepth: broadcast.DefaultQueueDepth,
	}
}

// StatusReport is the snapshot-consistent answer to a status query.
type StatusReport struct {
	RunID     string        `json:"run_id"`
	GameID    string        `json:"game_id"`
	Status    sim.RunStatus `json:"status"`
	Seed      int64         `json:"seed"`
	StartedAt time.Time     `json:"started_at,omitempty"`
	Snapshot  sim.Snapshot  `json:"snapshot"`
	Error     string        `json:"error,omitempty"`
}

// Run is the manager's handle on one simulation. Control state lives
// behind its own mutex so status reads never contend with the registry.
type Run struct {
	ID     string
	GameID string
	Seed   int64
	Hub    *broadcast.Hub

	cfg  sim.Config
	game *sim.Game

	mu         sync.Mutex
	cond       *sync.Cond
	status     sim.RunStatus
	paused     bool
	terminated bool
	reason     string
	speed      float64
	startedAt  time.Time
	snap       sim.Snapshot
	errCause   string

	// wake interrupts a pacing sleep when the run is terminated.
	wake     chan struct{}
	wakeOnce sync.Once
}

func (r *Run) report() StatusReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return StatusReport{
		RunID:     r.ID,
		GameID:    r.GameID,
		Status:    r.status,
		Seed:      r.Seed,
		StartedAt: r.startedAt,
		Snapshot:  r.snap,
		Error:     r.errCause,
	}
}

// Manager is the run registry and admission controller. The registry is
// single-writer: every mutation happens under mu, and all cross-run state
// lives here or in each hub's own guarded subscriber set.
type Manager struct {
	cfg     Config
	sink    store.Sink
	metrics *Metrics
	log     *logrus.Entry

	mu      sync.Mutex
	runs    map[string]*Run // by run ID, terminal runs included
	byGame  map[string]*Run // active run per game ID
	queue   []*Run          // FIFO, admitted but not yet started
	running int
	closed  bool

	wg sync.WaitGroup
}

// New builds a manager. A nil sink falls back to store.NopSink.
func New(cfg Config, sink store.Sink, reg prometheus.Registerer) *Manager {
	if cfg.MaxConcurrentGames <= 0 {
		cfg.MaxConcurrentGames = 1
	}
	if sink == nil {
		sink = store.NopSink{}
	}
	return &Manager{
		cfg:     cfg,
		sink:    sink,
		metrics: NewMetrics(reg),
		log:     logrus.WithField("component", "manager"),
		runs:    make(map[string]*Run),
		byGame:  make(map[string]*Run),
	}
}

// Start admits a new run for the game. It fails with a *sim.ValidationError
// on malformed config or roster (no state change), sim.ErrConflict if the
// game already has an active run, and sim.ErrQueueFull when the budget and
// queue are both exhausted. On success the run is either running or queued
// FIFO behind earlier admissions.
func (m *Manager) Start(roster *sim.RosterSnapshot, cfg sim.Config, seed int64, opts ...sim.GameOption) (*Run, error) {
	// Build (and thereby validate) the game before touching the registry,
	// so rejected requests leave no trace.
	game, err := sim.NewGame(roster, cfg, seed, opts...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if active, ok := m.byGame[roster.GameID]; ok && active != nil {
		return nil, sim.ErrConflict
	}

	r := &Run{
		ID:     uuid.NewString(),
		GameID: roster.GameID,
		Seed:   seed,
		Hub:    broadcast.NewHub(roster.GameID, m.cfg.SubscriberQueueDepth),
		cfg:    cfg,
		game:   game,
		status: sim.StatusQueued,
		speed:  1,
		snap:   game.Snapshot(),
		wake:   make(chan struct{}),
	}
	r.cond = sync.NewCond(&r.mu)
	game.AttachSink(r.Hub)
	game.AttachSink(runProgress{r, m.metrics})
	if m.cfg.SinkFactory != nil {
		if extra := m.cfg.SinkFactory(roster.GameID); extra != nil {
			game.AttachSink(extra)
		}
	}

	switch {
	case m.running < m.cfg.MaxConcurrentGames:
		m.startLocked(r)
	case len(m.queue) < m.cfg.QueueCapacity:
		m.queue = append(m.queue, r)
		m.metrics.QueuedRuns.Set(float64(len(m.queue)))
	default:
		return nil, sim.ErrQueueFull
	}

	m.runs[r.ID] = r
	m.byGame[r.GameID] = r
	m.log.WithFields(logrus.Fields{"run": r.ID, "game": r.GameID, "seed": seed}).Info("run admitted")
	return r, nil
}

// startLocked claims a slot and launches the worker. Caller holds m.mu.
func (m *Manager) startLocked(r *Run) {
	m.running++
	m.metrics.ActiveRuns.Set(float64(m.running))
	r.mu.Lock()
	r.status = sim.StatusRunning
	r.startedAt = time.Now()
	r.mu.Unlock()

	m.wg.Add(1)
	go m.runWorker(r)
}

// Status reports the latest known state of a run, including partial
// progress of a live one.
func (m *Manager) Status(runID string) (StatusReport, error) {
	m.mu.Lock()
	r, ok := m.runs[runID]
	m.mu.Unlock()
	if !ok {
		return StatusReport{}, sim.ErrNotFound
	}
	return r.report(), nil
}

// Pause suspends a running run at its next step boundary.
func (m *Manager) Pause(runID string) error {
	return m.control(runID, "pause", func(r *Run) error {
		if r.status != sim.StatusRunning {
			return &sim.InvalidStateError{Op: "pause", Status: r.status}
		}
		r.paused = true
		r.status = sim.StatusPaused
		return nil
	})
}

// Resume continues a paused run.
func (m *Manager) Resume(runID string) error {
	return m.control(runID, "resume", func(r *Run) error {
		if r.status != sim.StatusPaused {
			return &sim.InvalidStateError{Op: "resume", Status: r.status}
		}
		r.paused = false
		r.status = sim.StatusRunning
		r.cond.Broadcast()
		return nil
	})
}

// SetSpeed adjusts a live run's pacing multiplier. Takes effect from the
// next step; has no effect on instant-mode runs and never touches RNG
// state, so the event sequence is unchanged.
func (m *Manager) SetSpeed(runID string, multiplier float64) error {
	if multiplier <= 0 {
		return &sim.ValidationError{Field: "speed", Reason: "must be > 0"}
	}
	return m.control(runID, "set speed", func(r *Run) error {
		if r.status.Terminal() {
			return &sim.InvalidStateError{Op: "set speed", Status: r.status}
		}
		r.speed = multiplier
		return nil
	})
}

// Terminate cancels a run at its next checked point. Events already
// applied are never rolled back; the partial box score is flushed. A run
// still waiting in the queue is terminated in place and its queue position
// given up.
func (m *Manager) Terminate(runID, reason string) error {
	m.mu.Lock()
	r, ok := m.runs[runID]
	m.mu.Unlock()
	if !ok {
		return sim.ErrNotFound
	}

	r.mu.Lock()
	if r.status.Terminal() {
		status := r.status
		r.mu.Unlock()
		return &sim.InvalidStateError{Op: "terminate", Status: status}
	}
	wasQueued := r.status == sim.StatusQueued
	r.terminated = true
	r.reason = reason
	r.paused = false
	if wasQueued {
		r.status = sim.StatusTerminated
		r.errCause = reason
	}
	r.cond.Broadcast()
	r.wakeOnce.Do(func() { close(r.wake) })
	r.mu.Unlock()

	if wasQueued {
		m.mu.Lock()
		delete(m.byGame, r.GameID)
		for i, q := range m.queue {
			if q == r {
				m.queue = append(m.queue[:i], m.queue[i+1:]...)
				break
			}
		}
		m.metrics.QueuedRuns.Set(float64(len(m.queue)))
		m.metrics.RunsFinished.WithLabelValues(string(sim.StatusTerminated)).Inc()
		m.mu.Unlock()
		r.Hub.Close()
	}
	m.log.WithFields(logrus.Fields{"run": r.ID, "op": "terminate"}).Info("control applied")
	return nil
}

func (m *Manager) control(runID, op string, f func(*Run) error) error {
	m.mu.Lock()
	r, ok := m.runs[runID]
	m.mu.Unlock()
	if !ok {
		return sim.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := f(r); err != nil {
		return err
	}
	m.log.WithFields(logrus.Fields{"run": r.ID, "op": op}).Info("control applied")
	return nil
}

// SubscribeGame attaches a stream subscriber to the game's active run.
func (m *Manager) SubscribeGame(gameID string, filter broadcast.Filter) (*broadcast.Subscription, error) {
	m.mu.Lock()
	r, ok := m.byGame[gameID]
	m.mu.Unlock()
	if !ok {
		return nil, sim.ErrNotFound
	}
	return r.Hub.Subscribe(filter), nil
}

// SubscribeRun attaches a stream subscriber to a specific run, which may
// already be terminal (the subscriber then receives snapshot plus end).
func (m *Manager) SubscribeRun(runID string, filter broadcast.Filter) (*broadcast.Subscription, error) {
	m.mu.Lock()
	r, ok := m.runs[runID]
	m.mu.Unlock()
	if !ok {
		return nil, sim.ErrNotFound
	}
	return r.Hub.Subscribe(filter), nil
}

// Close terminates all active runs and waits for their workers to finish.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	ids := make([]string, 0, len(m.byGame))
	for _, r := range m.byGame {
		ids = append(ids, r.ID)
	}
	m.mu.Unlock()

	for _, id := range ids {
		// Queued runs are terminated in place; running ones at their next
		// checked point.
		_ = m.Terminate(id, "manager shutdown")
	}
	m.wg.Wait()
}

// onRunFinished releases the run's slot and starts the next queued run in
// arrival order.
func (m *Manager) onRunFinished(r *Run, status sim.RunStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.byGame, r.GameID)
	m.running--
	m.metrics.ActiveRuns.Set(float64(m.running))
	m.metrics.RunsFinished.WithLabelValues(string(status)).Inc()

	for len(m.queue) > 0 && m.running < m.cfg.MaxConcurrentGames && !m.closed {
		next := m.queue[0]
		m.queue = m.queue[1:]
		next.mu.Lock()
		skip := next.terminated
		next.mu.Unlock()
		if skip {
			continue
		}
		m.startLocked(next)
	}
	m.metrics.QueuedRuns.Set(float64(len(m.queue)))
}

// runProgress mirrors each applied event into the run's status snapshot so
// Status never has to touch game internals from another goroutine.
type runProgress struct {
	r       *Run
	metrics *Metrics
}

func (p runProgress) Publish(ev sim.Event, snap sim.Snapshot) {
	p.metrics.EventsGenerated.Inc()
	p.r.mu.Lock()
	p.r.snap = snap
	p.r.mu.Unlock()
}

// persistCtx bounds sink writes during finalization.
func persistCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
