package sim

import (
	"fmt"
	"sort"
)

const (
	minorPenaltyTicks = 2 * 60
	majorPenaltyTicks = 5 * 60
	shiftLengthTicks  = 45
	shootoutMinRounds = 3
	maxBoxedSkaters   = 2 // beyond a two-skater disadvantage, penalties stack
)

// Snapshot is the derived game state delivered to catch-up subscribers and
// status queries: enough to join a run mid-stream with no gap relative to
// sequence numbers.
type Snapshot struct {
	GameID       string    `json:"game_id"`
	Clock        GameClock `json:"clock"`
	HomeScore    int       `json:"home_score"`
	AwayScore    int       `json:"away_score"`
	LastSequence uint64    `json:"last_sequence"`
	Done         bool      `json:"done"`
}

// EventSink consumes applied events in sequence order, paired with the
// game-state snapshot resulting from each. The state machine calls sinks
// strictly after the aggregator and strictly before generating the next
// event.
type EventSink interface {
	Publish(ev Event, snap Snapshot)
}

// PlayerGameState is the engine-private mutable state per skater.
// Invariant: IceTime never exceeds elapsed game time.
type PlayerGameState struct {
	IceTime int64
	Fatigue float64
	Injured bool
	InBox   bool
}

type activePenalty struct {
	playerID     string
	remaining    int64
	coincidental bool // fight majors: boxed player, no power play
}

type teamState struct {
	side      Side
	roster    *TeamRoster
	coach     Coach
	lines     Lines
	forward   int // current forward line index
	pair      int // current defense pair index
	shift     int64
	players   map[string]*PlayerGameState
	ratings   map[string]*PlayerRatings
	goalie    *PlayerRatings
	penalties []activePenalty
}

func newTeamState(side Side, roster *TeamRoster, coach Coach, lines Lines) *teamState {
	ts := &teamState{
		side:    side,
		roster:  roster,
		coach:   coach,
		lines:   lines,
		players: make(map[string]*PlayerGameState),
		ratings: make(map[string]*PlayerRatings),
	}
	for i := range roster.Skaters {
		p := &roster.Skaters[i]
		ts.players[p.ID] = &PlayerGameState{}
		ts.ratings[p.ID] = p
	}
	for i := range roster.Goalies {
		p := &roster.Goalies[i]
		ts.ratings[p.ID] = p
		if p.ID == lines.StartingGoalie {
			ts.goalie = p
		}
	}
	if ts.goalie == nil {
		ts.goalie = &roster.Goalies[0]
	}
	return ts
}

// boxCount is the number of skaters serving non-coincidental penalties,
// capped at the maximum enforceable disadvantage.
func (t *teamState) boxCount() int {
	n := 0
	for _, p := range t.penalties {
		if !p.coincidental {
			n++
		}
	}
	if n > maxBoxedSkaters {
		n = maxBoxedSkaters
	}
	return n
}

func (t *teamState) eligible(id string) bool {
	ps := t.players[id]
	return ps != nil && !ps.Injured && !ps.InBox
}

// onIce assembles the current unit: active forward line plus defense pair,
// filtered for injuries and penalties, topped up from the remaining lines
// in rotation order down to the strength-mandated skater count.
func (t *teamState) onIce() []*PlayerRatings {
	target := 5 - t.boxCount()
	out := make([]*PlayerRatings, 0, target)
	seen := make(map[string]bool)

	take := func(id string) {
		if len(out) >= target || seen[id] || !t.eligible(id) {
			return
		}
		seen[id] = true
		out = append(out, t.ratings[id])
	}

	if len(t.lines.Forwards) > 0 {
		for _, id := range t.lines.Forwards[t.forward%len(t.lines.Forwards)] {
			take(id)
		}
	}
	if len(t.lines.DefensePairs) > 0 {
		for _, id := range t.lines.DefensePairs[t.pair%len(t.lines.DefensePairs)] {
			take(id)
		}
	}
	// Top up from the bench in rotation order.
	for _, line := range t.lines.Forwards {
		for _, id := range line {
			take(id)
		}
	}
	for _, pair := range t.lines.DefensePairs {
		for _, id := range pair {
			take(id)
		}
	}
	// Last resort: anyone dressed.
	for i := range t.roster.Skaters {
		take(t.roster.Skaters[i].ID)
	}
	return out
}

// center picks the faceoff man from the current unit: first true center,
// else the first skater.
func (t *teamState) center() *PlayerRatings {
	unit := t.onIce()
	for _, p := range unit {
		if p.Position == PositionCenter {
			return p
		}
	}
	return unit[0]
}

func (t *teamState) rotate() {
	t.forward++
	t.pair++
	t.shift = 0
}

type gamePhase int

const (
	phasePregame gamePhase = iota
	phaseFaceoff
	phasePlay
	phasePeriodBreak
	phaseShootout
	phaseDone
)

type shootoutState struct {
	order     map[Side][]*PlayerRatings
	taken     map[Side]int
	goals     map[Side]int
	next      Side
	lastScore map[Side]*PlayerRatings
}

// Game is the deterministic state machine owning one run's simulated
// clock, score, strength state and period progression. It drives the
// EventGenerator, applies its output, and pushes every applied event to
// the aggregator and then the attached sinks before the next event is
// generated. All methods must be called from the run's single worker.
type Game struct {
	cfg    Config
	roster *RosterSnapshot
	rng    *PartitionedRNG
	gen    *EventGenerator
	agg    *Aggregator
	sinks  []EventSink

	clock   GameClock
	elapsed int64
	seq     uint64

	homeScore int
	awayScore int

	home *teamState
	away *teamState

	phase    gamePhase
	shootout *shootoutState
	winner   Side
	events   []Event
}

// GameOption customizes construction.
type GameOption func(*gameOptions)

type gameOptions struct {
	homeCoach Coach
	awayCoach Coach
}

// WithCoaches swaps in alternate strategy implementations. Resolved once
// per team before the run starts; the engine never re-resolves them.
func WithCoaches(home, away Coach) GameOption {
	return func(o *gameOptions) {
		o.homeCoach = home
		o.awayCoach = away
	}
}

// NewGame validates config and roster and binds a seeded engine to them.
// The returned Game has consumed lineup RNG only; the first Step starts
// the first period.
func NewGame(roster *RosterSnapshot, cfg Config, seed int64, opts ...GameOption) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := roster.Validate(); err != nil {
		return nil, err
	}
	o := gameOptions{homeCoach: DefaultCoach{}, awayCoach: DefaultCoach{}}
	for _, opt := range opts {
		opt(&o)
	}

	rng := NewPartitionedRNG(NewSimulationKey(seed))
	lineupRNG := rng.ForSubsystem(SubsystemLineups)

	g := &Game{
		cfg:    cfg,
		roster: roster,
		rng:    rng,
		gen:    NewEventGenerator(cfg, rng.ForSubsystem(SubsystemEvents)),
		home:   newTeamState(SideHome, &roster.Home, o.homeCoach, o.homeCoach.SelectLines(&roster.Home, lineupRNG)),
		away:   newTeamState(SideAway, &roster.Away, o.awayCoach, o.awayCoach.SelectLines(&roster.Away, lineupRNG)),
	}
	if cfg.GenerateBoxScore {
		g.agg = NewAggregator(roster)
	}
	return g, nil
}

// AttachSink registers an event consumer. Must be called before the first
// Step; sinks receive every event in sequence order.
func (g *Game) AttachSink(s EventSink) {
	g.sinks = append(g.sinks, s)
}

// Snapshot returns the current derived game state.
func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		GameID:       g.roster.GameID,
		Clock:        g.clock,
		HomeScore:    g.homeScore,
		AwayScore:    g.awayScore,
		LastSequence: g.seq,
		Done:         g.phase == phaseDone,
	}
}

// Done reports whether the run has reached its terminal game state.
func (g *Game) Done() bool { return g.phase == phaseDone }

// Winner returns the winning side once done; SideNone for a draw.
func (g *Game) Winner() Side { return g.winner }

// Events returns the play-by-play recorded so far. Empty when the config
// disabled play-by-play retention.
func (g *Game) Events() []Event {
	return append([]Event(nil), g.events...)
}

// BoxScore derives the current box score. Nil aggregator (box score
// generation disabled) yields a minimal score-only box.
func (g *Game) BoxScore() BoxScore {
	if g.agg != nil {
		return g.agg.Snapshot()
	}
	return BoxScore{
		GameID: g.roster.GameID,
		Home:   TeamStats{TeamID: g.roster.Home.TeamID, Name: g.roster.Home.Name, Score: g.homeScore},
		Away:   TeamStats{TeamID: g.roster.Away.TeamID, Name: g.roster.Away.Name, Score: g.awayScore},
	}
}

func (g *Game) team(s Side) *teamState {
	if s == SideAway {
		return g.away
	}
	return g.home
}

func (g *Game) score(s Side) int {
	if s == SideAway {
		return g.awayScore
	}
	return g.homeScore
}

func (g *Game) strengthFor(s Side) Strength {
	own := g.team(s).boxCount()
	opp := g.team(s.Opponent()).boxCount()
	switch {
	case own < opp:
		return StrengthPowerPlay
	case own > opp:
		return StrengthShortHanded
	default:
		return StrengthEven
	}
}

// emit appends one event to the run: assigns the next sequence number,
// snapshots clock and score, applies it to the aggregator, then publishes
// it to every sink. Ordering guarantee: both consumers see event N before
// event N+1 exists.
func (g *Game) emit(kind Kind, team Side, detail Detail) Event {
	g.seq++
	strength := StrengthEven
	if team != SideNone {
		strength = g.strengthFor(team)
	}
	ev := Event{
		Sequence:  g.seq,
		Kind:      kind,
		Clock:     g.clock,
		Team:      team,
		Strength:  strength,
		HomeScore: g.homeScore,
		AwayScore: g.awayScore,
		Detail:    detail,
	}
	if g.cfg.GeneratePlayByPlay {
		g.events = append(g.events, ev)
	}
	if g.agg != nil {
		g.agg.Apply(ev)
	}
	snap := g.Snapshot()
	for _, s := range g.sinks {
		s.Publish(ev, snap)
	}
	return ev
}

// Step advances the run by one discrete event. It returns the game-time
// delta the step consumed (zero for structural events like faceoffs and
// period markers, used by the caller for wall-clock pacing) and whether
// the game reached a terminal state. Step never blocks and never consumes
// RNG state unless play actually advances, so callers may pause between
// any two Steps without perturbing the event sequence.
func (g *Game) Step() (int64, bool) {
	switch g.phase {
	case phaseDone:
		return 0, true

	case phasePregame:
		g.startPeriod(PeriodRegulation, RegulationPeriodTicks)
		return 0, false

	case phaseFaceoff:
		g.doFaceoff()
		g.phase = phasePlay
		return 0, false

	case phasePeriodBreak:
		g.advancePeriod()
		return 0, g.phase == phaseDone

	case phaseShootout:
		g.shootoutStep()
		return 0, g.phase == phaseDone
	}

	// phasePlay: one generator step, bounded by the structural horizon
	// (penalty expiry, period end).
	ctx := g.stepContext()
	cand, delta := g.gen.NextCandidate(ctx)

	if exp, side, ok := g.nextPenaltyExpiry(); ok && exp <= delta && exp <= g.clock.Remaining {
		g.advanceTime(exp)
		g.releaseEarliestPenalty(side)
		return exp, false
	}

	if delta >= g.clock.Remaining {
		consumed := g.clock.Remaining
		g.advanceTime(consumed)
		g.emit(KindPeriodEnd, SideNone, PeriodDetail{})
		g.phase = phasePeriodBreak
		return consumed, false
	}

	g.advanceTime(delta)
	g.resolveCandidate(cand, ctx)
	return delta, false
}

// RunToCompletion drives the game to its terminal state with no pacing.
// It is the offline path used by the CLI and tests; interactive runs step
// through the manager's worker instead.
func (g *Game) RunToCompletion() {
	for {
		if _, done := g.Step(); done {
			return
		}
	}
}

func (g *Game) startPeriod(t PeriodType, ticks int64) {
	g.clock.NextPeriod(t, ticks)
	g.emit(KindPeriodStart, SideNone, PeriodDetail{})
	g.phase = phaseFaceoff
}

func (g *Game) doFaceoff() {
	d := g.gen.ResolveFaceoff(g.home.center(), g.away.center())
	g.emit(KindFaceoff, d.WonBy, d)
}

func (g *Game) advancePeriod() {
	switch {
	case g.clock.Type == PeriodRegulation && g.clock.Period < RegulationPeriods:
		g.startPeriod(PeriodRegulation, RegulationPeriodTicks)

	case g.clock.Type == PeriodRegulation:
		// End of regulation.
		switch {
		case g.homeScore != g.awayScore:
			g.finish(g.leader())
		case g.cfg.OvertimeEnabled:
			g.startPeriod(PeriodOvertime, int64(g.cfg.OvertimeMinutes)*60)
		default:
			g.finish(SideNone)
		}

	case g.clock.Type == PeriodOvertime:
		// A sudden-death goal finishes the run before the period expires,
		// so reaching here means the overtime stayed scoreless.
		if g.cfg.ShootoutEnabled {
			g.beginShootout()
		} else {
			g.finish(SideNone)
		}
	}
}

func (g *Game) leader() Side {
	switch {
	case g.homeScore > g.awayScore:
		return SideHome
	case g.awayScore > g.homeScore:
		return SideAway
	default:
		return SideNone
	}
}

func (g *Game) finish(winner Side) {
	g.winner = winner
	g.phase = phaseDone
	g.emit(KindGameEnd, winner, GameEndDetail{Winner: winner})
}

// === time advancement ===

// advanceTime consumes delta ticks: clock, penalty timers, ice time and
// fatigue for the on-ice units, line rotation on expired shifts.
func (g *Game) advanceTime(delta int64) {
	if delta == 0 {
		return
	}
	g.clock.Advance(delta)
	g.elapsed += delta

	for _, t := range []*teamState{g.home, g.away} {
		for i := range t.penalties {
			t.penalties[i].remaining -= delta
		}
		onIce := make(map[string]bool)
		for _, p := range t.onIce() {
			onIce[p.ID] = true
			ps := t.players[p.ID]
			ps.IceTime += delta
			if ps.IceTime > g.elapsed {
				panic(fmt.Sprintf("ice time %d exceeds elapsed %d for %s", ps.IceTime, g.elapsed, p.ID))
			}
			drain := float64(delta) / 600 * (1.5 - p.Endurance/100)
			ps.Fatigue = clamp01(ps.Fatigue + drain)
			if g.agg != nil {
				g.agg.CreditIceTime(p.ID, delta)
			}
		}
		for id, ps := range t.players {
			if !onIce[id] {
				ps.Fatigue = clamp01(ps.Fatigue - float64(delta)/900)
			}
		}
		t.shift += delta
		if t.shift >= shiftLengthTicks {
			t.rotate()
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// === penalties ===

// nextPenaltyExpiry returns the soonest remaining penalty time across both
// teams. Ties resolve home-first, keeping replay order stable.
func (g *Game) nextPenaltyExpiry() (int64, Side, bool) {
	best := int64(-1)
	side := SideNone
	for _, t := range []*teamState{g.home, g.away} {
		for _, p := range t.penalties {
			if best < 0 || p.remaining < best {
				best = p.remaining
				side = t.side
			}
		}
	}
	if best < 0 {
		return 0, SideNone, false
	}
	if best < 1 {
		best = 1 // expiry landed between ticks; round up to the next one
	}
	return best, side, true
}

func (g *Game) releaseEarliestPenalty(side Side) {
	t := g.team(side)
	idx := -1
	for i, p := range t.penalties {
		if idx < 0 || p.remaining < t.penalties[idx].remaining {
			idx = i
		}
	}
	if idx < 0 {
		return
	}
	released := t.penalties[idx]
	t.penalties = append(t.penalties[:idx], t.penalties[idx+1:]...)
	if ps := t.players[released.playerID]; ps != nil {
		ps.InBox = false
	}
	g.emit(KindPenaltyExpired, side, PenaltyExpiredDetail{Player: released.playerID})
}

// releasePowerPlayPenalty ends the earliest minor when the team on the
// power play scores, per rulebook.
func (g *Game) releasePowerPlayPenalty(scored Side) {
	t := g.team(scored.Opponent())
	idx := -1
	for i, p := range t.penalties {
		if p.coincidental {
			continue
		}
		if idx < 0 || p.remaining < t.penalties[idx].remaining {
			idx = i
		}
	}
	if idx < 0 {
		return
	}
	released := t.penalties[idx]
	t.penalties = append(t.penalties[:idx], t.penalties[idx+1:]...)
	if ps := t.players[released.playerID]; ps != nil {
		ps.InBox = false
	}
	g.emit(KindPenaltyExpired, scored.Opponent(), PenaltyExpiredDetail{Player: released.playerID})
}

func (g *Game) boxPlayer(side Side, playerID string, ticks int64, coincidental bool) {
	t := g.team(side)
	t.penalties = append(t.penalties, activePenalty{
		playerID:     playerID,
		remaining:    ticks,
		coincidental: coincidental,
	})
	if ps := t.players[playerID]; ps != nil {
		ps.InBox = true
	}
}

// === candidate resolution ===

func (g *Game) stepContext() *StepContext {
	return &StepContext{
		Home: g.teamSituation(SideHome),
		Away: g.teamSituation(SideAway),
	}
}

func (g *Game) teamSituation(s Side) TeamSituation {
	t := g.team(s)
	unit := t.onIce()
	var fatigue float64
	for _, p := range unit {
		fatigue += t.players[p.ID].Fatigue
	}
	if len(unit) > 0 {
		fatigue /= float64(len(unit))
	}
	strength := g.strengthFor(s)
	sit := Situation{
		Side:       s,
		ScoreDiff:  g.score(s) - g.score(s.Opponent()),
		Period:     g.clock.Period,
		PeriodType: g.clock.Type,
		TicksLeft:  g.clock.Remaining,
		Strength:   strength,
	}
	return TeamSituation{
		OnIce:      unit,
		Goalie:     t.goalie,
		Strength:   strength,
		Form:       t.coach.AdjustFormation(sit),
		Fatigue:    fatigue,
		ScoreDiff:  sit.ScoreDiff,
		Offense:    t.roster.OffenseRating(),
		Defense:    t.roster.DefenseRating(),
		Discipline: t.roster.DisciplineRating(),
		Toughness:  t.meanToughness(),
	}
}

func (t *teamState) meanToughness() float64 {
	return t.roster.meanSkater(func(p *PlayerRatings) float64 { return p.Toughness })
}

func (g *Game) resolveCandidate(cand Candidate, ctx *StepContext) {
	switch cand.Category {
	case CategoryShot:
		g.resolveShot(cand.Side, ctx)

	case CategoryPenalty:
		d := g.gen.ResolvePenalty(ctx.side(cand.Side))
		ticks := int64(minorPenaltyTicks)
		if d.Minutes >= 5 {
			ticks = majorPenaltyTicks
		}
		g.boxPlayer(cand.Side, d.Player, ticks, false)
		g.emit(KindPenalty, cand.Side, d)
		g.phase = phaseFaceoff

	case CategoryFight:
		d := g.gen.ResolveFight(ctx)
		g.boxPlayer(SideHome, d.HomePlayer, majorPenaltyTicks, true)
		g.boxPlayer(SideAway, d.AwayPlayer, majorPenaltyTicks, true)
		g.emit(KindFight, SideNone, d)
		g.phase = phaseFaceoff

	case CategoryInjury:
		d := g.gen.ResolveInjury(ctx.side(cand.Side))
		if ps := g.team(cand.Side).players[d.Player]; ps != nil {
			ps.Injured = true
		}
		g.emit(KindInjury, cand.Side, d)
		g.phase = phaseFaceoff
	}
}

func (g *Game) resolveShot(side Side, ctx *StepContext) {
	att := ctx.side(side)
	def := ctx.side(side.Opponent())
	strength := g.strengthFor(side)

	shot, goal := g.gen.ResolveShot(att, def)
	g.emit(KindShot, side, shot)
	if goal == nil {
		return
	}

	if g.agg != nil {
		g.agg.SetOnIce(unitIDs(att.OnIce), unitIDs(def.OnIce))
	}
	g.addScore(side)
	g.emit(KindGoal, side, *goal)

	if strength == StrengthPowerPlay {
		g.releasePowerPlayPenalty(side)
	}

	if g.clock.Type == PeriodOvertime {
		// Sudden death: first goal ends the run.
		g.finish(side)
		return
	}
	g.phase = phaseFaceoff
}

func (g *Game) addScore(s Side) {
	if s == SideAway {
		g.awayScore++
	} else {
		g.homeScore++
	}
}

func unitIDs(unit []*PlayerRatings) []string {
	out := make([]string, 0, len(unit))
	for _, p := range unit {
		out = append(out, p.ID)
	}
	return out
}

// === shootout ===

func (g *Game) beginShootout() {
	g.clock.NextPeriod(PeriodShootout, 0)
	g.emit(KindPeriodStart, SideNone, PeriodDetail{})
	g.shootout = &shootoutState{
		order: map[Side][]*PlayerRatings{
			SideHome: shootingOrder(&g.roster.Home),
			SideAway: shootingOrder(&g.roster.Away),
		},
		taken:     map[Side]int{},
		goals:     map[Side]int{},
		next:      SideHome,
		lastScore: map[Side]*PlayerRatings{},
	}
	g.phase = phaseShootout
}

// shootingOrder ranks shooters by shooting rating; ties keep roster order.
// No RNG involved, so the order is part of the deterministic run setup.
func shootingOrder(team *TeamRoster) []*PlayerRatings {
	out := make([]*PlayerRatings, 0, len(team.Skaters))
	for i := range team.Skaters {
		out = append(out, &team.Skaters[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Shooting > out[j].Shooting
	})
	return out
}

// shootoutStep takes one attempt. Rounds alternate home then away; after a
// minimum of three rounds each, the shootout is decided at the first round
// where one team leads after equal attempts, continuing round-by-round
// otherwise.
func (g *Game) shootoutStep() {
	so := g.shootout
	side := so.next
	shooters := so.order[side]
	shooter := shooters[so.taken[side]%len(shooters)]
	goalie := g.team(side.Opponent()).goalie

	scored := g.gen.ResolveShootoutAttempt(shooter, goalie)
	so.taken[side]++
	if scored {
		so.goals[side]++
		so.lastScore[side] = shooter
	}
	g.emit(KindShootoutAttempt, side, ShootoutAttemptDetail{
		Round:   so.taken[side],
		Shooter: shooter.ID,
		Goalie:  goalie.ID,
		Scored:  scored,
	})
	so.next = side.Opponent()

	// Decision point: equal attempts, minimum rounds satisfied.
	if so.taken[SideHome] != so.taken[SideAway] || so.taken[SideHome] < shootoutMinRounds {
		return
	}
	if so.goals[SideHome] == so.goals[SideAway] {
		return
	}

	winner := SideHome
	if so.goals[SideAway] > so.goals[SideHome] {
		winner = SideAway
	}
	// The shootout win counts as one team goal, credited to the deciding
	// shooter on the scoreboard but excluded from individual stat lines.
	scorer := ""
	goalieID := ""
	if p := so.lastScore[winner]; p != nil {
		scorer = p.ID
	}
	if gk := g.team(winner.Opponent()).goalie; gk != nil {
		goalieID = gk.ID
	}
	g.addScore(winner)
	g.emit(KindGoal, winner, GoalDetail{Scorer: scorer, Goalie: goalieID})
	g.finish(winner)
}
