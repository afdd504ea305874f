package sim

import (
	"math"
	"math/rand"
)

// Category is a candidate event category competing to fire next.
type Category string

const (
	CategoryShot    Category = "shot"
	CategoryPenalty Category = "penalty"
	CategoryFight   Category = "fight"
	CategoryInjury  Category = "injury"
)

// Candidate is the generator's pick for the next event: which category
// fired and which side it belongs to (SideNone for shared categories that
// resolve participants later).
type Candidate struct {
	Category Category
	Side     Side
}

// TeamSituation is one team's view of the current step, assembled by the
// state machine from mutable player state and the coach's formation.
type TeamSituation struct {
	OnIce    []*PlayerRatings
	Goalie   *PlayerRatings
	Strength Strength
	Form     Formation
	// Fatigue is the mean fatigue of the on-ice unit, in [0,1].
	Fatigue float64
	// ScoreDiff is own score minus opponent score.
	ScoreDiff int

	Offense    float64
	Defense    float64
	Discipline float64
	Toughness  float64
}

// StepContext is the full situational input to one generator step.
type StepContext struct {
	Home TeamSituation
	Away TeamSituation
}

func (c *StepContext) side(s Side) *TeamSituation {
	if s == SideHome {
		return &c.Home
	}
	return &c.Away
}

// EventGenerator is the pure stochastic half of the engine. Given a
// situation snapshot and the run's RNG stream it samples which category
// fires next and resolves sub-outcomes. It holds no game state of its own;
// all randomness flows through the single rng in a fixed draw order, which
// is what makes replay byte-identical.
type EventGenerator struct {
	cfg    Config
	params RealismParams
	rng    *rand.Rand
}

// NewEventGenerator builds a generator for a validated config.
func NewEventGenerator(cfg Config, rng *rand.Rand) *EventGenerator {
	return &EventGenerator{cfg: cfg, params: ParamsFor(cfg.Realism), rng: rng}
}

// logistic maps a rating differential to (0,1), centered at 0.5. Bounded
// and monotonic, so extreme ratings bend rates without breaking them.
func logistic(diff, scale float64) float64 {
	return 1 / (1 + math.Exp(-diff/scale))
}

// clampMult bounds a situational multiplier so stacked modifiers can never
// push a hazard to zero or absurdity.
func clampMult(m float64) float64 {
	return math.Min(4, math.Max(0.25, m))
}

// shotRate is the instantaneous shot hazard for the attacking side.
func (g *EventGenerator) shotRate(att, def *TeamSituation) float64 {
	skill := 2 * logistic(att.Offense-def.Defense, g.params.RatingScale)
	strength := 1.0
	switch att.Strength {
	case StrengthPowerPlay:
		strength = 1.6
	case StrengthShortHanded:
		strength = 0.45
	}
	fatigue := 1 - g.params.FatigueDrag*att.Fatigue
	mult := clampMult(skill * strength * fatigue * att.Form.OffensiveBias)
	return g.params.BaseShotRate * mult
}

// penaltyRate is the instantaneous penalty hazard against the given side.
// Lower discipline means more whistles; the configured frequency knob
// scales the whole category, with zero disabling it.
func (g *EventGenerator) penaltyRate(team *TeamSituation) float64 {
	if g.cfg.PenaltyFrequency == 0 {
		return 0
	}
	discipline := 2 * logistic(50-team.Discipline, g.params.RatingScale)
	mult := clampMult(discipline * team.Form.AggressionBias)
	return g.params.BasePenaltyRate * mult * 2 * g.cfg.PenaltyFrequency
}

// fightRate is the shared fight hazard, fed by both teams' toughness.
func (g *EventGenerator) fightRate(ctx *StepContext) float64 {
	if g.cfg.FightingFrequency == 0 {
		return 0
	}
	tough := 2 * logistic((ctx.Home.Toughness+ctx.Away.Toughness)/2-50, g.params.RatingScale)
	heat := 1.0
	if d := ctx.Home.ScoreDiff; d > 2 || d < -2 {
		heat = 1.4 // lopsided games run hotter
	}
	mult := clampMult(tough * heat)
	return g.params.BaseFightRate * mult * 2 * g.cfg.FightingFrequency
}

// injuryRate is the per-side injury hazard.
func (g *EventGenerator) injuryRate(team *TeamSituation) float64 {
	if g.cfg.InjuryFrequency == 0 {
		return 0
	}
	mult := clampMult(1 + 0.5*team.Fatigue)
	return g.params.BaseInjuryRate * mult * 2 * g.cfg.InjuryFrequency
}

// NextCandidate runs the competing-clocks step: each category samples an
// exponential waiting time from its hazard, the minimum fires, and its
// waiting time becomes the step's clock delta. Draw order is fixed; every
// category draws exactly once whether or not it wins, so the number of RNG
// consumptions per step is situation-independent.
func (g *EventGenerator) NextCandidate(ctx *StepContext) (Candidate, int64) {
	type clockDraw struct {
		cand Candidate
		wait float64
	}
	draws := []clockDraw{
		{Candidate{CategoryShot, SideHome}, g.sampleWait(g.shotRate(&ctx.Home, &ctx.Away))},
		{Candidate{CategoryShot, SideAway}, g.sampleWait(g.shotRate(&ctx.Away, &ctx.Home))},
		{Candidate{CategoryPenalty, SideHome}, g.sampleWait(g.penaltyRate(&ctx.Home))},
		{Candidate{CategoryPenalty, SideAway}, g.sampleWait(g.penaltyRate(&ctx.Away))},
		{Candidate{CategoryFight, SideNone}, g.sampleWait(g.fightRate(ctx))},
		{Candidate{CategoryInjury, SideHome}, g.sampleWait(g.injuryRate(&ctx.Home))},
		{Candidate{CategoryInjury, SideAway}, g.sampleWait(g.injuryRate(&ctx.Away))},
	}

	best := draws[0]
	for _, d := range draws[1:] {
		if d.wait < best.wait {
			best = d
		}
	}
	delta := int64(math.Ceil(best.wait))
	if delta < 1 {
		delta = 1
	}
	return best.cand, delta
}

// sampleWait draws an exponential waiting time for a hazard rate. A zero
// rate still consumes one draw and returns an unreachable waiting time, so
// disabling a category cannot shift the other categories' samples.
func (g *EventGenerator) sampleWait(rate float64) float64 {
	u := g.rng.ExpFloat64()
	if rate <= 0 {
		return math.Inf(1)
	}
	return u / rate
}

// ResolveFaceoff decides a draw between the two centers.
func (g *EventGenerator) ResolveFaceoff(home, away *PlayerRatings) FaceoffDetail {
	pHome := logistic(home.Faceoffs-away.Faceoffs, g.params.RatingScale)
	won := SideAway
	if g.rng.Float64() < pHome {
		won = SideHome
	}
	return FaceoffDetail{HomePlayer: home.ID, AwayPlayer: away.ID, WonBy: won}
}

// ResolveShot resolves a fired shot category into its sub-outcome. The
// goal/save/miss/block masses are normalized to sum to 1. On a goal the
// returned GoalDetail carries scorer and assists; otherwise it is nil.
func (g *EventGenerator) ResolveShot(att, def *TeamSituation) (ShotDetail, *GoalDetail) {
	shooter := g.weightedSkater(att.OnIce, func(p *PlayerRatings) float64 {
		return 1 + p.Shooting
	})

	goalie := 50.0
	goalieID := ""
	if def.Goalie != nil {
		goalie = def.Goalie.Goaltending
		goalieID = def.Goalie.ID
	}

	pGoal := g.params.GoalBase * 2 * logistic(shooter.Shooting-goalie, g.params.RatingScale)
	if att.Strength == StrengthPowerPlay {
		pGoal *= 1.25
	}
	pGoal = math.Min(pGoal, 0.5)

	// Split the remaining mass between save, miss and block, bending the
	// block share by the defending unit's skill.
	rest := 1 - pGoal
	blockW := g.params.BlockShare * 2 * logistic(def.Defense-50, g.params.RatingScale)
	missW := g.params.MissShare
	saveW := 1 - g.params.MissShare - g.params.BlockShare
	totalW := blockW + missW + saveW

	r := g.rng.Float64()
	detail := ShotDetail{Shooter: shooter.ID, Goalie: goalieID}
	switch {
	case r < pGoal:
		detail.Outcome = ShotGoal
		goal := &GoalDetail{Scorer: shooter.ID, Goalie: goalieID, Assists: g.pickAssists(att, shooter)}
		return detail, goal
	case r < pGoal+rest*saveW/totalW:
		detail.Outcome = ShotSave
	case r < pGoal+rest*(saveW+missW)/totalW:
		detail.Outcome = ShotMiss
	default:
		detail.Outcome = ShotBlocked
		if blocker := g.weightedSkater(def.OnIce, func(p *PlayerRatings) float64 {
			return 1 + p.Defense
		}); blocker != nil {
			detail.Blocker = blocker.ID
		}
	}
	return detail, nil
}

// pickAssists draws up to two assisting teammates, weighted by playmaking.
func (g *EventGenerator) pickAssists(att *TeamSituation, scorer *PlayerRatings) []string {
	var pool []*PlayerRatings
	for _, p := range att.OnIce {
		if p.ID != scorer.ID {
			pool = append(pool, p)
		}
	}
	var want int
	switch r := g.rng.Float64(); {
	case r < 0.20:
		want = 0
	case r < 0.55:
		want = 1
	default:
		want = 2
	}
	assists := make([]string, 0, want)
	for i := 0; i < want && len(pool) > 0; i++ {
		a := g.weightedSkater(pool, func(p *PlayerRatings) float64 { return 1 + p.Playmaking })
		assists = append(assists, a.ID)
		next := pool[:0:0]
		for _, p := range pool {
			if p.ID != a.ID {
				next = append(next, p)
			}
		}
		pool = next
	}
	return assists
}

// ResolvePenalty picks the offender and infraction for a fired penalty.
// Offenders are weighted toward low discipline; the infraction comes from
// the fixed categorical table.
func (g *EventGenerator) ResolvePenalty(team *TeamSituation) PenaltyDetail {
	offender := g.weightedSkater(team.OnIce, func(p *PlayerRatings) float64 {
		return 1 + math.Max(0, 100-p.Discipline)
	})

	var totalW float64
	for _, inf := range infractionTable {
		totalW += inf.weight
	}
	r := g.rng.Float64() * totalW
	for _, inf := range infractionTable {
		if r < inf.weight {
			return PenaltyDetail{Player: offender.ID, Infraction: inf.name, Minutes: inf.minutes}
		}
		r -= inf.weight
	}
	last := infractionTable[len(infractionTable)-1]
	return PenaltyDetail{Player: offender.ID, Infraction: last.name, Minutes: last.minutes}
}

// ResolveFight picks one combatant per side, weighted by toughness.
func (g *EventGenerator) ResolveFight(ctx *StepContext) FightDetail {
	tough := func(p *PlayerRatings) float64 { return 1 + p.Toughness }
	home := g.weightedSkater(ctx.Home.OnIce, tough)
	away := g.weightedSkater(ctx.Away.OnIce, tough)
	return FightDetail{HomePlayer: home.ID, AwayPlayer: away.ID}
}

// ResolveInjury picks the injured skater, weighted toward low endurance.
func (g *EventGenerator) ResolveInjury(team *TeamSituation) InjuryDetail {
	victim := g.weightedSkater(team.OnIce, func(p *PlayerRatings) float64 {
		return 1 + math.Max(0, 100-p.Endurance)
	})
	return InjuryDetail{Player: victim.ID}
}

// ResolveShootoutAttempt decides a single shootout round attempt.
func (g *EventGenerator) ResolveShootoutAttempt(shooter, goalie *PlayerRatings) bool {
	rating := 50.0
	if goalie != nil {
		rating = goalie.Goaltending
	}
	p := g.params.ShootoutGoalBase * 2 * logistic(shooter.Shooting-rating, g.params.RatingScale)
	return g.rng.Float64() < math.Min(p, 0.75)
}

// weightedSkater draws one skater from the pool by the given weight
// function. Iteration order is the pool's slice order, keeping the draw
// deterministic for a given situation.
func (g *EventGenerator) weightedSkater(pool []*PlayerRatings, weight func(*PlayerRatings) float64) *PlayerRatings {
	if len(pool) == 0 {
		return nil
	}
	var total float64
	for _, p := range pool {
		total += weight(p)
	}
	r := g.rng.Float64() * total
	for _, p := range pool {
		w := weight(p)
		if r < w {
			return p
		}
		r -= w
	}
	return pool[len(pool)-1]
}
