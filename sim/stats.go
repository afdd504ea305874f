package sim

import "fmt"

// skaterCounters are the base per-skater counters. Derived percentages are
// never stored; Snapshot recomputes them so they cannot desync from the
// event log.
type skaterCounters struct {
	goals, assists, shots  int
	plusMinus, pim         int
	faceoffWins, faceoffs  int
	iceTime                int64
}

type goalieCounters struct {
	shotsAgainst, saves, goalsAgainst int
}

type teamCounters struct {
	goals, shots, pim          int
	ppOpportunities, ppGoals   int
	faceoffWins, faceoffs      int
	periodGoals                []int
}

// Aggregator consumes a run's ordered event stream and maintains the base
// counters a box score derives from. Single-writer: Apply is only ever
// called from the run's own worker, never concurrently with itself.
type Aggregator struct {
	roster *RosterSnapshot
	home   teamCounters
	away   teamCounters

	skaters map[string]*skaterCounters
	goalies map[string]*goalieCounters

	// onIce lets goal application attribute plus-minus; the state machine
	// sets it immediately before Apply for goal events.
	onIceFor, onIceAgainst []string

	events int
}

// NewAggregator builds an aggregator bound to a run's roster snapshot.
func NewAggregator(roster *RosterSnapshot) *Aggregator {
	a := &Aggregator{
		roster:  roster,
		skaters: make(map[string]*skaterCounters),
		goalies: make(map[string]*goalieCounters),
	}
	for _, team := range []*TeamRoster{&roster.Home, &roster.Away} {
		for i := range team.Skaters {
			a.skaters[team.Skaters[i].ID] = &skaterCounters{}
		}
		for i := range team.Goalies {
			a.goalies[team.Goalies[i].ID] = &goalieCounters{}
		}
	}
	return a
}

// SetOnIce records the units on ice for plus-minus attribution of the next
// goal event. Called by the state machine under the run's single-writer
// discipline.
func (a *Aggregator) SetOnIce(scoring, conceding []string) {
	a.onIceFor = scoring
	a.onIceAgainst = conceding
}

// CreditIceTime adds elapsed ticks to a skater's time on ice.
func (a *Aggregator) CreditIceTime(playerID string, delta int64) {
	if s, ok := a.skaters[playerID]; ok {
		s.iceTime += delta
	}
}

// Apply folds one event into the counters. Events must arrive in sequence
// order; the period index on the event drives period-by-period scoring.
func (a *Aggregator) Apply(ev Event) {
	a.events++
	team := a.teamFor(ev.Team)

	switch d := ev.Detail.(type) {
	case FaceoffDetail:
		a.home.faceoffs++
		a.away.faceoffs++
		a.countFaceoff(d.HomePlayer, d.WonBy == SideHome)
		a.countFaceoff(d.AwayPlayer, d.WonBy == SideAway)
		if d.WonBy == SideHome {
			a.home.faceoffWins++
		} else if d.WonBy == SideAway {
			a.away.faceoffWins++
		}

	case ShotDetail:
		// Shots on goal only: misses and blocks don't reach the goalie.
		if d.Outcome == ShotGoal || d.Outcome == ShotSave {
			team.shots++
			if s, ok := a.skaters[d.Shooter]; ok {
				s.shots++
			}
			if gk, ok := a.goalies[d.Goalie]; ok {
				gk.shotsAgainst++
				if d.Outcome == ShotSave {
					gk.saves++
				}
			}
		}

	case GoalDetail:
		team.goals++
		a.periodGoal(team, ev.Clock)
		if ev.Clock.Type == PeriodShootout {
			// The deciding shootout goal moves the team score only;
			// individual stat lines exclude shootout attempts.
			break
		}
		if ev.Strength == StrengthPowerPlay {
			team.ppGoals++
		}
		if s, ok := a.skaters[d.Scorer]; ok {
			s.goals++
		}
		for _, id := range d.Assists {
			if s, ok := a.skaters[id]; ok {
				s.assists++
			}
		}
		if gk, ok := a.goalies[d.Goalie]; ok {
			gk.goalsAgainst++
		}
		// Plus-minus only moves at even strength.
		if ev.Strength == StrengthEven && ev.Clock.Type != PeriodShootout {
			for _, id := range a.onIceFor {
				if s, ok := a.skaters[id]; ok {
					s.plusMinus++
				}
			}
			for _, id := range a.onIceAgainst {
				if s, ok := a.skaters[id]; ok {
					s.plusMinus--
				}
			}
		}

	case PenaltyDetail:
		team.pim += d.Minutes
		if s, ok := a.skaters[d.Player]; ok {
			s.pim += d.Minutes
		}
		a.teamFor(ev.Team.Opponent()).ppOpportunities++

	case FightDetail:
		// Coincidental majors: five minutes each, no power play.
		a.home.pim += 5
		a.away.pim += 5
		if s, ok := a.skaters[d.HomePlayer]; ok {
			s.pim += 5
		}
		if s, ok := a.skaters[d.AwayPlayer]; ok {
			s.pim += 5
		}

	case ShootoutAttemptDetail:
		// Shootout results live in their own box-score section via the
		// deciding goal; per-skater season stats ignore attempts.
	}
}

func (a *Aggregator) countFaceoff(playerID string, won bool) {
	if s, ok := a.skaters[playerID]; ok {
		s.faceoffs++
		if won {
			s.faceoffWins++
		}
	}
}

func (a *Aggregator) teamFor(s Side) *teamCounters {
	if s == SideAway {
		return &a.away
	}
	return &a.home
}

func (a *Aggregator) periodGoal(team *teamCounters, clk GameClock) {
	for len(team.periodGoals) < clk.Period {
		team.periodGoals = append(team.periodGoals, 0)
	}
	team.periodGoals[clk.Period-1]++
}

// === BoxScore ===

// SkaterLine is one skater's row in the box score.
type SkaterLine struct {
	PlayerID    string  `json:"player_id"`
	Name        string  `json:"name"`
	Number      int     `json:"number"`
	Goals       int     `json:"goals"`
	Assists     int     `json:"assists"`
	Points      int     `json:"points"`
	PlusMinus   int     `json:"plus_minus"`
	Shots       int     `json:"shots"`
	PIM         int     `json:"pim"`
	FaceoffPct  float64 `json:"faceoff_pct"`
	TimeOnIce   int64   `json:"time_on_ice"`
}

// GoalieLine is one goalie's row in the box score.
type GoalieLine struct {
	PlayerID     string  `json:"player_id"`
	Name         string  `json:"name"`
	ShotsAgainst int     `json:"shots_against"`
	Saves        int     `json:"saves"`
	GoalsAgainst int     `json:"goals_against"`
	SavePct      float64 `json:"save_pct"`
}

// TeamStats is one team's aggregate line.
type TeamStats struct {
	TeamID          string  `json:"team_id"`
	Name            string  `json:"name"`
	Score           int     `json:"score"`
	Shots           int     `json:"shots"`
	ShootingPct     float64 `json:"shooting_pct"`
	PIM             int     `json:"pim"`
	PPOpportunities int     `json:"pp_opportunities"`
	PPGoals         int     `json:"pp_goals"`
	FaceoffPct      float64 `json:"faceoff_pct"`
	PeriodGoals     []int   `json:"period_goals"`
}

// BoxScore is the derived statistical summary of a run. It is recomputable
// at any time from the event log and is replaced, never mutated, on each
// Snapshot call.
type BoxScore struct {
	GameID string    `json:"game_id"`
	Home   TeamStats `json:"home"`
	Away   TeamStats `json:"away"`

	HomeSkaters []SkaterLine `json:"home_skaters"`
	AwaySkaters []SkaterLine `json:"away_skaters"`
	HomeGoalies []GoalieLine `json:"home_goalies"`
	AwayGoalies []GoalieLine `json:"away_goalies"`

	Events int `json:"events"`
}

// Snapshot derives a fresh BoxScore from the base counters. Idempotent and
// side-effect free; safe to call between Apply calls under the run's
// single-writer discipline.
func (a *Aggregator) Snapshot() BoxScore {
	box := BoxScore{
		GameID: a.roster.GameID,
		Home:   a.teamStats(&a.roster.Home, &a.home),
		Away:   a.teamStats(&a.roster.Away, &a.away),
		Events: a.events,
	}
	box.HomeSkaters = a.skaterLines(&a.roster.Home)
	box.AwaySkaters = a.skaterLines(&a.roster.Away)
	box.HomeGoalies = a.goalieLines(&a.roster.Home)
	box.AwayGoalies = a.goalieLines(&a.roster.Away)
	return box
}

func (a *Aggregator) teamStats(roster *TeamRoster, c *teamCounters) TeamStats {
	ts := TeamStats{
		TeamID:          roster.TeamID,
		Name:            roster.Name,
		Score:           c.goals,
		Shots:           c.shots,
		PIM:             c.pim,
		PPOpportunities: c.ppOpportunities,
		PPGoals:         c.ppGoals,
		PeriodGoals:     append([]int(nil), c.periodGoals...),
	}
	if c.shots > 0 {
		ts.ShootingPct = pct(c.goals, c.shots)
	}
	if c.faceoffs > 0 {
		ts.FaceoffPct = pct(c.faceoffWins, c.faceoffs)
	}
	return ts
}

func (a *Aggregator) skaterLines(roster *TeamRoster) []SkaterLine {
	lines := make([]SkaterLine, 0, len(roster.Skaters))
	for i := range roster.Skaters {
		p := &roster.Skaters[i]
		c := a.skaters[p.ID]
		line := SkaterLine{
			PlayerID:  p.ID,
			Name:      p.Name,
			Number:    p.Number,
			Goals:     c.goals,
			Assists:   c.assists,
			Points:    c.goals + c.assists,
			PlusMinus: c.plusMinus,
			Shots:     c.shots,
			PIM:       c.pim,
			TimeOnIce: c.iceTime,
		}
		if c.faceoffs > 0 {
			line.FaceoffPct = pct(c.faceoffWins, c.faceoffs)
		}
		lines = append(lines, line)
	}
	return lines
}

func (a *Aggregator) goalieLines(roster *TeamRoster) []GoalieLine {
	lines := make([]GoalieLine, 0, len(roster.Goalies))
	for i := range roster.Goalies {
		p := &roster.Goalies[i]
		c := a.goalies[p.ID]
		line := GoalieLine{
			PlayerID:     p.ID,
			Name:         p.Name,
			ShotsAgainst: c.shotsAgainst,
			Saves:        c.saves,
			GoalsAgainst: c.goalsAgainst,
		}
		if c.shotsAgainst > 0 {
			line.SavePct = float64(c.saves) / float64(c.shotsAgainst)
		}
		lines = append(lines, line)
	}
	return lines
}

func pct(part, whole int) float64 {
	return 100 * float64(part) / float64(whole)
}

// Summary renders a short scoreboard line for logs and the CLI.
func (b *BoxScore) Summary() string {
	return fmt.Sprintf("%s %d : %d %s (shots %d-%d)",
		b.Home.Name, b.Home.Score, b.Away.Score, b.Away.Name,
		b.Home.Shots, b.Away.Shots)
}
