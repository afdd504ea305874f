package sim

import "math/rand"

// Lines is a coach's dressed lineup: forward lines and defense pairs in
// rotation order plus the starting goalie.
type Lines struct {
	Forwards     [][]string // up to four lines of skater IDs
	DefensePairs [][]string // up to three pairs of skater IDs
	StartingGoalie string
}

// Formation tunes a team's in-game posture. Multipliers are bounded by the
// coach implementation; the generator clamps them again defensively at the
// rate level through the logistic mapping.
type Formation struct {
	// OffensiveBias scales the team's shot hazard. 1.0 is neutral.
	OffensiveBias float64
	// AggressionBias scales the team's penalty and fight hazards. 1.0 is neutral.
	AggressionBias float64
}

// Situation is the context a coach sees when adjusting formation.
type Situation struct {
	Side         Side
	ScoreDiff    int // own score minus opponent score
	Period       int
	PeriodType   PeriodType
	TicksLeft    int64
	Strength     Strength
}

// Coach is the pluggable strategy capability. Implementations are resolved
// once per team before a run starts and injected into the engine; they are
// consulted only at faceoff boundaries so a swapped-in coach can never
// split a step.
type Coach interface {
	// SelectLines builds the lineup from the roster. Line shuffling may use
	// rng (the run's lineups subsystem), keeping replay intact.
	SelectLines(team *TeamRoster, rng *rand.Rand) Lines
	// AdjustFormation returns the posture for the current situation.
	AdjustFormation(sit Situation) Formation
}

// DefaultCoach dresses lines by rating order and plays a mildly score-aware
// game: push when trailing late, sit back when protecting a lead.
type DefaultCoach struct{}

// SelectLines orders skaters by composite rating and slices them into
// three forward lines and three defense pairs. Ties are broken by roster
// order, which is part of the run's immutable snapshot.
func (DefaultCoach) SelectLines(team *TeamRoster, rng *rand.Rand) Lines {
	forwards := make([]string, 0, len(team.Skaters))
	defense := make([]string, 0, len(team.Skaters))
	for _, grp := range rankSkaters(team) {
		if grp.Position == PositionDefense {
			defense = append(defense, grp.ID)
		} else {
			forwards = append(forwards, grp.ID)
		}
	}
	// A roster without enough defensemen fills pairs from the forward pool.
	for len(defense) < 4 && len(forwards) > 3 {
		defense = append(defense, forwards[len(forwards)-1])
		forwards = forwards[:len(forwards)-1]
	}

	lines := Lines{StartingGoalie: team.Goalies[0].ID}
	for i := 0; i < len(forwards); i += 3 {
		end := min(i+3, len(forwards))
		lines.Forwards = append(lines.Forwards, forwards[i:end])
		if len(lines.Forwards) == 4 {
			break
		}
	}
	for i := 0; i+1 < len(defense); i += 2 {
		lines.DefensePairs = append(lines.DefensePairs, defense[i:i+2])
		if len(lines.DefensePairs) == 3 {
			break
		}
	}
	return lines
}

// AdjustFormation pushes offense when trailing in the third period and
// tightens up when defending a one-goal lead.
func (DefaultCoach) AdjustFormation(sit Situation) Formation {
	f := Formation{OffensiveBias: 1.0, AggressionBias: 1.0}
	late := sit.PeriodType == PeriodRegulation && sit.Period == RegulationPeriods
	switch {
	case late && sit.ScoreDiff < 0:
		f.OffensiveBias = 1.25
		f.AggressionBias = 1.1
	case late && sit.ScoreDiff == 1:
		f.OffensiveBias = 0.85
		f.AggressionBias = 0.9
	case sit.Strength == StrengthPowerPlay:
		f.OffensiveBias = 1.35
	case sit.Strength == StrengthShortHanded:
		f.OffensiveBias = 0.55
	}
	return f
}

type rankedSkater struct {
	ID       string
	Position Position
	score    float64
}

func rankSkaters(team *TeamRoster) []rankedSkater {
	out := make([]rankedSkater, 0, len(team.Skaters))
	for i := range team.Skaters {
		p := &team.Skaters[i]
		out = append(out, rankedSkater{
			ID:       p.ID,
			Position: p.Position,
			score:    p.Shooting + p.Playmaking + p.Defense,
		})
	}
	// Insertion sort keeps roster order on ties without importing sort's
	// unstable variant.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].score > out[j-1].score; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
