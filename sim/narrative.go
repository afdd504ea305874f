package sim

import "fmt"

// NarrativeRenderer turns events into descriptive play-by-play text. It is
// stateless and failure-proof: an unrecognized event degrades to a generic
// line instead of surfacing an error, so rendering can never abort a run.
type NarrativeRenderer struct {
	roster *RosterSnapshot
}

// NewNarrativeRenderer binds a renderer to a run's roster for name lookup.
func NewNarrativeRenderer(roster *RosterSnapshot) *NarrativeRenderer {
	return &NarrativeRenderer{roster: roster}
}

// Render produces one line of text for the event.
func (r *NarrativeRenderer) Render(ev Event) string {
	clock := ev.Clock.String()
	switch d := ev.Detail.(type) {
	case PeriodDetail:
		if ev.Kind == KindPeriodEnd {
			return fmt.Sprintf("[%s] End of the period. %s", clock, r.scoreLine(ev))
		}
		return fmt.Sprintf("[%s] The puck is about to drop.", clock)

	case FaceoffDetail:
		return fmt.Sprintf("[%s] %s wins the draw against %s.",
			clock, r.name(d.WonBy, r.pickWinner(d)), r.name(d.WonBy.Opponent(), r.pickLoser(d)))

	case ShotDetail:
		shooter := r.name(ev.Team, d.Shooter)
		switch d.Outcome {
		case ShotSave:
			return fmt.Sprintf("[%s] %s fires on net; %s turns it aside.", clock, shooter, r.name(ev.Team.Opponent(), d.Goalie))
		case ShotMiss:
			return fmt.Sprintf("[%s] %s shoots wide.", clock, shooter)
		case ShotBlocked:
			return fmt.Sprintf("[%s] %s's shot is blocked by %s.", clock, shooter, r.name(ev.Team.Opponent(), d.Blocker))
		case ShotGoal:
			return fmt.Sprintf("[%s] %s beats the goaltender!", clock, shooter)
		}

	case GoalDetail:
		line := fmt.Sprintf("[%s] GOAL %s; %s scores", clock, r.teamName(ev.Team), r.name(ev.Team, d.Scorer))
		switch len(d.Assists) {
		case 1:
			line += fmt.Sprintf(", assisted by %s", r.name(ev.Team, d.Assists[0]))
		case 2:
			line += fmt.Sprintf(", assisted by %s and %s", r.name(ev.Team, d.Assists[0]), r.name(ev.Team, d.Assists[1]))
		}
		return line + ". " + r.scoreLine(ev)

	case PenaltyDetail:
		return fmt.Sprintf("[%s] %s goes off %d minutes for %s.",
			clock, r.name(ev.Team, d.Player), d.Minutes, d.Infraction)

	case PenaltyExpiredDetail:
		return fmt.Sprintf("[%s] %s steps out of the box; back to full strength.", clock, r.name(ev.Team, d.Player))

	case FightDetail:
		return fmt.Sprintf("[%s] Gloves off! %s and %s drop them at center ice.",
			clock, r.name(SideHome, d.HomePlayer), r.name(SideAway, d.AwayPlayer))

	case InjuryDetail:
		return fmt.Sprintf("[%s] %s is down and heads to the room.", clock, r.name(ev.Team, d.Player))

	case ShootoutAttemptDetail:
		verb := "is denied"
		if d.Scored {
			verb = "scores"
		}
		return fmt.Sprintf("[SO round %d] %s %s against %s.",
			d.Round, r.name(ev.Team, d.Shooter), verb, r.name(ev.Team.Opponent(), d.Goalie))

	case GameEndDetail:
		if d.Winner == SideNone {
			return fmt.Sprintf("[%s] That's the game; it ends in a draw. %s", clock, r.scoreLine(ev))
		}
		return fmt.Sprintf("[%s] That's the game! %s take it. %s", clock, r.teamName(d.Winner), r.scoreLine(ev))

	case RunErrorDetail:
		return fmt.Sprintf("Simulation stopped: %s.", d.Cause)
	}

	// Unknown kind: degrade, never fail.
	return fmt.Sprintf("[%s] Play continues.", clock)
}

func (r *NarrativeRenderer) scoreLine(ev Event) string {
	return fmt.Sprintf("%s %d, %s %d.", r.roster.Home.Abbrev, ev.HomeScore, r.roster.Away.Abbrev, ev.AwayScore)
}

func (r *NarrativeRenderer) teamName(s Side) string {
	return r.roster.Team(s).Name
}

func (r *NarrativeRenderer) name(s Side, playerID string) string {
	if playerID == "" {
		return "a defender"
	}
	team := r.roster.Team(s)
	for i := range team.Skaters {
		if team.Skaters[i].ID == playerID {
			return team.Skaters[i].Name
		}
	}
	for i := range team.Goalies {
		if team.Goalies[i].ID == playerID {
			return team.Goalies[i].Name
		}
	}
	return "an unnamed player"
}

func (r *NarrativeRenderer) pickWinner(d FaceoffDetail) string {
	if d.WonBy == SideHome {
		return d.HomePlayer
	}
	return d.AwayPlayer
}

func (r *NarrativeRenderer) pickLoser(d FaceoffDetail) string {
	if d.WonBy == SideHome {
		return d.AwayPlayer
	}
	return d.HomePlayer
}
