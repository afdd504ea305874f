package sim

// Side identifies a team within a run. SideNone marks events that belong
// to neither team (period markers, run errors).
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
	SideNone Side = ""
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	switch s {
	case SideHome:
		return SideAway
	case SideAway:
		return SideHome
	default:
		return SideNone
	}
}

// Position is a skater or goalie position code.
type Position string

const (
	PositionCenter  Position = "C"
	PositionWing    Position = "W"
	PositionDefense Position = "D"
	PositionGoalie  Position = "G"
)

// PlayerRatings are the immutable per-player inputs to the probability
// model. All ratings live on a 0-100 scale; the generator maps rating
// differentials through a bounded logistic, so out-of-range values degrade
// gracefully rather than exploding rates.
type PlayerRatings struct {
	ID       string   `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	Number   int      `yaml:"number" json:"number"`
	Position Position `yaml:"position" json:"position"`

	Shooting   float64 `yaml:"shooting" json:"shooting"`
	Playmaking float64 `yaml:"playmaking" json:"playmaking"`
	Defense    float64 `yaml:"defense" json:"defense"`
	Faceoffs   float64 `yaml:"faceoffs" json:"faceoffs"`
	Discipline float64 `yaml:"discipline" json:"discipline"`
	Toughness  float64 `yaml:"toughness" json:"toughness"`
	Endurance  float64 `yaml:"endurance" json:"endurance"`
	// Goaltending is only meaningful for PositionGoalie.
	Goaltending float64 `yaml:"goaltending" json:"goaltending"`
}

// TeamRoster is one team's half of a RosterSnapshot.
type TeamRoster struct {
	TeamID  string          `yaml:"team_id" json:"team_id"`
	Name    string          `yaml:"name" json:"name"`
	Abbrev  string          `yaml:"abbrev" json:"abbrev"`
	Skaters []PlayerRatings `yaml:"skaters" json:"skaters"`
	Goalies []PlayerRatings `yaml:"goalies" json:"goalies"`
}

// Skater returns the skater with the given ID, or nil.
func (t *TeamRoster) Skater(id string) *PlayerRatings {
	for i := range t.Skaters {
		if t.Skaters[i].ID == id {
			return &t.Skaters[i]
		}
	}
	return nil
}

// OffenseRating is the mean shooting/playmaking skill across skaters.
func (t *TeamRoster) OffenseRating() float64 {
	return t.meanSkater(func(p *PlayerRatings) float64 { return (p.Shooting + p.Playmaking) / 2 })
}

// DefenseRating is the mean defensive skill across skaters.
func (t *TeamRoster) DefenseRating() float64 {
	return t.meanSkater(func(p *PlayerRatings) float64 { return p.Defense })
}

// DisciplineRating is the mean discipline across skaters; lower discipline
// raises the team's penalty hazard.
func (t *TeamRoster) DisciplineRating() float64 {
	return t.meanSkater(func(p *PlayerRatings) float64 { return p.Discipline })
}

func (t *TeamRoster) meanSkater(f func(*PlayerRatings) float64) float64 {
	if len(t.Skaters) == 0 {
		return 0
	}
	var sum float64
	for i := range t.Skaters {
		sum += f(&t.Skaters[i])
	}
	return sum / float64(len(t.Skaters))
}

// RosterSnapshot is the immutable pair of rosters a run is bound to at
// start. The engine owns it for the run's lifetime and never mutates it.
type RosterSnapshot struct {
	GameID string     `yaml:"game_id" json:"game_id"`
	Home   TeamRoster `yaml:"home" json:"home"`
	Away   TeamRoster `yaml:"away" json:"away"`
}

// Team returns the roster for the given side.
func (r *RosterSnapshot) Team(s Side) *TeamRoster {
	if s == SideHome {
		return &r.Home
	}
	return &r.Away
}

// Validate checks that both rosters can dress a legal lineup.
func (r *RosterSnapshot) Validate() error {
	if r.GameID == "" {
		return &ValidationError{Field: "game_id", Reason: "must not be empty"}
	}
	for _, side := range []struct {
		name string
		team *TeamRoster
	}{{"home", &r.Home}, {"away", &r.Away}} {
		if len(side.team.Skaters) < 6 {
			return &ValidationError{Field: side.name + ".skaters", Reason: "need at least 6 skaters"}
		}
		if len(side.team.Goalies) < 1 {
			return &ValidationError{Field: side.name + ".goalies", Reason: "need at least 1 goalie"}
		}
		seen := make(map[string]bool)
		for _, p := range append(append([]PlayerRatings{}, side.team.Skaters...), side.team.Goalies...) {
			if p.ID == "" {
				return &ValidationError{Field: side.name, Reason: "player without id"}
			}
			if seen[p.ID] {
				return &ValidationError{Field: side.name, Reason: "duplicate player id " + p.ID}
			}
			seen[p.ID] = true
		}
	}
	return nil
}
