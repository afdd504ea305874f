package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hockeysim/hockeysim/sim"
)

// loadRoster reads a roster snapshot from YAML, or returns the built-in
// demo pairing when path is empty. The snapshot is validated before use so
// bad files fail here instead of mid-run.
func loadRoster(path string) (*sim.RosterSnapshot, error) {
	if path == "" {
		return DemoRoster("demo-game"), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var roster sim.RosterSnapshot
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := roster.Validate(); err != nil {
		return nil, fmt.Errorf("invalid roster in %s: %w", path, err)
	}
	return &roster, nil
}

// loadConfig reads a simulation config from YAML, or returns defaults when
// path is empty. Validation happens later, after flag overrides apply.
func loadConfig(path string) (sim.Config, error) {
	cfg := sim.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// DemoRoster builds a ready-to-play snapshot with two fictional teams.
// Ratings are spread so the matchup is close but not symmetric.
func DemoRoster(gameID string) *sim.RosterSnapshot {
	return &sim.RosterSnapshot{
		GameID: gameID,
		Home:   demoTeam("NSH-H", "Northside Harbor", "NSH", 78, 0),
		Away:   demoTeam("SVW-A", "Southvale Wolves", "SVW", 74, 100),
	}
}

// demoTeam fabricates a full bench around a base rating. The offset keeps
// player IDs unique across the two teams.
func demoTeam(teamID, name, abbrev string, base float64, idOffset int) sim.TeamRoster {
	positions := []sim.Position{
		sim.PositionCenter, sim.PositionWing, sim.PositionWing,
		sim.PositionCenter, sim.PositionWing, sim.PositionWing,
		sim.PositionCenter, sim.PositionWing, sim.PositionWing,
		sim.PositionCenter, sim.PositionWing, sim.PositionWing,
		sim.PositionDefense, sim.PositionDefense,
		sim.PositionDefense, sim.PositionDefense,
		sim.PositionDefense, sim.PositionDefense,
	}
	team := sim.TeamRoster{TeamID: teamID, Name: name, Abbrev: abbrev}
	for i, pos := range positions {
		// Deterministic rating spread: stars up front, depth players lower.
		skill := base + 12 - float64(i)
		p := sim.PlayerRatings{
			ID:         fmt.Sprintf("p-%d", idOffset+i+1),
			Name:       fmt.Sprintf("%s Skater %d", abbrev, i+1),
			Number:     10 + i,
			Position:   pos,
			Shooting:   skill,
			Playmaking: skill - 2,
			Defense:    base - 4 + float64(i%6),
			Faceoffs:   base + float64(i%5) - 2,
			Discipline: base - float64(i%7),
			Toughness:  base - 6 + float64(i%9),
			Endurance:  base + float64(i%4),
		}
		if pos == sim.PositionDefense {
			p.Shooting, p.Defense = p.Defense, p.Shooting
		}
		team.Skaters = append(team.Skaters, p)
	}
	for g := 0; g < 2; g++ {
		team.Goalies = append(team.Goalies, sim.PlayerRatings{
			ID:          fmt.Sprintf("p-%d", idOffset+len(positions)+g+1),
			Name:        fmt.Sprintf("%s Goalie %d", abbrev, g+1),
			Number:      30 + g,
			Position:    sim.PositionGoalie,
			Goaltending: base + 6 - float64(8*g),
			Endurance:   base,
			Discipline:  base,
		})
	}
	return team
}
