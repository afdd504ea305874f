package sim

import "fmt"

// newTestRoster builds a legal two-team snapshot with deterministic,
// mildly asymmetric ratings. 12 skaters and 2 goalies per side.
func newTestRoster(gameID string) *RosterSnapshot {
	return &RosterSnapshot{
		GameID: gameID,
		Home:   newTestTeam("HOME", "Home Club", 78, 0),
		Away:   newTestTeam("AWAY", "Away Club", 72, 100),
	}
}

func newTestTeam(abbrev, name string, base float64, idOffset int) TeamRoster {
	team := TeamRoster{TeamID: abbrev + "-id", Name: name, Abbrev: abbrev}
	positions := []Position{
		PositionCenter, PositionWing, PositionWing,
		PositionCenter, PositionWing, PositionWing,
		PositionCenter, PositionWing, PositionWing,
		PositionDefense, PositionDefense, PositionDefense,
	}
	for i, pos := range positions {
		team.Skaters = append(team.Skaters, PlayerRatings{
			ID:         fmt.Sprintf("sk-%d", idOffset+i),
			Name:       fmt.Sprintf("%s Skater %d", abbrev, i),
			Number:     10 + i,
			Position:   pos,
			Shooting:   base + float64(10-i),
			Playmaking: base + float64(8-i),
			Defense:    base - 5 + float64(i),
			Faceoffs:   base,
			Discipline: base - float64(i%5),
			Toughness:  base - 10 + float64(i),
			Endurance:  base,
		})
	}
	for g := 0; g < 2; g++ {
		team.Goalies = append(team.Goalies, PlayerRatings{
			ID:          fmt.Sprintf("gk-%d", idOffset+g),
			Name:        fmt.Sprintf("%s Goalie %d", abbrev, g),
			Number:      30 + g,
			Position:    PositionGoalie,
			Goaltending: base + 4,
			Endurance:   base,
			Discipline:  base,
		})
	}
	return team
}

// instantConfig is the fastest full-featured config for engine tests.
func instantConfig() Config {
	cfg := DefaultConfig()
	cfg.Mode = ModeInstant
	return cfg
}

// mustGame builds a game or fails the test via panic (constructor errors
// in tests indicate a broken helper, not a failed assertion).
func mustGame(roster *RosterSnapshot, cfg Config, seed int64) *Game {
	g, err := NewGame(roster, cfg, seed)
	if err != nil {
		panic(err)
	}
	return g
}
