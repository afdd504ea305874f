package sim

import "testing"

func regulationClock() GameClock {
	return GameClock{Period: 1, Type: PeriodRegulation, Remaining: 900}
}

func TestAggregator_GoalCreditsScorerAssistsAndGoalie(t *testing.T) {
	roster := newTestRoster("g1")
	a := NewAggregator(roster)
	scorer := roster.Home.Skaters[0].ID
	assist1 := roster.Home.Skaters[1].ID
	assist2 := roster.Home.Skaters[2].ID
	goalie := roster.Away.Goalies[0].ID

	a.SetOnIce(
		[]string{scorer, assist1, assist2},
		[]string{roster.Away.Skaters[0].ID, roster.Away.Skaters[1].ID},
	)
	a.Apply(Event{
		Sequence: 1, Kind: KindGoal, Clock: regulationClock(),
		Team: SideHome, Strength: StrengthEven,
		Detail: GoalDetail{Scorer: scorer, Assists: []string{assist1, assist2}, Goalie: goalie},
	})

	box := a.Snapshot()
	if box.Home.Score != 1 {
		t.Errorf("home score = %d, want 1", box.Home.Score)
	}
	lines := map[string]SkaterLine{}
	for _, l := range append(box.HomeSkaters, box.AwaySkaters...) {
		lines[l.PlayerID] = l
	}
	if lines[scorer].Goals != 1 || lines[scorer].Points != 1 {
		t.Errorf("scorer line %+v, want one goal one point", lines[scorer])
	}
	if lines[assist1].Assists != 1 || lines[assist2].Assists != 1 {
		t.Error("assists not credited")
	}
	// Even-strength goal moves plus-minus both ways.
	if lines[scorer].PlusMinus != 1 {
		t.Errorf("scorer plus-minus = %d, want +1", lines[scorer].PlusMinus)
	}
	if lines[roster.Away.Skaters[0].ID].PlusMinus != -1 {
		t.Error("conceding skater not at -1")
	}
	for _, gl := range box.AwayGoalies {
		if gl.PlayerID == goalie && gl.GoalsAgainst != 1 {
			t.Errorf("goalie goals against = %d, want 1", gl.GoalsAgainst)
		}
	}
}

func TestAggregator_PowerPlayGoalSkipsPlusMinus(t *testing.T) {
	roster := newTestRoster("g1")
	a := NewAggregator(roster)
	scorer := roster.Home.Skaters[0].ID

	a.SetOnIce([]string{scorer}, []string{roster.Away.Skaters[0].ID})
	a.Apply(Event{
		Sequence: 1, Kind: KindGoal, Clock: regulationClock(),
		Team: SideHome, Strength: StrengthPowerPlay,
		Detail: GoalDetail{Scorer: scorer},
	})

	box := a.Snapshot()
	if box.Home.PPGoals != 1 {
		t.Errorf("pp goals = %d, want 1", box.Home.PPGoals)
	}
	for _, l := range append(box.HomeSkaters, box.AwaySkaters...) {
		if l.PlusMinus != 0 {
			t.Errorf("%s plus-minus = %d on a power-play goal, want 0", l.PlayerID, l.PlusMinus)
		}
	}
}

func TestAggregator_ShootoutGoalMovesTeamScoreOnly(t *testing.T) {
	// GIVEN the deciding shootout goal
	roster := newTestRoster("g1")
	a := NewAggregator(roster)
	scorer := roster.Home.Skaters[0].ID
	goalie := roster.Away.Goalies[0].ID

	a.Apply(Event{
		Sequence: 1, Kind: KindGoal,
		Clock: GameClock{Period: 5, Type: PeriodShootout},
		Team:  SideHome, Strength: StrengthEven,
		Detail: GoalDetail{Scorer: scorer, Goalie: goalie},
	})

	// THEN the scoreboard moves but no individual line does
	box := a.Snapshot()
	if box.Home.Score != 1 {
		t.Errorf("home score = %d, want 1", box.Home.Score)
	}
	for _, l := range box.HomeSkaters {
		if l.Goals != 0 {
			t.Errorf("%s credited a personal goal for a shootout win", l.PlayerID)
		}
	}
	for _, gl := range box.AwayGoalies {
		if gl.GoalsAgainst != 0 {
			t.Error("goalie charged for the shootout deciding goal")
		}
	}
}

func TestAggregator_ShotsOnGoalExcludeMissesAndBlocks(t *testing.T) {
	roster := newTestRoster("g1")
	a := NewAggregator(roster)
	shooter := roster.Home.Skaters[0].ID
	goalie := roster.Away.Goalies[0].ID

	outcomes := []ShotOutcome{ShotSave, ShotMiss, ShotBlocked, ShotGoal}
	for i, out := range outcomes {
		a.Apply(Event{
			Sequence: uint64(i + 1), Kind: KindShot, Clock: regulationClock(),
			Team:   SideHome,
			Detail: ShotDetail{Shooter: shooter, Goalie: goalie, Outcome: out},
		})
	}

	box := a.Snapshot()
	if box.Home.Shots != 2 {
		t.Errorf("shots on goal = %d, want 2 (save + goal)", box.Home.Shots)
	}
	for _, gl := range box.AwayGoalies {
		if gl.PlayerID != goalie {
			continue
		}
		if gl.ShotsAgainst != 2 || gl.Saves != 1 {
			t.Errorf("goalie faced %d saved %d, want 2/1", gl.ShotsAgainst, gl.Saves)
		}
		if gl.SavePct != 0.5 {
			t.Errorf("save pct = %v, want 0.5", gl.SavePct)
		}
	}
}

func TestAggregator_PenaltyCountsPIMAndOpportunity(t *testing.T) {
	roster := newTestRoster("g1")
	a := NewAggregator(roster)
	offender := roster.Away.Skaters[2].ID

	a.Apply(Event{
		Sequence: 1, Kind: KindPenalty, Clock: regulationClock(),
		Team:   SideAway,
		Detail: PenaltyDetail{Player: offender, Infraction: "tripping", Minutes: 2},
	})

	box := a.Snapshot()
	if box.Away.PIM != 2 {
		t.Errorf("away PIM = %d, want 2", box.Away.PIM)
	}
	if box.Home.PPOpportunities != 1 {
		t.Errorf("home pp opportunities = %d, want 1", box.Home.PPOpportunities)
	}
	if box.Away.PPOpportunities != 0 {
		t.Error("penalized side granted its own opportunity")
	}
}

func TestAggregator_FightIsCoincidentalMajors(t *testing.T) {
	roster := newTestRoster("g1")
	a := NewAggregator(roster)
	h := roster.Home.Skaters[5].ID
	aw := roster.Away.Skaters[5].ID

	a.Apply(Event{
		Sequence: 1, Kind: KindFight, Clock: regulationClock(),
		Team:   SideNone,
		Detail: FightDetail{HomePlayer: h, AwayPlayer: aw},
	})

	box := a.Snapshot()
	if box.Home.PIM != 5 || box.Away.PIM != 5 {
		t.Errorf("PIM %d/%d, want 5/5", box.Home.PIM, box.Away.PIM)
	}
	if box.Home.PPOpportunities != 0 || box.Away.PPOpportunities != 0 {
		t.Error("coincidental majors granted a power play")
	}
}

func TestAggregator_FaceoffPercentages(t *testing.T) {
	roster := newTestRoster("g1")
	a := NewAggregator(roster)
	hc := roster.Home.Skaters[0].ID
	ac := roster.Away.Skaters[0].ID

	for i, winner := range []Side{SideHome, SideHome, SideAway, SideHome} {
		a.Apply(Event{
			Sequence: uint64(i + 1), Kind: KindFaceoff, Clock: regulationClock(),
			Team:   winner,
			Detail: FaceoffDetail{HomePlayer: hc, AwayPlayer: ac, WonBy: winner},
		})
	}

	box := a.Snapshot()
	if box.Home.FaceoffPct != 75 {
		t.Errorf("home faceoff pct = %v, want 75", box.Home.FaceoffPct)
	}
	for _, l := range box.HomeSkaters {
		if l.PlayerID == hc && l.FaceoffPct != 75 {
			t.Errorf("center faceoff pct = %v, want 75", l.FaceoffPct)
		}
	}
}

func TestAggregator_PeriodGoals(t *testing.T) {
	roster := newTestRoster("g1")
	a := NewAggregator(roster)

	clocks := []GameClock{
		{Period: 1, Type: PeriodRegulation, Remaining: 100},
		{Period: 3, Type: PeriodRegulation, Remaining: 50},
		{Period: 3, Type: PeriodRegulation, Remaining: 10},
	}
	for i, clk := range clocks {
		a.Apply(Event{
			Sequence: uint64(i + 1), Kind: KindGoal, Clock: clk,
			Team: SideHome, Strength: StrengthEven,
			Detail: GoalDetail{Scorer: roster.Home.Skaters[0].ID},
		})
	}

	box := a.Snapshot()
	want := []int{1, 0, 2}
	if len(box.Home.PeriodGoals) != len(want) {
		t.Fatalf("period goals %v, want %v", box.Home.PeriodGoals, want)
	}
	for i := range want {
		if box.Home.PeriodGoals[i] != want[i] {
			t.Fatalf("period goals %v, want %v", box.Home.PeriodGoals, want)
		}
	}
}

func TestAggregator_IceTimeCredit(t *testing.T) {
	roster := newTestRoster("g1")
	a := NewAggregator(roster)
	id := roster.Home.Skaters[0].ID

	a.CreditIceTime(id, 30)
	a.CreditIceTime(id, 15)
	a.CreditIceTime("nobody", 99)

	box := a.Snapshot()
	for _, l := range box.HomeSkaters {
		if l.PlayerID == id && l.TimeOnIce != 45 {
			t.Errorf("time on ice = %d, want 45", l.TimeOnIce)
		}
	}
}
