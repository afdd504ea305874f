package sim

import (
	"strings"
	"testing"
)

func TestNarrativeRenderer_GoalMentionsScorerAndAssists(t *testing.T) {
	roster := newTestRoster("g1")
	r := NewNarrativeRenderer(roster)

	line := r.Render(Event{
		Kind:  KindGoal,
		Clock: GameClock{Period: 2, Type: PeriodRegulation, Remaining: 600},
		Team:  SideHome, HomeScore: 2, AwayScore: 1,
		Detail: GoalDetail{
			Scorer:  roster.Home.Skaters[0].ID,
			Assists: []string{roster.Home.Skaters[1].ID, roster.Home.Skaters[2].ID},
		},
	})

	for _, want := range []string{
		roster.Home.Skaters[0].Name,
		roster.Home.Skaters[1].Name,
		roster.Home.Skaters[2].Name,
		"GOAL",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("goal line %q missing %q", line, want)
		}
	}
}

func TestNarrativeRenderer_CoversEveryKind(t *testing.T) {
	roster := newTestRoster("g1")
	r := NewNarrativeRenderer(roster)
	clk := GameClock{Period: 1, Type: PeriodRegulation, Remaining: 1000}

	events := []Event{
		{Kind: KindPeriodStart, Clock: clk, Detail: PeriodDetail{}},
		{Kind: KindPeriodEnd, Clock: clk, Detail: PeriodDetail{}},
		{Kind: KindFaceoff, Clock: clk, Team: SideHome, Detail: FaceoffDetail{HomePlayer: roster.Home.Skaters[0].ID, AwayPlayer: roster.Away.Skaters[0].ID, WonBy: SideHome}},
		{Kind: KindShot, Clock: clk, Team: SideAway, Detail: ShotDetail{Shooter: roster.Away.Skaters[0].ID, Goalie: roster.Home.Goalies[0].ID, Outcome: ShotSave}},
		{Kind: KindShot, Clock: clk, Team: SideAway, Detail: ShotDetail{Shooter: roster.Away.Skaters[0].ID, Outcome: ShotMiss}},
		{Kind: KindShot, Clock: clk, Team: SideAway, Detail: ShotDetail{Shooter: roster.Away.Skaters[0].ID, Blocker: roster.Home.Skaters[9].ID, Outcome: ShotBlocked}},
		{Kind: KindPenalty, Clock: clk, Team: SideHome, Detail: PenaltyDetail{Player: roster.Home.Skaters[3].ID, Infraction: "hooking", Minutes: 2}},
		{Kind: KindPenaltyExpired, Clock: clk, Team: SideHome, Detail: PenaltyExpiredDetail{Player: roster.Home.Skaters[3].ID}},
		{Kind: KindFight, Clock: clk, Detail: FightDetail{HomePlayer: roster.Home.Skaters[4].ID, AwayPlayer: roster.Away.Skaters[4].ID}},
		{Kind: KindInjury, Clock: clk, Team: SideAway, Detail: InjuryDetail{Player: roster.Away.Skaters[2].ID}},
		{Kind: KindShootoutAttempt, Clock: GameClock{Period: 5, Type: PeriodShootout}, Team: SideHome, Detail: ShootoutAttemptDetail{Round: 1, Shooter: roster.Home.Skaters[0].ID, Goalie: roster.Away.Goalies[0].ID, Scored: true}},
		{Kind: KindGameEnd, Clock: clk, Team: SideHome, Detail: GameEndDetail{Winner: SideHome}},
		{Kind: KindGameEnd, Clock: clk, Detail: GameEndDetail{Winner: SideNone}},
		{Kind: KindRunError, Clock: clk, Detail: RunErrorDetail{Status: StatusFailed, Cause: "boom"}},
	}

	for _, ev := range events {
		if line := r.Render(ev); line == "" {
			t.Errorf("kind %s rendered empty", ev.Kind)
		}
	}
}

func TestNarrativeRenderer_UnknownEventDegradesGracefully(t *testing.T) {
	// GIVEN an event with no recognized detail payload
	r := NewNarrativeRenderer(newTestRoster("g1"))
	ev := Event{
		Kind:  Kind("zamboni_break"),
		Clock: GameClock{Period: 1, Type: PeriodRegulation, Remaining: 42},
	}

	// THEN rendering still yields a usable line
	line := r.Render(ev)
	if !strings.Contains(line, "Play continues") {
		t.Errorf("unknown kind rendered %q, want generic continuation", line)
	}
}

func TestNarrativeRenderer_UnknownPlayerGetsPlaceholder(t *testing.T) {
	r := NewNarrativeRenderer(newTestRoster("g1"))
	line := r.Render(Event{
		Kind:  KindInjury,
		Clock: GameClock{Period: 1, Type: PeriodRegulation, Remaining: 42},
		Team:  SideHome,
		Detail: InjuryDetail{Player: "ghost"},
	})
	if !strings.Contains(line, "an unnamed player") {
		t.Errorf("unknown player rendered %q", line)
	}
}
