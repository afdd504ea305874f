package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/hockeysim/hockeysim/sim"
)

func TestDemoRoster_IsLegal(t *testing.T) {
	roster := DemoRoster("demo-1")
	if err := roster.Validate(); err != nil {
		t.Fatalf("demo roster rejected: %v", err)
	}
	if roster.Home.TeamID == roster.Away.TeamID {
		t.Error("demo teams share a team ID")
	}
}

func TestLoadRoster_EmptyPathUsesDemo(t *testing.T) {
	roster, err := loadRoster("")
	if err != nil {
		t.Fatalf("loadRoster: %v", err)
	}
	if len(roster.Home.Skaters) == 0 {
		t.Error("demo roster has no skaters")
	}
}

func TestLoadRoster_RoundTripsYAML(t *testing.T) {
	// GIVEN a roster written to disk
	want := DemoRoster("file-game")
	data, err := yaml.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "roster.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	// WHEN loading it back
	got, err := loadRoster(path)
	if err != nil {
		t.Fatalf("loadRoster: %v", err)
	}

	// THEN the snapshot survives intact
	if got.GameID != "file-game" {
		t.Errorf("game id %q, want file-game", got.GameID)
	}
	if len(got.Home.Skaters) != len(want.Home.Skaters) {
		t.Errorf("home skaters %d, want %d", len(got.Home.Skaters), len(want.Home.Skaters))
	}
	if got.Away.Goalies[0].ID != want.Away.Goalies[0].ID {
		t.Error("goalie identity lost in round trip")
	}
}

func TestLoadRoster_RejectsInvalidFile(t *testing.T) {
	roster := DemoRoster("bad-game")
	roster.Home.Goalies = nil
	data, _ := yaml.Marshal(roster)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := loadRoster(path); err == nil {
		t.Fatal("invalid roster file accepted")
	}
}

func TestLoadRoster_MissingFile(t *testing.T) {
	if _, err := loadRoster(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg != sim.DefaultConfig() {
		t.Errorf("empty path produced %+v, want defaults", cfg)
	}
}

func TestLoadConfig_ReadsYAMLFile(t *testing.T) {
	// GIVEN a config file overriding a few fields
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "realism: authentic\npenalty_frequency: 0.9\nshootout_enabled: false\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	// WHEN it is loaded
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	// THEN file values land on top of defaults
	if cfg.Realism != sim.RealismAuthentic {
		t.Errorf("realism = %q, want authentic", cfg.Realism)
	}
	if cfg.PenaltyFrequency != 0.9 {
		t.Errorf("penalty frequency = %v, want 0.9", cfg.PenaltyFrequency)
	}
	if cfg.ShootoutEnabled {
		t.Error("shootout still enabled after file disabled it")
	}
	if cfg.Mode != sim.DefaultConfig().Mode {
		t.Errorf("untouched field changed: mode = %q", cfg.Mode)
	}
}

func TestLoadConfig_RejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("mode: [not, a, scalar"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Fatal("malformed config file accepted")
	}
}

func TestDemoRoster_PlaysDeterministically(t *testing.T) {
	// Two games from the demo pairing with one seed replay identically.
	cfg := sim.DefaultConfig()
	cfg.Mode = sim.ModeInstant

	g1, err := sim.NewGame(DemoRoster("demo"), cfg, 9)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	g2, _ := sim.NewGame(DemoRoster("demo"), cfg, 9)
	g1.RunToCompletion()
	g2.RunToCompletion()

	s1, s2 := g1.Snapshot(), g2.Snapshot()
	if s1 != s2 {
		t.Errorf("demo game replay diverged: %+v vs %+v", s1, s2)
	}
}
