package sim

import (
	"errors"
	"testing"
	"time"
)

func TestConfig_Validate_Default(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig failed validation: %v", err)
	}
}

func TestConfig_Validate_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "unknown mode",
			mutate:    func(c *Config) { c.Mode = "turbo" },
			wantField: "mode",
		},
		{
			name: "accelerated without multiplier",
			mutate: func(c *Config) {
				c.Mode = ModeAccelerated
				c.SpeedMultiplier = 0
			},
			wantField: "speed_multiplier",
		},
		{
			name:      "unknown realism level",
			mutate:    func(c *Config) { c.Realism = "cinematic" },
			wantField: "realism",
		},
		{
			name:      "injury frequency above one",
			mutate:    func(c *Config) { c.InjuryFrequency = 1.5 },
			wantField: "injury_frequency",
		},
		{
			name:      "negative penalty frequency",
			mutate:    func(c *Config) { c.PenaltyFrequency = -0.1 },
			wantField: "penalty_frequency",
		},
		{
			name:      "fighting frequency above one",
			mutate:    func(c *Config) { c.FightingFrequency = 2 },
			wantField: "fighting_frequency",
		},
		{
			name:      "zero overtime length",
			mutate:    func(c *Config) { c.OvertimeMinutes = 0 },
			wantField: "overtime_minutes",
		},
		{
			name:      "oversized overtime length",
			mutate:    func(c *Config) { c.OvertimeMinutes = 25 },
			wantField: "overtime_minutes",
		},
		{
			name: "shootout without overtime",
			mutate: func(c *Config) {
				c.OvertimeEnabled = false
				c.ShootoutEnabled = true
			},
			wantField: "shootout_enabled",
		},
		{
			name:      "negative timeout",
			mutate:    func(c *Config) { c.Timeout = -time.Second },
			wantField: "timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate accepted an invalid config")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate returned %T, want *ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Validate flagged field %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestConfig_Validate_ZeroFrequenciesAllowed(t *testing.T) {
	// GIVEN a config disabling every optional category
	cfg := DefaultConfig()
	cfg.InjuryFrequency = 0
	cfg.PenaltyFrequency = 0
	cfg.FightingFrequency = 0

	// THEN it is still a legal config
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero frequencies rejected: %v", err)
	}
}

func TestConfig_Validate_OvertimeDisabledSkipsLengthCheck(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OvertimeEnabled = false
	cfg.ShootoutEnabled = false
	cfg.OvertimeMinutes = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("overtime length checked while overtime disabled: %v", err)
	}
}
