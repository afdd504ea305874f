package sim

import (
	"fmt"
	"time"
)

// Mode selects how a run's worker paces simulated time against wall-clock
// time. Pacing is purely a scheduling concern: it never touches RNG state,
// so the same seed yields the same events in every mode.
type Mode string

const (
	// ModeRealTime paces each step to match game time one-to-one.
	ModeRealTime Mode = "real_time"
	// ModeAccelerated paces each step at game time divided by SpeedMultiplier.
	ModeAccelerated Mode = "accelerated"
	// ModeInstant applies no pacing at all.
	ModeInstant Mode = "instant"
)

// RealismLevel names a calibrated preset of generator rate parameters.
// See presets.go for the parameter sets behind each level.
type RealismLevel string

const (
	RealismArcade    RealismLevel = "arcade"
	RealismBalanced  RealismLevel = "balanced"
	RealismAuthentic RealismLevel = "authentic"
)

// Config holds the rule and pacing parameters for one simulation run.
// All fields are fixed at admission time; Validate rejects unknown variants
// and out-of-range values before any run state is created.
type Config struct {
	Mode            Mode         `yaml:"mode" json:"mode"`
	SpeedMultiplier float64      `yaml:"speed_multiplier" json:"speed_multiplier"`
	Realism         RealismLevel `yaml:"realism" json:"realism"`

	GeneratePlayByPlay bool `yaml:"generate_play_by_play" json:"generate_play_by_play"`
	GenerateBoxScore   bool `yaml:"generate_box_score" json:"generate_box_score"`

	// Frequency knobs, all bounded [0,1]. A zero frequency disables the
	// category entirely.
	InjuryFrequency   float64 `yaml:"injury_frequency" json:"injury_frequency"`
	PenaltyFrequency  float64 `yaml:"penalty_frequency" json:"penalty_frequency"`
	FightingFrequency float64 `yaml:"fighting_frequency" json:"fighting_frequency"`

	OvertimeEnabled bool `yaml:"overtime_enabled" json:"overtime_enabled"`
	// OvertimeMinutes bounds the sudden-death overtime period.
	OvertimeMinutes int  `yaml:"overtime_minutes" json:"overtime_minutes"`
	ShootoutEnabled bool `yaml:"shootout_enabled" json:"shootout_enabled"`

	// Timeout is the run's maximum wall-clock budget. Zero means the
	// manager default applies.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// DefaultConfig returns the configuration used when a caller supplies none:
// instant pacing, balanced realism, league-standard overtime and shootout.
func DefaultConfig() Config {
	return Config{
		Mode:               ModeInstant,
		SpeedMultiplier:    1,
		Realism:            RealismBalanced,
		GeneratePlayByPlay: true,
		GenerateBoxScore:   true,
		InjuryFrequency:    0.5,
		PenaltyFrequency:   0.5,
		FightingFrequency:  0.5,
		OvertimeEnabled:    true,
		OvertimeMinutes:    5,
		ShootoutEnabled:    true,
	}
}

// Validate checks every config variant and range. The first violation is
// returned as a *ValidationError; a nil return means the config is usable
// as-is by the engine.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeRealTime, ModeAccelerated, ModeInstant:
	default:
		return &ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", c.Mode)}
	}
	if c.Mode == ModeAccelerated && c.SpeedMultiplier <= 0 {
		return &ValidationError{Field: "speed_multiplier", Reason: "must be > 0 in accelerated mode"}
	}
	if _, ok := realismPresets[c.Realism]; !ok {
		return &ValidationError{Field: "realism", Reason: fmt.Sprintf("unknown realism level %q", c.Realism)}
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"injury_frequency", c.InjuryFrequency},
		{"penalty_frequency", c.PenaltyFrequency},
		{"fighting_frequency", c.FightingFrequency},
	} {
		if f.value < 0 || f.value > 1 {
			return &ValidationError{Field: f.name, Reason: "must be within [0,1]"}
		}
	}
	if c.OvertimeEnabled && (c.OvertimeMinutes <= 0 || c.OvertimeMinutes > 20) {
		return &ValidationError{Field: "overtime_minutes", Reason: "must be within (0,20]"}
	}
	if c.ShootoutEnabled && !c.OvertimeEnabled {
		return &ValidationError{Field: "shootout_enabled", Reason: "shootout requires overtime"}
	}
	if c.Timeout < 0 {
		return &ValidationError{Field: "timeout", Reason: "must be >= 0"}
	}
	return nil
}
