package sim

// RealismParams are the tunable rate constants behind a RealismLevel.
// Base rates are hazards per tick (game second) per team at neutral
// ratings; the generator bends them with bounded logistic multipliers.
// The exact constants are a calibration concern, chosen offline to land
// near league-average event counts over a 60-minute game.
type RealismParams struct {
	BaseShotRate    float64 // ~30 shots per team per game at "balanced"
	BasePenaltyRate float64 // ~4 penalties per team per game
	BaseFightRate   float64 // shared hazard, ~0.3 fights per game
	BaseInjuryRate  float64 // shared hazard, ~0.1 injuries per game

	// RatingScale divides rating differentials before the logistic map.
	// Larger values flatten the response to skill gaps.
	RatingScale float64

	// GoalBase is the shot-to-goal conversion at neutral ratings.
	GoalBase float64
	// MissShare and BlockShare split the non-goal mass at neutral defense.
	MissShare  float64
	BlockShare float64

	// ShootoutGoalBase is the attempt conversion at neutral ratings.
	ShootoutGoalBase float64

	// FatigueDrag is the maximum offensive rate loss at full fatigue.
	FatigueDrag float64
}

var realismPresets = map[RealismLevel]RealismParams{
	// Arcade: more shots and goals, skill gaps matter more, few whistles.
	RealismArcade: {
		BaseShotRate:     45.0 / 3600,
		BasePenaltyRate:  2.0 / 3600,
		BaseFightRate:    0.5 / 3600,
		BaseInjuryRate:   0.05 / 3600,
		RatingScale:      12,
		GoalBase:         0.14,
		MissShare:        0.35,
		BlockShare:       0.15,
		ShootoutGoalBase: 0.45,
		FatigueDrag:      0.15,
	},
	RealismBalanced: {
		BaseShotRate:     30.0 / 3600,
		BasePenaltyRate:  4.0 / 3600,
		BaseFightRate:    0.3 / 3600,
		BaseInjuryRate:   0.1 / 3600,
		RatingScale:      18,
		GoalBase:         0.095,
		MissShare:        0.38,
		BlockShare:       0.22,
		ShootoutGoalBase: 0.33,
		FatigueDrag:      0.3,
	},
	// Authentic: tighter scoring, flatter skill response, more whistles.
	RealismAuthentic: {
		BaseShotRate:     29.0 / 3600,
		BasePenaltyRate:  4.5 / 3600,
		BaseFightRate:    0.25 / 3600,
		BaseInjuryRate:   0.12 / 3600,
		RatingScale:      25,
		GoalBase:         0.088,
		MissShare:        0.40,
		BlockShare:       0.25,
		ShootoutGoalBase: 0.31,
		FatigueDrag:      0.35,
	},
}

// ParamsFor resolves the preset behind a validated realism level.
func ParamsFor(level RealismLevel) RealismParams {
	return realismPresets[level]
}

// infractionTable is the fixed categorical table a penalty resolves
// against. Weights are relative; minutes follow rulebook minors.
var infractionTable = []struct {
	name    string
	minutes int
	weight  float64
}{
	{"tripping", 2, 18},
	{"hooking", 2, 16},
	{"slashing", 2, 13},
	{"interference", 2, 12},
	{"holding", 2, 11},
	{"high-sticking", 2, 9},
	{"cross-checking", 2, 8},
	{"roughing", 2, 8},
	{"boarding", 5, 3},
	{"charging", 5, 2},
}
