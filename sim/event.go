package sim

// Kind enumerates the discrete event categories a run can emit. Unknown
// kinds never enter the system: config admission rejects them and the
// generator only produces the variants below.
type Kind string

const (
	KindPeriodStart     Kind = "period_start"
	KindPeriodEnd       Kind = "period_end"
	KindFaceoff         Kind = "faceoff"
	KindShot            Kind = "shot"
	KindGoal            Kind = "goal"
	KindPenalty         Kind = "penalty"
	KindPenaltyExpired  Kind = "penalty_expired"
	KindFight           Kind = "fight"
	KindInjury          Kind = "injury"
	KindShootoutAttempt Kind = "shootout_attempt"
	KindGameEnd         Kind = "game_end"
	// KindRunError is a broadcast-only terminal marker carrying the cause
	// of a Failed or Terminated run. It is never part of the play-by-play.
	KindRunError Kind = "run_error"
)

// Strength is the on-ice numerical situation from the acting team's side.
type Strength string

const (
	StrengthEven        Strength = "even"
	StrengthPowerPlay   Strength = "power_play"
	StrengthShortHanded Strength = "short_handed"
)

// ShotOutcome is the resolved sub-outcome of a shot attempt.
type ShotOutcome string

const (
	ShotGoal    ShotOutcome = "goal"
	ShotSave    ShotOutcome = "save"
	ShotMiss    ShotOutcome = "miss"
	ShotBlocked ShotOutcome = "blocked"
)

// Detail is the per-kind payload of an Event. One variant exists per kind;
// each carries only the fields that kind needs.
type Detail interface{ detailKind() Kind }

type FaceoffDetail struct {
	HomePlayer string `json:"home_player"`
	AwayPlayer string `json:"away_player"`
	WonBy      Side   `json:"won_by"`
}

type ShotDetail struct {
	Shooter string      `json:"shooter"`
	Goalie  string      `json:"goalie"`
	Blocker string      `json:"blocker,omitempty"`
	Outcome ShotOutcome `json:"outcome"`
}

type GoalDetail struct {
	Scorer  string   `json:"scorer"`
	Assists []string `json:"assists,omitempty"`
	Goalie  string   `json:"goalie"`
}

type PenaltyDetail struct {
	Player     string `json:"player"`
	Infraction string `json:"infraction"`
	Minutes    int    `json:"minutes"`
}

type PenaltyExpiredDetail struct {
	Player string `json:"player"`
}

type FightDetail struct {
	HomePlayer string `json:"home_player"`
	AwayPlayer string `json:"away_player"`
}

type InjuryDetail struct {
	Player string `json:"player"`
}

type PeriodDetail struct{}

type ShootoutAttemptDetail struct {
	Round   int    `json:"round"`
	Shooter string `json:"shooter"`
	Goalie  string `json:"goalie"`
	Scored  bool   `json:"scored"`
}

type GameEndDetail struct {
	Winner Side `json:"winner"`
}

type RunErrorDetail struct {
	Status RunStatus `json:"status"`
	Cause  string    `json:"cause"`
}

func (FaceoffDetail) detailKind() Kind         { return KindFaceoff }
func (ShotDetail) detailKind() Kind            { return KindShot }
func (GoalDetail) detailKind() Kind            { return KindGoal }
func (PenaltyDetail) detailKind() Kind         { return KindPenalty }
func (PenaltyExpiredDetail) detailKind() Kind  { return KindPenaltyExpired }
func (FightDetail) detailKind() Kind           { return KindFight }
func (InjuryDetail) detailKind() Kind          { return KindInjury }
func (PeriodDetail) detailKind() Kind          { return KindPeriodStart }
func (ShootoutAttemptDetail) detailKind() Kind { return KindShootoutAttempt }
func (GameEndDetail) detailKind() Kind         { return KindGameEnd }
func (RunErrorDetail) detailKind() Kind        { return KindRunError }

// Event is one immutable entry in a run's play-by-play. Sequence numbers
// are monotonic and gapless within a run, which makes external storage and
// replay idempotent.
type Event struct {
	Sequence  uint64    `json:"sequence"`
	Kind      Kind      `json:"kind"`
	Clock     GameClock `json:"clock"`
	Team      Side      `json:"team,omitempty"`
	Strength  Strength  `json:"strength,omitempty"`
	HomeScore int       `json:"home_score"`
	AwayScore int       `json:"away_score"`
	Detail    Detail    `json:"detail,omitempty"`
}
