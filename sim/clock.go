package sim

import "fmt"

// Ticks measure game time in seconds.
const (
	RegulationPeriods     = 3
	RegulationPeriodTicks = 20 * 60
)

// PeriodType distinguishes the three clock regimes of a game.
type PeriodType string

const (
	PeriodRegulation PeriodType = "regulation"
	PeriodOvertime   PeriodType = "overtime"
	PeriodShootout   PeriodType = "shootout"
)

// GameClock tracks the simulated clock. Remaining is strictly
// non-increasing within a period and resets only on period transitions;
// a regression panics, which the run worker converts to a Failed run.
type GameClock struct {
	Period    int        `json:"period"`
	Type      PeriodType `json:"period_type"`
	Remaining int64      `json:"remaining"`
}

// Advance consumes delta ticks from the current period.
func (c *GameClock) Advance(delta int64) {
	if delta < 0 {
		panic(fmt.Sprintf("clock advanced by negative delta %d", delta))
	}
	if delta > c.Remaining {
		panic(fmt.Sprintf("clock advanced past period end: delta=%d remaining=%d", delta, c.Remaining))
	}
	c.Remaining -= delta
}

// NextPeriod resets the clock for the following period of the given type.
// Shootouts are untimed, so periodTicks is zero for them.
func (c *GameClock) NextPeriod(t PeriodType, periodTicks int64) {
	c.Period++
	c.Type = t
	c.Remaining = periodTicks
}

// String renders the clock as "P2 12:34" style text for logs and narratives.
func (c *GameClock) String() string {
	min := c.Remaining / 60
	sec := c.Remaining % 60
	switch c.Type {
	case PeriodOvertime:
		return fmt.Sprintf("OT %d:%02d", min, sec)
	case PeriodShootout:
		return "SO"
	default:
		return fmt.Sprintf("P%d %d:%02d", c.Period, min, sec)
	}
}
