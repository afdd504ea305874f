package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hockeysim/hockeysim/sim"
)

var (
	// CLI flags for a single offline run
	seed              int64   // Seed driving every stochastic draw
	rosterPath        string  // Path to a roster snapshot YAML; empty uses the built-in demo pairing
	configPath        string  // Path to a simulation config YAML; flags override its values
	realism           string  // Realism preset name
	injuryFrequency   float64 // Injury frequency knob [0,1]
	penaltyFrequency  float64 // Penalty frequency knob [0,1]
	fightingFrequency float64 // Fighting frequency knob [0,1]
	overtime          bool    // Play sudden-death overtime when regulation ends tied
	overtimeMinutes   int     // Length of the overtime period
	shootout          bool    // Settle with a shootout when overtime stays scoreless
	playByPlay        bool    // Print the narrative play-by-play feed
	boxScoreJSON      string  // Write the box score as JSON to this path ("-" for stdout)
	eventsJSON        string  // Write the raw event log as JSON to this path
)

// runCmd simulates one game offline and prints the result
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate one game and print the result",
	Run: func(cmd *cobra.Command, args []string) {
		roster, err := loadRoster(rosterPath)
		if err != nil {
			logrus.Fatalf("unable to load roster: %v", err)
		}

		cfg, err := loadConfig(configPath)
		if err != nil {
			logrus.Fatalf("unable to load config: %v", err)
		}
		flags := cmd.Flags()
		if flags.Changed("realism") {
			cfg.Realism = sim.RealismLevel(realism)
		}
		if flags.Changed("injury-frequency") {
			cfg.InjuryFrequency = injuryFrequency
		}
		if flags.Changed("penalty-frequency") {
			cfg.PenaltyFrequency = penaltyFrequency
		}
		if flags.Changed("fighting-frequency") {
			cfg.FightingFrequency = fightingFrequency
		}
		if flags.Changed("overtime") {
			cfg.OvertimeEnabled = overtime
		}
		if flags.Changed("overtime-minutes") {
			cfg.OvertimeMinutes = overtimeMinutes
		}
		if flags.Changed("shootout") {
			cfg.ShootoutEnabled = shootout
		}
		cfg.GeneratePlayByPlay = cfg.GeneratePlayByPlay || playByPlay || eventsJSON != ""

		logrus.Infof("Starting simulation of game %s with seed=%d, realism=%s", roster.GameID, seed, cfg.Realism)
		startTime := time.Now()

		game, err := sim.NewGame(roster, cfg, seed)
		if err != nil {
			logrus.Fatalf("unable to start game: %v", err)
		}

		if playByPlay {
			renderer := sim.NewNarrativeRenderer(roster)
			game.AttachSink(printSink{renderer})
		}

		game.RunToCompletion()

		box := game.BoxScore()
		fmt.Println(box.Summary())
		logrus.Infof("Simulation complete in %v (%d events).", time.Since(startTime), len(game.Events()))

		if boxScoreJSON != "" {
			if err := writeJSONOutput(boxScoreJSON, box); err != nil {
				logrus.Fatalf("unable to write box score: %v", err)
			}
		}
		if eventsJSON != "" {
			if err := writeJSONOutput(eventsJSON, game.Events()); err != nil {
				logrus.Fatalf("unable to write event log: %v", err)
			}
		}
	},
}

// printSink renders each event to stdout as it is emitted.
type printSink struct {
	renderer *sim.NarrativeRenderer
}

func (p printSink) Publish(ev sim.Event, _ sim.Snapshot) {
	fmt.Println(p.renderer.Render(ev))
}

func writeJSONOutput(path string, v any) error {
	out := os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for all stochastic draws")
	runCmd.Flags().StringVar(&rosterPath, "roster", "", "Roster snapshot YAML (built-in demo rosters when empty)")
	runCmd.Flags().StringVar(&configPath, "config", "", "Simulation config YAML (defaults when empty; flags override file values)")
	runCmd.Flags().StringVar(&realism, "realism", string(sim.RealismBalanced), "Realism preset (arcade, balanced, authentic)")
	runCmd.Flags().Float64Var(&injuryFrequency, "injury-frequency", 0.5, "Injury frequency within [0,1]")
	runCmd.Flags().Float64Var(&penaltyFrequency, "penalty-frequency", 0.5, "Penalty frequency within [0,1]")
	runCmd.Flags().Float64Var(&fightingFrequency, "fighting-frequency", 0.5, "Fighting frequency within [0,1]")
	runCmd.Flags().BoolVar(&overtime, "overtime", true, "Play sudden-death overtime on a regulation tie")
	runCmd.Flags().IntVar(&overtimeMinutes, "overtime-minutes", 5, "Overtime period length in minutes")
	runCmd.Flags().BoolVar(&shootout, "shootout", true, "Settle a scoreless overtime with a shootout")
	runCmd.Flags().BoolVar(&playByPlay, "play-by-play", false, "Print the narrative play-by-play feed")
	runCmd.Flags().StringVar(&boxScoreJSON, "box-score-json", "", "Write the box score as JSON to this path (- for stdout)")
	runCmd.Flags().StringVar(&eventsJSON, "events-json", "", "Write the raw event log as JSON to this path (- for stdout)")

	rootCmd.AddCommand(runCmd)
}
