package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hockeysim/hockeysim/server"
	"github.com/hockeysim/hockeysim/sim"
	"github.com/hockeysim/hockeysim/sim/broadcast"
	"github.com/hockeysim/hockeysim/sim/manager"
	"github.com/hockeysim/hockeysim/store"
)

var (
	// CLI flags for the API server
	addr            string // HTTP listen address
	maxConcurrent   int    // Fixed budget of simultaneously running games
	queueCapacity   int    // FIFO admission queue size beyond the budget
	defaultTimeout  time.Duration
	subscriberDepth int    // Per-subscriber frame queue depth
	postgresDSN     string // Optional results store; empty disables persistence
	natsURL         string // Optional event bridge; empty disables it
	demoGames       int    // Number of demo game rosters to preload
)

// serveCmd runs the simulation API server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the simulation API over HTTP and WebSocket",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var sink store.Sink = store.NopSink{}
		if postgresDSN != "" {
			pg, err := store.OpenPostgres(postgresDSN)
			if err != nil {
				logrus.Fatalf("unable to open results store: %v", err)
			}
			defer pg.Close()
			sink = pg
			logrus.Info("results store connected")
		}

		mgrCfg := manager.DefaultConfig()
		mgrCfg.MaxConcurrentGames = maxConcurrent
		mgrCfg.QueueCapacity = queueCapacity
		mgrCfg.DefaultTimeout = defaultTimeout
		mgrCfg.SubscriberQueueDepth = subscriberDepth

		if natsURL != "" {
			nc, err := nats.Connect(natsURL, nats.Name("hockeysim"))
			if err != nil {
				logrus.Fatalf("unable to connect event bridge: %v", err)
			}
			defer nc.Close()
			mgrCfg.SinkFactory = func(gameID string) sim.EventSink {
				return broadcast.NewNATSBridge(nc, gameID)
			}
			logrus.Info("event bridge connected")
		}

		mgr := manager.New(mgrCfg, sink, prometheus.DefaultRegisterer)
		defer mgr.Close()

		srvCfg := server.DefaultConfig()
		srvCfg.Addr = addr
		srv := server.New(srvCfg, mgr, demoProvider(demoGames))

		if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server exited: %v", err)
		}
		logrus.Info("server stopped")
	},
}

// demoProvider preloads n demo game rosters (game IDs demo-1..demo-n) so
// the server is playable out of the box. Inline rosters in the start
// request bypass it entirely.
func demoProvider(n int) server.StaticProvider {
	p := make(server.StaticProvider, n)
	for i := 1; i <= n; i++ {
		id := "demo-" + strconv.Itoa(i)
		p[id] = DemoRoster(id)
	}
	return p
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	serveCmd.Flags().IntVar(&maxConcurrent, "max-concurrent-games", 4, "Maximum number of games simulating at once")
	serveCmd.Flags().IntVar(&queueCapacity, "queue-capacity", 32, "Admission queue size beyond the concurrency budget")
	serveCmd.Flags().DurationVar(&defaultTimeout, "default-timeout", 2*time.Hour, "Per-run wall-clock budget when the request carries none")
	serveCmd.Flags().IntVar(&subscriberDepth, "subscriber-queue-depth", broadcast.DefaultQueueDepth, "Per-subscriber frame queue depth")
	serveCmd.Flags().StringVar(&postgresDSN, "postgres-dsn", "", "PostgreSQL DSN for persisting results (disabled when empty)")
	serveCmd.Flags().StringVar(&natsURL, "nats-url", "", "NATS URL for the external event bridge (disabled when empty)")
	serveCmd.Flags().IntVar(&demoGames, "demo-games", 4, "Number of built-in demo game rosters to preload")

	rootCmd.AddCommand(serveCmd)
}
