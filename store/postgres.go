package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/hockeysim/hockeysim/sim"
)

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS box_scores (
    run_id     text PRIMARY KEY,
    game_id    text NOT NULL,
    seed       bigint NOT NULL,
    status     text NOT NULL,
    box        jsonb NOT NULL,
    created_at timestamptz NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS play_by_play (
    run_id     text NOT NULL,
    sequence   bigint NOT NULL,
    event      jsonb NOT NULL,
    PRIMARY KEY (run_id, sequence)
);`

// PostgresSink persists run artifacts as JSON documents. Writes are
// idempotent: box scores upsert on run_id and play-by-play rows conflict
// away on (run_id, sequence), matching the engine's gapless sequencing.
type PostgresSink struct {
	db *sql.DB
}

// OpenPostgres connects and ensures the schema exists.
func OpenPostgres(dsn string) (*PostgresSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &PostgresSink{db: db}, nil
}

// Close releases the connection pool.
func (s *PostgresSink) Close() error { return s.db.Close() }

// SaveBoxScore upserts the run's box score document.
func (s *PostgresSink) SaveBoxScore(ctx context.Context, run RunRecord, box sim.BoxScore) error {
	doc, err := json.Marshal(box)
	if err != nil {
		return fmt.Errorf("encode box score: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO box_scores (run_id, game_id, seed, status, box)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_id) DO UPDATE SET status = EXCLUDED.status, box = EXCLUDED.box`,
		run.RunID, run.GameID, run.Seed, string(run.Status), doc)
	if err != nil {
		return fmt.Errorf("save box score: %w", err)
	}
	return nil
}

// SavePlayByPlay stores the ordered event log, one row per sequence.
func (s *PostgresSink) SavePlayByPlay(ctx context.Context, run RunRecord, events []sim.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin play-by-play tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO play_by_play (run_id, sequence, event)
		VALUES ($1, $2, $3)
		ON CONFLICT (run_id, sequence) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare play-by-play insert: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		doc, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode event %d: %w", ev.Sequence, err)
		}
		if _, err := stmt.ExecContext(ctx, run.RunID, int64(ev.Sequence), doc); err != nil {
			return fmt.Errorf("insert event %d: %w", ev.Sequence, err)
		}
	}
	return tx.Commit()
}
