package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTable = `
CREATE TABLE IF NOT EXISTS heist_games (
	game_id          UUID PRIMARY KEY,
	user_id          UUID NOT NULL,
	username         TEXT NOT NULL DEFAULT '',
	seed             BIGINT NOT NULL,
	won              BOOLEAN NOT NULL,
	abandoned        BOOLEAN NOT NULL,
	phase            TEXT NOT NULL,
	player_position  INT NOT NULL,
	pursuer_position INT NOT NULL,
	turns            INT NOT NULL,
	melds            INT NOT NULL,
	discards         INT NOT NULL,
	pursuer_melds    INT NOT NULL,
	reshuffles       INT NOT NULL,
	cards_drawn      INT NOT NULL,
	duration_ms      BIGINT NOT NULL,
	finished_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS heist_games_finished_at_idx ON heist_games (finished_at DESC);
`

// PostgresRecorder stores records in the heist_games table.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder connects to databaseURL and creates the table if it
// is missing.
func NewPostgresRecorder(ctx context.Context, databaseURL string) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect history db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	r := &PostgresRecorder{pool: pool}
	if err := r.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

// Migrate creates the heist_games table and its index.
func (r *PostgresRecorder) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("create heist_games: %w", err)
	}
	return nil
}

// Close releases the pool.
func (r *PostgresRecorder) Close() {
	r.pool.Close()
}

// Record inserts rec. A second record for the same game is ignored.
func (r *PostgresRecorder) Record(ctx context.Context, rec Record) error {
	// seed is stored as the two's-complement bit pattern of the uint64
	_, err := r.pool.Exec(ctx, `
		INSERT INTO heist_games (
			game_id, user_id, username, seed, won, abandoned, phase,
			player_position, pursuer_position, turns, melds, discards,
			pursuer_melds, reshuffles, cards_drawn, duration_ms, finished_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,COALESCE($17, now()))
		ON CONFLICT (game_id) DO NOTHING`,
		rec.GameID, rec.UserID, rec.Username, int64(rec.Seed), rec.Won, rec.Abandoned, rec.Phase,
		rec.PlayerPosition, rec.PursuerPosition, rec.Turns, rec.Melds, rec.Discards,
		rec.PursuerMelds, rec.Reshuffles, rec.CardsDrawn, rec.DurationMs, nullTime(rec),
	)
	if err != nil {
		return fmt.Errorf("insert game %s: %w", rec.GameID, err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (r *PostgresRecorder) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT game_id, user_id, username, seed, won, abandoned, phase,
			player_position, pursuer_position, turns, melds, discards,
			pursuer_melds, reshuffles, cards_drawn, duration_ms, finished_at
		FROM heist_games
		ORDER BY finished_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent games: %w", err)
	}
	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var rec Record
		var seed int64
		err := row.Scan(
			&rec.GameID, &rec.UserID, &rec.Username, &seed, &rec.Won, &rec.Abandoned, &rec.Phase,
			&rec.PlayerPosition, &rec.PursuerPosition, &rec.Turns, &rec.Melds, &rec.Discards,
			&rec.PursuerMelds, &rec.Reshuffles, &rec.CardsDrawn, &rec.DurationMs, &rec.FinishedAt,
		)
		rec.Seed = uint64(seed)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan recent games: %w", err)
	}
	return recs, nil
}

func nullTime(rec Record) interface{} {
	if rec.FinishedAt.IsZero() {
		return nil
	}
	return rec.FinishedAt
}
