package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS rounds (
    session_id TEXT NOT NULL,
    game_id TEXT NOT NULL,
    round INTEGER NOT NULL,
    question_kind TEXT NOT NULL,
    threshold_miles DOUBLE PRECISION NOT NULL DEFAULT 0,
    letter_position INTEGER NOT NULL DEFAULT 0,
    letter TEXT NOT NULL DEFAULT '',
    answer BOOLEAN NOT NULL,
    auto_answered BOOLEAN NOT NULL,
    true_distance_miles DOUBLE PRECISION NOT NULL,
    seeker_lat DOUBLE PRECISION NOT NULL,
    seeker_lon DOUBLE PRECISION NOT NULL,
    hideout_lat DOUBLE PRECISION NOT NULL,
    hideout_lon DOUBLE PRECISION NOT NULL,
    city TEXT NOT NULL DEFAULT '',
    score INTEGER NOT NULL,
    resolved_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (game_id, round)
);

CREATE INDEX IF NOT EXISTS rounds_session_idx ON rounds (session_id, resolved_at);
`

// PostgresArchive implements RoundArchive using PostgreSQL.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

// NewPostgresArchive connects to PostgreSQL and initializes the schema.
func NewPostgresArchive(ctx context.Context, databaseURL string) (*PostgresArchive, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresArchive{pool: pool}, nil
}

// RecordRound appends one resolved round. Re-recording the same round of the
// same game is ignored.
func (s *PostgresArchive) RecordRound(ctx context.Context, r Round) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO rounds (session_id, game_id, round, question_kind, threshold_miles, letter_position, letter,
		     answer, auto_answered, true_distance_miles, seeker_lat, seeker_lon, hideout_lat, hideout_lon,
		     city, score, resolved_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 ON CONFLICT (game_id, round) DO NOTHING`,
		r.SessionID, r.GameID, r.Round, r.QuestionKind, r.ThresholdMiles, r.LetterPosition, r.Letter,
		r.Answer, r.AutoAnswered, r.TrueDistanceMiles, r.SeekerLat, r.SeekerLon, r.HideoutLat, r.HideoutLon,
		r.City, r.Score, r.ResolvedAt)
	return err
}

// RoundsForSession lists a session's rounds in the order they were resolved.
func (s *PostgresArchive) RoundsForSession(ctx context.Context, sessionID string) ([]Round, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT session_id, game_id, round, question_kind, threshold_miles, letter_position, letter,
		     answer, auto_answered, true_distance_miles, seeker_lat, seeker_lon, hideout_lat, hideout_lon,
		     city, score, resolved_at
		 FROM rounds WHERE session_id = $1 ORDER BY resolved_at, round`, sessionID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanRound)
}

// Check pings the database for health reporting.
func (s *PostgresArchive) Check(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases database resources.
func (s *PostgresArchive) Close() error {
	s.pool.Close()
	return nil
}

func scanRound(row pgx.CollectableRow) (Round, error) {
	var r Round
	err := row.Scan(&r.SessionID, &r.GameID, &r.Round, &r.QuestionKind, &r.ThresholdMiles, &r.LetterPosition, &r.Letter,
		&r.Answer, &r.AutoAnswered, &r.TrueDistanceMiles, &r.SeekerLat, &r.SeekerLon, &r.HideoutLat, &r.HideoutLon,
		&r.City, &r.Score, &r.ResolvedAt)
	return r, err
}
