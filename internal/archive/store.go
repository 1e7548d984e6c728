// internal/archive/store.go
//
// Log of finished rounds kept in SQLite.
// The archive is informational only (status API, stats); the round history
// used for repeat avoidance lives in internal/history.

package archive

import (
	"context"
	"database/sql"
	"time"
)

// Outcome of a finished round.
type Outcome string

const (
	OutcomeSolved   Outcome = "solved"
	OutcomeUnsolved Outcome = "unsolved"
)

// Round is one archived round.
type Round struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Image          string    `json:"image"`
	Outcome        Outcome   `json:"outcome"`
	CluesPublished int       `json:"cluesPublished"`
	CluesTotal     int       `json:"cluesTotal"`
	Winner         string    `json:"winner,omitempty"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
}

// Stats aggregates the archive.
type Stats struct {
	Rounds   int     `json:"rounds"`
	Solved   int     `json:"solved"`
	AvgClues float64 `json:"avgCluesToSolve"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// RecordRound inserts a finished round.
func (s *Store) RecordRound(ctx context.Context, r Round) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO rounds
            (title, image, outcome, clues_published, clues_total, winner, started_at, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Title, r.Image, string(r.Outcome), r.CluesPublished, r.CluesTotal, r.Winner,
		r.StartedAt.UTC().Format(time.RFC3339), r.FinishedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// Recent returns the latest rounds, newest first. Default limit is 20.
func (s *Store) Recent(ctx context.Context, limit int) ([]Round, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, title, image, outcome, clues_published, clues_total, winner, started_at, finished_at
        FROM rounds
        ORDER BY finished_at DESC, id DESC
        LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Round, 0, limit)
	for rows.Next() {
		var r Round
		var outcome, started, finished string
		if err := rows.Scan(&r.ID, &r.Title, &r.Image, &outcome, &r.CluesPublished, &r.CluesTotal,
			&r.Winner, &started, &finished); err != nil {
			return nil, err
		}
		r.Outcome = Outcome(outcome)
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats summarizes every archived round.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(1),
               COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
               AVG(CASE WHEN outcome = ? THEN clues_published END)
        FROM rounds`, string(OutcomeSolved), string(OutcomeSolved),
	).Scan(&st.Rounds, &st.Solved, &avg)
	if err != nil {
		return Stats{}, err
	}
	st.AvgClues = avg.Float64
	return st, nil
}
