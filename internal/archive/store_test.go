package archive

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usobak/mastodon-image-quiz-bot/assets"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "rounds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	files, err := assets.Migrations()
	require.NoError(t, err)
	for _, f := range files {
		src, err := assets.FS.ReadFile(f)
		require.NoError(t, err)
		_, err = db.Exec(string(src))
		require.NoError(t, err)
	}
	return db
}

func TestStore_RecordAndRecent(t *testing.T) {
	s := NewStore(openTestDB(t))
	ctx := context.Background()
	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordRound(ctx, Round{
		Title: "Metroid Prime", Image: "mp.png", Outcome: OutcomeSolved,
		CluesPublished: 3, CluesTotal: 12, Winner: "alice",
		StartedAt: start, FinishedAt: start.Add(time.Hour),
	}))
	require.NoError(t, s.RecordRound(ctx, Round{
		Title: "Zelda", Image: "z.png", Outcome: OutcomeUnsolved,
		CluesPublished: 12, CluesTotal: 12,
		StartedAt: start.Add(2 * time.Hour), FinishedAt: start.Add(3 * time.Hour),
	}))

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "Zelda", recent[0].Title)
	assert.Equal(t, OutcomeUnsolved, recent[0].Outcome)
	assert.Equal(t, "alice", recent[1].Winner)
	assert.Equal(t, start, recent[1].StartedAt)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Rounds: 2, Solved: 1, AvgClues: 3}, st)
}

func TestStore_EmptyStats(t *testing.T) {
	s := NewStore(openTestDB(t))
	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)
}
