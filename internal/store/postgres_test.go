package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestDatabaseURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping PostgreSQL integration test")
	}
	return url
}

func setupTestArchive(t *testing.T) *PostgresArchive {
	t.Helper()
	url := getTestDatabaseURL(t)
	ctx := context.Background()

	s, err := NewPostgresArchive(ctx, url)
	require.NoError(t, err)

	// Clean up rounds table for test isolation
	_, err = s.pool.Exec(ctx, "DELETE FROM rounds")
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func testRound(session string, n int) Round {
	return Round{
		SessionID:         session,
		GameID:            session + "-game",
		Round:             n,
		QuestionKind:      "distance",
		ThresholdMiles:    5,
		Answer:            true,
		TrueDistanceMiles: 0.69,
		SeekerLat:         40.01,
		SeekerLon:         -75,
		HideoutLat:        40,
		HideoutLon:        -75,
		City:              "Testville",
		Score:             30 * n,
		ResolvedAt:        time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestPostgresArchive_RecordAndList(t *testing.T) {
	s := setupTestArchive(t)
	ctx := context.Background()

	require.NoError(t, s.RecordRound(ctx, testRound("s1", 2)))
	require.NoError(t, s.RecordRound(ctx, testRound("s1", 1)))
	require.NoError(t, s.RecordRound(ctx, testRound("s2", 1)))

	rounds, err := s.RoundsForSession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, 1, rounds[0].Round)
	assert.Equal(t, 2, rounds[1].Round)
	assert.Equal(t, "Testville", rounds[0].City)
	assert.Equal(t, "s1-game", rounds[0].GameID)
	assert.InDelta(t, 0.69, rounds[0].TrueDistanceMiles, 1e-9)
}

func TestPostgresArchive_DuplicateRoundIgnored(t *testing.T) {
	s := setupTestArchive(t)
	ctx := context.Background()

	require.NoError(t, s.RecordRound(ctx, testRound("s1", 1)))
	dup := testRound("s1", 1)
	dup.Score = 999
	require.NoError(t, s.RecordRound(ctx, dup))

	rounds, err := s.RoundsForSession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, 30, rounds[0].Score)
}

func TestPostgresArchive_SameRoundInLaterGame(t *testing.T) {
	s := setupTestArchive(t)
	ctx := context.Background()

	first := testRound("s1", 1)
	first.GameID = "game-a"
	second := testRound("s1", 1)
	second.GameID = "game-b"
	second.ResolvedAt = first.ResolvedAt.Add(time.Minute)

	require.NoError(t, s.RecordRound(ctx, first))
	require.NoError(t, s.RecordRound(ctx, second))

	rounds, err := s.RoundsForSession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, "game-a", rounds[0].GameID)
	assert.Equal(t, "game-b", rounds[1].GameID)
	assert.Equal(t, 1, rounds[1].Round)
}

func TestPostgresArchive_UnknownSession(t *testing.T) {
	s := setupTestArchive(t)

	rounds, err := s.RoundsForSession(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, rounds)
}

func TestMemoryArchive(t *testing.T) {
	m := NewMemoryArchive()
	ctx := context.Background()

	require.NoError(t, m.RecordRound(ctx, testRound("a", 1)))
	require.NoError(t, m.RecordRound(ctx, testRound("b", 1)))
	require.NoError(t, m.RecordRound(ctx, testRound("a", 2)))

	rounds, err := m.RoundsForSession(ctx, "a")
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, 2, rounds[1].Round)
	assert.NoError(t, m.Close())
}

func TestMemoryArchive_KeepsNewestRounds(t *testing.T) {
	m := NewBoundedMemoryArchive(3)
	ctx := context.Background()

	for n := 1; n <= 5; n++ {
		require.NoError(t, m.RecordRound(ctx, testRound("a", n)))
	}
	assert.Equal(t, 3, m.Len())

	rounds, err := m.RoundsForSession(ctx, "a")
	require.NoError(t, err)
	require.Len(t, rounds, 3)
	assert.Equal(t, []int{3, 4, 5}, []int{rounds[0].Round, rounds[1].Round, rounds[2].Round})
}

func TestMemoryArchive_MinimumLimit(t *testing.T) {
	m := NewBoundedMemoryArchive(0)
	ctx := context.Background()

	require.NoError(t, m.RecordRound(ctx, testRound("a", 1)))
	require.NoError(t, m.RecordRound(ctx, testRound("a", 2)))

	rounds, err := m.RoundsForSession(ctx, "a")
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, 2, rounds[0].Round)
}
