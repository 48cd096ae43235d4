package store

import (
	"context"
	"sync"
	"time"
)

// Round is one resolved question, archived for later analysis. Rounds are
// numbered per game and a session may play several games.
type Round struct {
	SessionID         string
	GameID            string
	Round             int
	QuestionKind      string
	ThresholdMiles    float64
	LetterPosition    int
	Letter            string
	Answer            bool
	AutoAnswered      bool
	TrueDistanceMiles float64
	SeekerLat         float64
	SeekerLon         float64
	HideoutLat        float64
	HideoutLon        float64
	City              string
	Score             int
	ResolvedAt        time.Time
}

// RoundArchive defines the interface for the append-only round log.
// Games never read from it.
type RoundArchive interface {
	// RecordRound appends one resolved round.
	RecordRound(ctx context.Context, r Round) error
	// RoundsForSession lists a session's rounds in the order they were resolved.
	RoundsForSession(ctx context.Context, sessionID string) ([]Round, error)
	// Close releases resources.
	Close() error
}

// DefaultMemoryRounds is how many rounds NewMemoryArchive keeps.
const DefaultMemoryRounds = 10000

// MemoryArchive keeps the most recent rounds in memory and forgets older ones.
// It is used when no database is configured and in tests.
type MemoryArchive struct {
	mu     sync.Mutex
	limit  int
	rounds []Round
	oldest int // index of the oldest round once the buffer is full
}

func NewMemoryArchive() *MemoryArchive {
	return NewBoundedMemoryArchive(DefaultMemoryRounds)
}

// NewBoundedMemoryArchive keeps at most limit rounds. A limit below one keeps one.
func NewBoundedMemoryArchive(limit int) *MemoryArchive {
	return &MemoryArchive{limit: max(limit, 1)}
}

func (m *MemoryArchive) RecordRound(_ context.Context, r Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.rounds) < m.limit {
		m.rounds = append(m.rounds, r)
		return nil
	}
	m.rounds[m.oldest] = r
	m.oldest = (m.oldest + 1) % m.limit
	return nil
}

func (m *MemoryArchive) RoundsForSession(_ context.Context, sessionID string) ([]Round, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Round
	for i := range m.rounds {
		r := m.rounds[(m.oldest+i)%len(m.rounds)]
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

// Len reports how many rounds are held.
func (m *MemoryArchive) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rounds)
}

func (m *MemoryArchive) Close() error { return nil }
