package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ugaemi/jetlagged-server/internal/geo"
)

// stubRand returns fixed draws so selection is deterministic.
type stubRand struct {
	f    float64
	ints []int
}

func (s *stubRand) Float64() float64 { return s.f }

func (s *stubRand) Intn(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0] % n
	s.ints = s.ints[1:]
	return v
}

func rec(d float64, within bool) AnswerRecord {
	return AnswerRecord{DistanceAsked: d, WasWithin: within, SeekerPositionAtAsk: geo.Coordinate{Lat: 40, Lon: -75}}
}

func TestNextDistance(t *testing.T) {
	tests := []struct {
		name    string
		history []AnswerRecord
		want    float64
	}{
		{"empty history starts at top", nil, 5},
		{"within at 5 advances to 3", []AnswerRecord{rec(5, true)}, 3},
		{"within at 3 advances to 1", []AnswerRecord{rec(5, true), rec(3, true)}, 1},
		{"within at bottom stays", []AnswerRecord{rec(0.5, true), rec(0.25, true)}, 0.25},
		{"single miss repeats", []AnswerRecord{rec(5, true), rec(3, false)}, 3},
		{"two misses at top stay at top", []AnswerRecord{rec(5, false), rec(5, false)}, 5},
		{"two misses at 3 retreat to 5", []AnswerRecord{rec(3, false), rec(3, false)}, 5},
		{"misses are counted across the whole history", []AnswerRecord{rec(1, false), rec(3, true), rec(1, false)}, 3},
		{"earlier within at same rung does not count as miss", []AnswerRecord{rec(1, true), rec(1, false)}, 1},
		{"unknown distance restarts", []AnswerRecord{rec(2, true)}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextDistance(tt.history))
		})
	}
}

func TestShouldAskLetterInstead(t *testing.T) {
	three := []AnswerRecord{rec(5, true), rec(3, true), rec(1, true)}

	tests := []struct {
		name      string
		candidate float64
		history   []AnswerRecord
		want      bool
	}{
		{"short history at 1", 1, three[:2], false},
		{"empty history at 0.5", 0.5, nil, false},
		{"eligible at 1", 1, three, true},
		{"eligible at 0.5", 0.5, three, true},
		{"not eligible at 5", 5, three, false},
		{"not eligible at 3", 3, three, false},
		{"not eligible at 0.25", 0.25, three, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldAskLetterInstead(tt.candidate, tt.history))
		})
	}
}

func TestNextQuestion(t *testing.T) {
	eligible := []AnswerRecord{rec(5, true), rec(3, true), rec(3, true)}
	assert.Equal(t, 1.0, NextDistance(eligible))

	t.Run("gate passes", func(t *testing.T) {
		q := NextQuestion(eligible, &stubRand{f: 0.1, ints: []int{2, 3}}, LetterChance)
		assert.Equal(t, QuestionLetter, q.Kind)
		assert.Equal(t, 3, q.Position)
		assert.Equal(t, "O", q.Letter)
		assert.Equal(t, LetterPoints, q.Points())
	})

	t.Run("gate fails", func(t *testing.T) {
		q := NextQuestion(eligible, &stubRand{f: 0.9}, LetterChance)
		assert.Equal(t, DistanceQuestion(1), q)
		assert.Equal(t, DistancePoints, q.Points())
	})

	t.Run("ineligible ignores the gate", func(t *testing.T) {
		q := NextQuestion(nil, &stubRand{f: 0}, LetterChance)
		assert.Equal(t, DistanceQuestion(5), q)
	})
}

func TestRandomLetterQuestion_Ranges(t *testing.T) {
	for pos := 0; pos < LetterPositions; pos++ {
		for l := range LetterPool {
			q := RandomLetterQuestion(&stubRand{ints: []int{pos, l}})
			assert.GreaterOrEqual(t, q.Position, 1)
			assert.LessOrEqual(t, q.Position, LetterPositions)
			assert.Contains(t, LetterPool, []rune(q.Letter)[0])
		}
	}
}

// Hideout at (40,-75), seeker seeded ~0.69 mi north: the ladder walks down
// 5 → 3 → 1 → 0.5, and once three answers are recorded letter questions become possible.
func TestScenario_LadderNarrowsToLetters(t *testing.T) {
	hideout := NewAddress("12 Main Street, Springfield", geo.Coordinate{Lat: 40, Lon: -75}, KindStreet, 1)
	seeker := geo.Coordinate{Lat: 40.01, Lon: -75}

	var history []AnswerRecord
	var asked []float64
	var answers []bool
	for i := 0; i < 4; i++ {
		q := DistanceQuestion(NextDistance(history))
		res := Evaluate(q, hideout, seeker)
		r, ok := res.Record(seeker)
		assert.True(t, ok)
		history = append(history, r)
		asked = append(asked, q.ThresholdMiles)
		answers = append(answers, res.Answer)

		if i == 2 {
			next := NextDistance(history)
			assert.Equal(t, 0.5, next)
			assert.True(t, ShouldAskLetterInstead(next, history))
		}
	}

	assert.Equal(t, []float64{5, 3, 1, 0.5}, asked)
	assert.Equal(t, []bool{true, true, true, false}, answers)
	assert.Equal(t, 0.5, NextDistance(history), "one miss repeats the rung")
}
