package game

import (
	"encoding/json"
	"fmt"

	"github.com/ugaemi/jetlagged-server/internal/geo"
)

type QuestionKind int

const (
	QuestionDistance QuestionKind = iota
	QuestionLetter
)

func (k QuestionKind) String() string {
	switch k {
	case QuestionLetter:
		return "letter"
	default:
		return "distance"
	}
}

// MarshalJSON serializes QuestionKind as a string.
func (k QuestionKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON deserializes QuestionKind from a string.
func (k *QuestionKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "letter":
		*k = QuestionLetter
	default:
		*k = QuestionDistance
	}
	return nil
}

// Question is either a distance question ("is the seeker within ThresholdMiles
// of you?") or a letter question ("is letter Letter at Position of your street?").
// Only the fields of the active Kind are meaningful.
type Question struct {
	Kind           QuestionKind `json:"kind"`
	ThresholdMiles float64      `json:"threshold_miles,omitempty"`
	Position       int          `json:"position,omitempty"`
	Letter         string       `json:"letter,omitempty"`
}

func DistanceQuestion(miles float64) Question {
	return Question{Kind: QuestionDistance, ThresholdMiles: miles}
}

func LetterQuestion(position int, letter rune) Question {
	return Question{Kind: QuestionLetter, Position: position, Letter: string(letter)}
}

// Points is the score awarded when the question is asked.
func (q Question) Points() int {
	if q.Kind == QuestionLetter {
		return LetterPoints
	}
	return DistancePoints
}

// Prompt is the human-readable wording shown to the hider.
func (q Question) Prompt() string {
	if q.Kind == QuestionLetter {
		return fmt.Sprintf("Is letter %d of your hideout %q?", q.Position, q.Letter)
	}
	return fmt.Sprintf("Is the seeker within %g miles of you?", q.ThresholdMiles)
}

// AnswerRecord is one resolved distance question.
type AnswerRecord struct {
	DistanceAsked       float64        `json:"distance_asked"`
	WasWithin           bool           `json:"was_within"`
	SeekerPositionAtAsk geo.Coordinate `json:"seeker_position_at_ask"`
}

// Result is the outcome of a question, shown to the hider while the phase is ShowingResult.
type Result struct {
	Question          Question `json:"question"`
	Answer            bool     `json:"answer"`
	TrueDistanceMiles float64  `json:"true_distance_miles"`
	AutoAnswered      bool     `json:"auto_answered"`
}

// Evaluate answers q from ground truth: the real hideout and the seeker position
// the question was asked from. Human and timeout answers both go through here.
func Evaluate(q Question, hideout Address, askedFrom geo.Coordinate) Result {
	dist := geo.DistanceMiles(askedFrom, hideout.Coordinate)
	res := Result{Question: q, TrueDistanceMiles: dist}

	switch q.Kind {
	case QuestionLetter:
		got, ok := LetterAt(hideout.Label, q.Position)
		want := []rune(q.Letter)
		res.Answer = ok && len(want) == 1 && got == want[0]
	default:
		res.Answer = dist <= q.ThresholdMiles
	}
	return res
}

// Record converts a distance result into the history entry it produces.
// Letter results produce no record.
func (r Result) Record(askedFrom geo.Coordinate) (AnswerRecord, bool) {
	if r.Question.Kind != QuestionDistance {
		return AnswerRecord{}, false
	}
	return AnswerRecord{
		DistanceAsked:       r.Question.ThresholdMiles,
		WasWithin:           r.Answer,
		SeekerPositionAtAsk: askedFrom,
	}, true
}
