package game

import "encoding/json"

type Phase int

const (
	PhaseSelecting Phase = iota
	PhaseConfirmingHide
	PhaseHideCountdown
	PhaseSeekerReleaseCountdown
	PhaseAwaitingQuestion
	PhaseAwaitingAnswer
	PhaseShowingResult
	PhaseIdle
)

func (p Phase) String() string {
	switch p {
	case PhaseSelecting:
		return "selecting"
	case PhaseConfirmingHide:
		return "confirming_hide"
	case PhaseHideCountdown:
		return "hide_countdown"
	case PhaseSeekerReleaseCountdown:
		return "seeker_release_countdown"
	case PhaseAwaitingQuestion:
		return "awaiting_question"
	case PhaseAwaitingAnswer:
		return "awaiting_answer"
	case PhaseShowingResult:
		return "showing_result"
	case PhaseIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes Phase as a string.
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// Ticks returns how long a timed phase lasts. Untimed phases return 0.
func (p Phase) Ticks() int {
	switch p {
	case PhaseHideCountdown:
		return HideCountdownTicks
	case PhaseSeekerReleaseCountdown:
		return ReleaseCountdownTicks
	case PhaseAwaitingAnswer:
		return AnswerTimeoutTicks
	case PhaseShowingResult:
		return ResultDisplayTicks
	default:
		return 0
	}
}
