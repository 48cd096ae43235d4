package session

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/ugaemi/jetlagged-server/internal/game"
	"github.com/ugaemi/jetlagged-server/internal/geo"
)

var (
	ErrInvalidPhase     = errors.New("action not allowed in current phase")
	ErrNoActiveQuestion = errors.New("no active question")
	ErrInvalidHideout   = errors.New("hideout has no valid coordinate")
)

// Purpose says what a LocateRequest is for.
type Purpose int

const (
	PurposeSeed Purpose = iota
	PurposeMove
)

func (p Purpose) String() string {
	if p == PurposeMove {
		return "move"
	}
	return "seed"
}

// LocateRequest asks the owner of the controller to find the seeker an address.
// The answer comes back through Deliver with the same Token.
type LocateRequest struct {
	Token    uint64
	Purpose  Purpose
	City     game.City
	Current  game.Address        // move only
	Estimate *game.Estimate      // move only, nil means wander
	History  []game.AnswerRecord // snapshot, never aliased
}

type EventType string

const (
	EventSeekerReleased EventType = "seeker_released"
	EventQuestion       EventType = "question"
	EventResult         EventType = "result"
	EventSeekerMoved    EventType = "seeker_moved"
	EventReset          EventType = "reset"
)

// Event is something the hider should be told about, in order.
type Event struct {
	Type     EventType
	GameID   string
	Round    int
	Score    int
	Question *game.Question
	Result   *game.Result
	Seeker   *game.Address
	Hideout  *game.Address
	City     game.City
}

// Controller is the single-session phase machine. It never blocks: time only
// advances through Tick, and seeker positions only arrive through Deliver.
// It is not safe for concurrent use; Session serializes access.
type Controller struct {
	phase     game.Phase
	countdown int
	cadence   int

	// gameID names one hideout's game; a session plays many.
	gameID   string
	city     game.City
	hideout  *game.Address
	seeker   *game.Address
	question *game.Question
	asked    game.Address
	result   *game.Result
	history  []game.AnswerRecord
	score    int
	round    int

	// generation changes on every reset so owners can cancel stale work.
	generation uint64
	lastToken  uint64
	inflight   uint64
	purpose    Purpose

	requests []LocateRequest
	events   []Event

	rng          game.Rand
	letterChance float64
}

type ControllerOption func(*Controller)

// WithLetterChance overrides the probability of swapping in a letter question.
func WithLetterChance(p float64) ControllerOption {
	return func(c *Controller) {
		c.letterChance = p
	}
}

func NewController(rng game.Rand, opts ...ControllerOption) *Controller {
	c := &Controller{
		phase:        game.PhaseSelecting,
		rng:          rng,
		letterChance: game.LetterChance,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Phase() game.Phase { return c.phase }

func (c *Controller) Generation() uint64 { return c.generation }

// SelectHideout starts a fresh game around hideout. Any previous game is discarded.
func (c *Controller) SelectHideout(city game.City, hideout game.Address) error {
	if c.phase == game.PhaseIdle {
		return ErrInvalidPhase
	}
	if !hideout.Coordinate.Valid() {
		return ErrInvalidHideout
	}
	c.Reset()
	if !city.Coordinate.Valid() || city.Coordinate == (geo.Coordinate{}) {
		city.Coordinate = hideout.Coordinate
	}
	if city.Name == "" {
		city.Name = hideout.Label
	}
	c.gameID = uuid.NewString()
	c.city = city
	c.hideout = &hideout
	c.enter(game.PhaseConfirmingHide)
	return nil
}

// CancelHide drops the pending hideout and returns to selection.
func (c *Controller) CancelHide() error {
	if c.phase != game.PhaseConfirmingHide {
		return ErrInvalidPhase
	}
	c.hideout = nil
	c.city = game.City{}
	c.enter(game.PhaseSelecting)
	return nil
}

// ConfirmHide locks in the hideout and starts the hide countdown.
func (c *Controller) ConfirmHide() error {
	if c.phase != game.PhaseConfirmingHide {
		return ErrInvalidPhase
	}
	c.enter(game.PhaseHideCountdown)
	slog.Info("hide confirmed", "hideout", c.hideout.Label, "city", c.city.Name)
	return nil
}

// Answer resolves the active question. The answer itself is computed from
// the hideout, exactly as if the timer had run out.
func (c *Controller) Answer() error {
	if c.phase != game.PhaseAwaitingAnswer || c.question == nil {
		return ErrNoActiveQuestion
	}
	c.resolve(false)
	return nil
}

// Reset discards the game and goes back to hideout selection. Requests still
// in flight are invalidated and their deliveries ignored.
func (c *Controller) Reset() {
	if c.phase == game.PhaseIdle {
		return
	}
	c.clear()
	c.enter(game.PhaseSelecting)
	c.emit(Event{Type: EventReset})
}

// Stop ends the session for good.
func (c *Controller) Stop() {
	c.clear()
	c.enter(game.PhaseIdle)
}

func (c *Controller) clear() {
	c.gameID = ""
	c.city = game.City{}
	c.hideout = nil
	c.seeker = nil
	c.question = nil
	c.asked = game.Address{}
	c.result = nil
	c.history = nil
	c.score = 0
	c.round = 0
	c.cadence = 0
	c.inflight = 0
	c.requests = nil
	c.events = nil
	c.generation++
}

// Tick advances the clock by one TickInterval.
func (c *Controller) Tick() {
	switch c.phase {
	case game.PhaseSelecting, game.PhaseConfirmingHide, game.PhaseIdle:
		return
	}

	c.tickCadence()

	if c.phase == game.PhaseAwaitingQuestion {
		c.holdForSeeker()
		return
	}

	c.countdown--
	if c.countdown > 0 {
		return
	}
	c.expire()
}

func (c *Controller) expire() {
	switch c.phase {
	case game.PhaseHideCountdown:
		c.enter(game.PhaseSeekerReleaseCountdown)

	case game.PhaseSeekerReleaseCountdown:
		c.enter(game.PhaseAwaitingQuestion)
		if c.seeker == nil {
			c.emit(Event{Type: EventSeekerReleased, City: c.city})
			c.request(PurposeSeed)
			return
		}
		c.request(PurposeMove)

	case game.PhaseAwaitingAnswer:
		c.resolve(true)

	case game.PhaseShowingResult:
		// Catch-up window before the next question.
		c.enter(game.PhaseSeekerReleaseCountdown)
	}
}

// tickCadence moves the seeker every MoveCadenceTicks while it is out and
// no question is open. The count pauses while a question is open and a
// request already in flight delays the move to the next free tick.
func (c *Controller) tickCadence() {
	if c.seeker == nil || c.phase == game.PhaseAwaitingAnswer {
		return
	}
	c.cadence++
	if c.cadence < game.MoveCadenceTicks || c.inflight != 0 {
		return
	}
	c.cadence = 0
	c.request(PurposeMove)
}

// holdForSeeker keeps AwaitingQuestion alive until a seeker position exists.
func (c *Controller) holdForSeeker() {
	if c.inflight != 0 {
		return
	}
	if c.seeker == nil {
		c.request(PurposeSeed)
		return
	}
	c.openQuestion()
}

func (c *Controller) request(p Purpose) {
	if c.inflight != 0 {
		return
	}
	c.lastToken++
	c.inflight = c.lastToken
	c.purpose = p

	req := LocateRequest{
		Token:   c.inflight,
		Purpose: p,
		City:    c.city,
		History: slices.Clone(c.history),
	}
	if p == PurposeMove && c.seeker != nil {
		req.Current = *c.seeker
		if est, ok := game.EstimatePosition(c.history); ok {
			req.Estimate = &est
		}
	}
	c.requests = append(c.requests, req)
}

// Deliver hands back the outcome of a LocateRequest. Deliveries for tokens
// that are no longer in flight are ignored and reported as false.
func (c *Controller) Deliver(token uint64, addr game.Address, err error) bool {
	if token == 0 || token != c.inflight {
		return false
	}
	c.inflight = 0

	if err != nil {
		if c.purpose == PurposeSeed {
			slog.Warn("seeker seed failed, retrying", "error", err)
			return true
		}
		slog.Warn("seeker move failed, keeping position", "error", err)
	} else {
		c.seeker = &addr
		moved := addr
		c.emit(Event{Type: EventSeekerMoved, Seeker: &moved})
	}

	if c.phase == game.PhaseAwaitingQuestion && c.seeker != nil {
		c.openQuestion()
	}
	return true
}

func (c *Controller) openQuestion() {
	q := game.NextQuestion(c.history, c.rng, c.letterChance)
	c.round++
	c.score += q.Points()
	c.question = &q
	c.asked = *c.seeker
	c.result = nil
	c.enter(game.PhaseAwaitingAnswer)

	asked := q
	c.emit(Event{Type: EventQuestion, Question: &asked})
}

func (c *Controller) resolve(auto bool) {
	res := game.Evaluate(*c.question, *c.hideout, c.asked.Coordinate)
	res.AutoAnswered = auto
	if rec, ok := res.Record(c.asked.Coordinate); ok {
		c.history = append(c.history, rec)
	}
	c.result = &res
	c.question = nil
	c.enter(game.PhaseShowingResult)

	shown := res
	hideout := *c.hideout
	seeker := c.asked
	c.emit(Event{Type: EventResult, Result: &shown, Hideout: &hideout, Seeker: &seeker})
}

func (c *Controller) enter(p game.Phase) {
	c.phase = p
	c.countdown = p.Ticks()
}

func (c *Controller) emit(e Event) {
	e.GameID = c.gameID
	e.Round = c.round
	e.Score = c.score
	e.City = c.city
	c.events = append(c.events, e)
}

// TakeRequests returns and clears the pending locate requests.
func (c *Controller) TakeRequests() []LocateRequest {
	reqs := c.requests
	c.requests = nil
	return reqs
}

// TakeEvents returns and clears the pending events.
func (c *Controller) TakeEvents() []Event {
	events := c.events
	c.events = nil
	return events
}

// Snapshot is a copy of the controller state safe to hand to other goroutines.
type Snapshot struct {
	Phase            game.Phase          `json:"phase"`
	Countdown        int                 `json:"countdown"`
	Score            int                 `json:"score"`
	Round            int                 `json:"round"`
	City             *game.City          `json:"city,omitempty"`
	Hideout          *game.Address       `json:"hideout,omitempty"`
	Seeker           *game.Address       `json:"seeker,omitempty"`
	Question         *game.Question      `json:"question,omitempty"`
	Prompt           string              `json:"prompt,omitempty"`
	Result           *game.Result        `json:"result,omitempty"`
	History          []game.AnswerRecord `json:"history"`
	Estimate         *game.Estimate      `json:"estimate,omitempty"`
	WaitingForSeeker bool                `json:"waiting_for_seeker"`
}

func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		Phase:     c.phase,
		Countdown: c.countdown,
		Score:     c.score,
		Round:     c.round,
		History:   slices.Clone(c.history),
	}
	if s.History == nil {
		s.History = []game.AnswerRecord{}
	}
	if c.hideout != nil {
		city, hideout := c.city, *c.hideout
		s.City = &city
		s.Hideout = &hideout
	}
	if c.seeker != nil {
		seeker := *c.seeker
		s.Seeker = &seeker
	}
	if c.question != nil {
		q := *c.question
		s.Question = &q
		s.Prompt = q.Prompt()
	}
	if c.result != nil {
		r := *c.result
		s.Result = &r
	}
	if est, ok := game.EstimatePosition(c.history); ok {
		s.Estimate = &est
	}
	s.WaitingForSeeker = c.phase == game.PhaseAwaitingQuestion && c.inflight != 0
	return s
}
