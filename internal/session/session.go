package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ugaemi/jetlagged-server/internal/game"
	"github.com/ugaemi/jetlagged-server/internal/locator"
	"github.com/ugaemi/jetlagged-server/internal/mapview"
	"github.com/ugaemi/jetlagged-server/internal/seeker"
	"github.com/ugaemi/jetlagged-server/internal/store"
	"github.com/ugaemi/jetlagged-server/internal/ws"
)

var ErrSessionStopped = errors.New("session stopped")

const archiveTimeout = 5 * time.Second

// Notifier receives everything the hider should see.
type Notifier interface {
	SendMessage(msg ws.Message)
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Locator      locator.Resolver
	Archive      store.RoundArchive
	Clock        Clock
	TickInterval time.Duration
	// LetterChance is used as given; zero disables letter questions.
	LetterChance float64
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = RealClock()
	}
	if d.TickInterval <= 0 {
		d.TickInterval = game.TickInterval
	}
	if d.Archive == nil {
		d.Archive = store.NewMemoryArchive()
	}
	return d
}

type command struct {
	fn    func(*Controller) error
	reply chan error
}

type delivery struct {
	token uint64
	addr  game.Address
	err   error
}

// Session runs one hider's game. A single goroutine owns the Controller and
// serializes ticks, commands and locator deliveries.
type Session struct {
	ID string

	ctrl     *Controller
	planner  *seeker.Planner
	locator  locator.Resolver
	archive  store.RoundArchive
	clock    Clock
	interval time.Duration
	notifier Notifier

	commands chan command
	located  chan delivery
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  sync.Once

	// roundCtx is cancelled whenever the controller is reset.
	roundCtx    context.Context
	roundCancel context.CancelFunc
}

// New creates a session. Start must be called to run it.
func New(id string, n Notifier, deps Deps, rng game.Rand) *Session {
	deps = deps.withDefaults()
	return &Session{
		ID:       id,
		ctrl:     NewController(rng, WithLetterChance(deps.LetterChance)),
		planner:  seeker.NewPlanner(deps.Locator),
		locator:  deps.Locator,
		archive:  deps.Archive,
		clock:    deps.Clock,
		interval: deps.TickInterval,
		notifier: n,
		commands: make(chan command),
		located:  make(chan delivery),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the session loop. Calling it more than once has no effect.
func (s *Session) Start() {
	s.started.Do(func() {
		go s.run()
	})
}

// Stop ends the session and waits for the loop to exit. Safe to call twice.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.started.Do(func() { close(s.done) })
	<-s.done
}

// Do runs fn on the session loop and returns its error.
func (s *Session) Do(fn func(*Controller) error) error {
	cmd := command{fn: fn, reply: make(chan error, 1)}
	select {
	case s.commands <- cmd:
	case <-s.stopCh:
		return ErrSessionStopped
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-s.stopCh:
		return ErrSessionStopped
	}
}

func (s *Session) SelectHideout(city game.City, hideout game.Address) error {
	return s.Do(func(c *Controller) error { return c.SelectHideout(city, hideout) })
}

func (s *Session) CancelHide() error {
	return s.Do(func(c *Controller) error { return c.CancelHide() })
}

func (s *Session) ConfirmHide() error {
	return s.Do(func(c *Controller) error { return c.ConfirmHide() })
}

func (s *Session) Answer() error {
	return s.Do(func(c *Controller) error { return c.Answer() })
}

func (s *Session) Reset() error {
	return s.Do(func(c *Controller) error {
		c.Reset()
		return nil
	})
}

// Snapshot returns a copy of the current game state.
func (s *Session) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := s.Do(func(c *Controller) error {
		snap = c.Snapshot()
		return nil
	})
	return snap, err
}

func (s *Session) run() {
	defer close(s.done)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	s.roundCtx, s.roundCancel = context.WithCancel(context.Background())
	generation := s.ctrl.Generation()

	slog.Info("session started", "session", s.ID)
	for {
		select {
		case <-s.stopCh:
			s.roundCancel()
			s.ctrl.Stop()
			slog.Info("session stopped", "session", s.ID)
			return
		case <-ticker.C():
			s.ctrl.Tick()
		case cmd := <-s.commands:
			cmd.reply <- cmd.fn(s.ctrl)
		case d := <-s.located:
			if !s.ctrl.Deliver(d.token, d.addr, d.err) {
				slog.Debug("discarding stale seeker position", "session", s.ID, "token", d.token)
			}
		}

		if g := s.ctrl.Generation(); g != generation {
			s.roundCancel()
			s.roundCtx, s.roundCancel = context.WithCancel(context.Background())
			generation = g
		}
		s.flush()
	}
}

// flush dispatches pending locator work and tells the hider what changed.
func (s *Session) flush() {
	for _, req := range s.ctrl.TakeRequests() {
		go s.locate(s.roundCtx, req)
	}
	for _, e := range s.ctrl.TakeEvents() {
		s.publish(e)
	}
	s.sendState()
}

func (s *Session) locate(ctx context.Context, req LocateRequest) {
	addr, err := Locate(ctx, s.locator, s.planner, req)
	select {
	case s.located <- delivery{token: req.Token, addr: addr, err: err}:
	case <-s.stopCh:
	}
}

// Locate serves one LocateRequest: seeds resolve around the city center,
// moves go through the planner.
func Locate(ctx context.Context, r locator.Resolver, p *seeker.Planner, req LocateRequest) (game.Address, error) {
	if req.Purpose == PurposeSeed {
		return r.Resolve(ctx, locator.Request{
			Center:       req.City.Coordinate,
			RadiusMiles:  game.SeedRadius,
			CityName:     req.City.Name,
			PriorAnswers: req.History,
		})
	}
	return p.Plan(ctx, req.Current, req.Estimate, req.City.Name, req.History)
}

type seekerReleasedMessage struct {
	City game.City `json:"city"`
}

type questionMessage struct {
	Round    int           `json:"round"`
	Score    int           `json:"score"`
	Question game.Question `json:"question"`
	Prompt   string        `json:"prompt"`
	Timeout  int           `json:"timeout"`
}

type resultMessage struct {
	Round  int         `json:"round"`
	Score  int         `json:"score"`
	Result game.Result `json:"result"`
}

type seekerMovedMessage struct {
	Seeker game.Address `json:"seeker"`
}

type stateMessage struct {
	SessionID string `json:"session_id"`
	Snapshot
	Map mapview.View `json:"map"`
}

func (s *Session) publish(e Event) {
	var (
		msg ws.Message
		err error
	)
	switch e.Type {
	case EventSeekerReleased:
		msg, err = ws.NewMessage(ws.TypeSeekerReleased, seekerReleasedMessage{City: e.City})
	case EventQuestion:
		msg, err = ws.NewMessage(ws.TypeQuestion, questionMessage{
			Round:    e.Round,
			Score:    e.Score,
			Question: *e.Question,
			Prompt:   e.Question.Prompt(),
			Timeout:  game.AnswerTimeoutTicks,
		})
	case EventResult:
		s.archiveRound(e)
		msg, err = ws.NewMessage(ws.TypeResult, resultMessage{Round: e.Round, Score: e.Score, Result: *e.Result})
	case EventSeekerMoved:
		msg, err = ws.NewMessage(ws.TypeSeekerMoved, seekerMovedMessage{Seeker: *e.Seeker})
	default:
		return
	}
	if err != nil {
		slog.Error("failed to encode event", "session", s.ID, "event", e.Type, "error", err)
		return
	}
	s.notifier.SendMessage(msg)
}

func (s *Session) sendState() {
	snap := s.ctrl.Snapshot()
	msg, err := ws.NewMessage(ws.TypeSessionState, stateMessage{
		SessionID: s.ID,
		Snapshot:  snap,
		Map:       mapview.Build(snap.City, snap.Hideout, snap.Seeker, snap.Estimate),
	})
	if err != nil {
		slog.Error("failed to encode session state", "session", s.ID, "error", err)
		return
	}
	s.notifier.SendMessage(msg)
}

func (s *Session) archiveRound(e Event) {
	r := store.Round{
		SessionID:         s.ID,
		GameID:            e.GameID,
		Round:             e.Round,
		QuestionKind:      e.Result.Question.Kind.String(),
		ThresholdMiles:    e.Result.Question.ThresholdMiles,
		LetterPosition:    e.Result.Question.Position,
		Letter:            e.Result.Question.Letter,
		Answer:            e.Result.Answer,
		AutoAnswered:      e.Result.AutoAnswered,
		TrueDistanceMiles: e.Result.TrueDistanceMiles,
		SeekerLat:         e.Seeker.Coordinate.Lat,
		SeekerLon:         e.Seeker.Coordinate.Lon,
		HideoutLat:        e.Hideout.Coordinate.Lat,
		HideoutLon:        e.Hideout.Coordinate.Lon,
		City:              e.City.Name,
		Score:             e.Score,
		ResolvedAt:        time.Now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := s.archive.RecordRound(ctx, r); err != nil {
			slog.Warn("failed to archive round", "session", s.ID, "round", r.Round, "error", err)
		}
	}()
}
