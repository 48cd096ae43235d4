// Package sim plays a seeker game headlessly, without a websocket or a clock.
// Ticks are issued back to back and locator requests are served inline.
package sim

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ugaemi/jetlagged-server/internal/game"
	"github.com/ugaemi/jetlagged-server/internal/geo"
	"github.com/ugaemi/jetlagged-server/internal/locator"
	"github.com/ugaemi/jetlagged-server/internal/seeker"
	"github.com/ugaemi/jetlagged-server/internal/session"
)

var ErrTickBudget = errors.New("simulation ran out of ticks")

const ticksPerRound = 100

type Options struct {
	City     game.City
	Hideout  game.Address
	Rounds   int
	Resolver locator.Resolver
	Rand     game.Rand

	LetterChance float64
	// Instant answers each question as soon as it opens. Otherwise every
	// question times out and is auto-answered.
	Instant bool
	// MaxTicks bounds the run; zero picks a budget from Rounds.
	MaxTicks int
}

// Summary describes how the seeker did.
type Summary struct {
	Rounds   int
	Score    int
	Ticks    int
	Seeker   *game.Address
	Estimate *game.Estimate
	// MissMiles is the seeker's last distance to the hideout.
	MissMiles float64
}

type runner struct {
	ctx     context.Context
	w       io.Writer
	opts    Options
	ctrl    *session.Controller
	planner *seeker.Planner
	rounds  int
}

// Run plays until opts.Rounds questions have been resolved and writes one line
// per game event to w.
func Run(ctx context.Context, w io.Writer, opts Options) (Summary, error) {
	if opts.Rounds <= 0 {
		return Summary{}, fmt.Errorf("rounds must be positive, got %d", opts.Rounds)
	}
	if opts.Resolver == nil {
		return Summary{}, errors.New("resolver is required")
	}
	if opts.MaxTicks <= 0 {
		opts.MaxTicks = opts.Rounds * ticksPerRound
	}

	r := &runner{
		ctx:     ctx,
		w:       w,
		opts:    opts,
		ctrl:    session.NewController(opts.Rand, session.WithLetterChance(opts.LetterChance)),
		planner: seeker.NewPlanner(opts.Resolver),
	}
	if err := r.ctrl.SelectHideout(opts.City, opts.Hideout); err != nil {
		return Summary{}, fmt.Errorf("selecting hideout: %w", err)
	}
	if err := r.ctrl.ConfirmHide(); err != nil {
		return Summary{}, fmt.Errorf("confirming hideout: %w", err)
	}
	fmt.Fprintf(w, "hiding at %s (%.5f, %.5f)\n", opts.Hideout.Label, opts.Hideout.Coordinate.Lat, opts.Hideout.Coordinate.Lon)

	ticks := 0
	for r.rounds < opts.Rounds {
		if err := ctx.Err(); err != nil {
			return r.summary(ticks), err
		}
		if ticks >= opts.MaxTicks {
			return r.summary(ticks), ErrTickBudget
		}
		r.ctrl.Tick()
		ticks++
		r.settle()
	}
	return r.summary(ticks), nil
}

// settle serves locator requests and reports events until the controller is quiet.
func (r *runner) settle() {
	for {
		reqs := r.ctrl.TakeRequests()
		for _, req := range reqs {
			addr, err := session.Locate(r.ctx, r.opts.Resolver, r.planner, req)
			r.ctrl.Deliver(req.Token, addr, err)
		}
		events := r.ctrl.TakeEvents()
		answer := false
		for _, e := range events {
			r.report(e)
			if e.Type == session.EventQuestion && r.opts.Instant {
				answer = true
			}
		}
		if answer {
			_ = r.ctrl.Answer()
			continue
		}
		if len(reqs) == 0 && len(events) == 0 {
			return
		}
	}
}

func (r *runner) report(e session.Event) {
	switch e.Type {
	case session.EventSeekerReleased:
		fmt.Fprintf(r.w, "seeker released in %s\n", e.City.Name)
	case session.EventSeekerMoved:
		fmt.Fprintf(r.w, "seeker at %s (%.5f, %.5f)\n", e.Seeker.Label, e.Seeker.Coordinate.Lat, e.Seeker.Coordinate.Lon)
	case session.EventQuestion:
		fmt.Fprintf(r.w, "round %d: %s\n", e.Round, e.Question.Prompt())
	case session.EventResult:
		r.rounds++
		how := "answered"
		if e.Result.AutoAnswered {
			how = "auto-answered"
		}
		fmt.Fprintf(r.w, "round %d: %s %s, seeker %.2f mi away, score %d\n",
			e.Round, how, yesNo(e.Result.Answer), e.Result.TrueDistanceMiles, e.Score)
	}
}

func (r *runner) summary(ticks int) Summary {
	snap := r.ctrl.Snapshot()
	s := Summary{
		Rounds:   r.rounds,
		Score:    snap.Score,
		Ticks:    ticks,
		Seeker:   snap.Seeker,
		Estimate: snap.Estimate,
	}
	if snap.Seeker != nil {
		s.MissMiles = geo.DistanceMiles(snap.Seeker.Coordinate, r.opts.Hideout.Coordinate)
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
