package locator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ugaemi/jetlagged-server/internal/game"
	"github.com/ugaemi/jetlagged-server/internal/geo"
)

var (
	// ErrLocatorFailure marks a strategy that could not produce an address.
	// The Locator recovers from it by trying the next strategy.
	ErrLocatorFailure = errors.New("locator strategy failed")
	// ErrInvalidLocatorInput is returned for an unusable center or radius.
	ErrInvalidLocatorInput = errors.New("invalid locator input")
)

// candidateSlack is how far past the search radius a looked-up address may land.
const candidateSlack = 2.0

// Request describes where an address is wanted.
type Request struct {
	Center       geo.Coordinate
	RadiusMiles  float64
	CityName     string
	PriorAnswers []game.AnswerRecord
}

// Validate checks the center and radius.
func (r Request) Validate() error {
	if !r.Center.Valid() {
		return fmt.Errorf("%w: center %v", ErrInvalidLocatorInput, r.Center)
	}
	if math.IsNaN(r.RadiusMiles) || math.IsInf(r.RadiusMiles, 0) || r.RadiusMiles <= 0 {
		return fmt.Errorf("%w: radius %v", ErrInvalidLocatorInput, r.RadiusMiles)
	}
	return nil
}

// accepts reports whether c is close enough to the request to be used.
func (r Request) accepts(c geo.Coordinate) bool {
	return c.Valid() && geo.DistanceMiles(r.Center, c) <= r.RadiusMiles*candidateSlack
}

// Strategy is one way of resolving a Request.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, req Request) (game.Address, error)
}

// Resolver is what the game needs from a locator.
type Resolver interface {
	Resolve(ctx context.Context, req Request) (game.Address, error)
}

type Option func(l *Locator)

// WithStrategy appends a strategy tried before the synthetic fallback.
func WithStrategy(s Strategy) Option {
	return func(l *Locator) {
		if s != nil {
			l.strategies = append(l.strategies, s)
		}
	}
}

// WithTimeout bounds each non-fallback strategy attempt.
func WithTimeout(d time.Duration) Option {
	return func(l *Locator) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// Locator tries its strategies in order and always ends with the synthetic generator,
// so a valid request never fails.
type Locator struct {
	strategies []Strategy
	fallback   *Synthetic
	timeout    time.Duration
}

func New(fallback *Synthetic, options ...Option) *Locator {
	l := &Locator{
		fallback: fallback,
		timeout:  10 * time.Second,
	}
	for _, option := range options {
		option(l)
	}
	return l
}

// Resolve returns an address near req.Center.
func (l *Locator) Resolve(ctx context.Context, req Request) (game.Address, error) {
	if err := req.Validate(); err != nil {
		return game.Address{}, err
	}

	for _, s := range l.strategies {
		if ctx.Err() != nil {
			break
		}
		addr, err := l.try(ctx, s, req)
		if err == nil {
			slog.Debug("address resolved", "strategy", s.Name(), "label", addr.Label)
			return addr, nil
		}
		slog.Warn("locator strategy failed", "strategy", s.Name(), "error", err)
	}

	return l.fallback.Resolve(ctx, req)
}

func (l *Locator) try(ctx context.Context, s Strategy, req Request) (game.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	addr, err := s.Resolve(ctx, req)
	if err != nil {
		return game.Address{}, fmt.Errorf("%w: %w", ErrLocatorFailure, err)
	}
	if !req.accepts(addr.Coordinate) {
		return game.Address{}, fmt.Errorf("%w: %q is outside the search area", ErrLocatorFailure, addr.Label)
	}
	return addr, nil
}
