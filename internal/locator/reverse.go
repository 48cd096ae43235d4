package locator

import (
	"context"
	"sync"

	"golang.org/x/exp/rand"

	"github.com/ugaemi/jetlagged-server/internal/game"
	"github.com/ugaemi/jetlagged-server/internal/geo"
)

// Reverser turns a coordinate into the nearest real address.
type Reverser interface {
	Reverse(ctx context.Context, c geo.Coordinate) (game.Address, error)
}

// ReverseStrategy samples a point the way Synthetic does and snaps it to a real
// address with a reverse geocoder.
type ReverseStrategy struct {
	reverser Reverser
	mu       sync.Mutex
	rng      *rand.Rand
}

func NewReverseStrategy(reverser Reverser, seed uint64) *ReverseStrategy {
	return &ReverseStrategy{reverser: reverser, rng: rand.New(rand.NewSource(seed))}
}

func (s *ReverseStrategy) Name() string { return "reverse" }

func (s *ReverseStrategy) Resolve(ctx context.Context, req Request) (game.Address, error) {
	s.mu.Lock()
	point := samplePoint(s.rng, req.Center, req.RadiusMiles)
	s.mu.Unlock()

	return s.reverser.Reverse(ctx, point)
}
