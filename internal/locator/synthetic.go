package locator

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/exp/rand"

	"github.com/ugaemi/jetlagged-server/internal/game"
	"github.com/ugaemi/jetlagged-server/internal/geo"
)

const (
	syntheticConfidence = 0.2
	maxHouseNumber      = 999
)

var streetNames = []string{
	"Main Street",
	"Oak Avenue",
	"Maple Drive",
	"Park Road",
	"Cedar Lane",
	"Elm Street",
	"Pine Street",
	"Washington Avenue",
	"Lake Road",
	"Hill Street",
}

// Synthetic makes up a plausible street address at a random point inside the
// search radius. It never fails for a valid request.
type Synthetic struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSynthetic(seed uint64) *Synthetic {
	return &Synthetic{rng: rand.New(rand.NewSource(seed))}
}

func (s *Synthetic) Name() string { return "synthetic" }

func (s *Synthetic) Resolve(_ context.Context, req Request) (game.Address, error) {
	if err := req.Validate(); err != nil {
		return game.Address{}, err
	}

	s.mu.Lock()
	point := samplePoint(s.rng, req.Center, req.RadiusMiles)
	street := streetNames[s.rng.Intn(len(streetNames))]
	number := s.rng.Intn(maxHouseNumber) + 1
	s.mu.Unlock()

	label := fmt.Sprintf("%d %s", number, street)
	if req.CityName != "" {
		label += ", " + req.CityName
	}
	return game.NewAddress(label, point, game.KindStreet, syntheticConfidence), nil
}

// samplePoint picks a uniform bearing and a uniform distance in [0, radius].
// Caller must hold the lock guarding rng.
func samplePoint(rng *rand.Rand, center geo.Coordinate, radius float64) geo.Coordinate {
	bearing := rng.Float64() * 2 * math.Pi
	dist := rng.Float64() * radius
	return geo.Offset(center, bearing, dist)
}
