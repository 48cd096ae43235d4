package seeker

import (
	"context"
	"log/slog"
	"math"

	"github.com/ugaemi/jetlagged-server/internal/game"
	"github.com/ugaemi/jetlagged-server/internal/geo"
	"github.com/ugaemi/jetlagged-server/internal/locator"
)

// Planner decides where the seeker goes next.
type Planner struct {
	locator locator.Resolver
}

func NewPlanner(l locator.Resolver) *Planner {
	return &Planner{locator: l}
}

// Target returns the point the seeker heads for before snapping to a street.
// With an estimate further than half its radius away, the seeker takes a damped
// step toward the estimate center: half the distance, at most MaxPursuitHop miles.
// Otherwise it wanders around its current position.
func Target(current geo.Coordinate, est *game.Estimate) (geo.Coordinate, bool) {
	if est == nil {
		return current, false
	}
	dist := geo.DistanceMiles(current, est.Center)
	if dist <= est.RadiusMiles/2 {
		return current, false
	}
	step := math.Min(dist/2, game.MaxPursuitHop)
	return geo.Offset(current, geo.Bearing(current, est.Center), step), true
}

// Plan returns the seeker's next address. The history is a read-only snapshot
// handed to the locator as context; a nil estimate means plain wandering.
func (p *Planner) Plan(ctx context.Context, current game.Address, est *game.Estimate, city string, history []game.AnswerRecord) (game.Address, error) {
	target, pursuing := Target(current.Coordinate, est)
	if pursuing {
		slog.Debug("seeker pursuing estimate", "center_lat", est.Center.Lat, "center_lon", est.Center.Lon, "radius", est.RadiusMiles)
	} else {
		slog.Debug("seeker wandering", "lat", current.Coordinate.Lat, "lon", current.Coordinate.Lon)
	}
	return p.locator.Resolve(ctx, locator.Request{
		Center:       target,
		RadiusMiles:  game.WanderRadius,
		CityName:     city,
		PriorAnswers: history,
	})
}
