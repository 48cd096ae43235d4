package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugaemi/jetlagged-server/internal/geo"
)

func TestEstimatePosition(t *testing.T) {
	p := geo.Coordinate{Lat: 40.01, Lon: -75}
	q := geo.Coordinate{Lat: 40.02, Lon: -75.01}

	t.Run("empty history", func(t *testing.T) {
		_, ok := EstimatePosition(nil)
		assert.False(t, ok)
	})

	t.Run("only negative answers", func(t *testing.T) {
		_, ok := EstimatePosition([]AnswerRecord{{DistanceAsked: 5, WasWithin: false, SeekerPositionAtAsk: p}})
		assert.False(t, ok)
	})

	t.Run("later negative is ignored", func(t *testing.T) {
		est, ok := EstimatePosition([]AnswerRecord{
			{DistanceAsked: 1, WasWithin: true, SeekerPositionAtAsk: p},
			{DistanceAsked: 0.5, WasWithin: false, SeekerPositionAtAsk: q},
		})
		require.True(t, ok)
		assert.Equal(t, Estimate{Center: p, RadiusMiles: 1}, est)
	})

	t.Run("most recent positive wins", func(t *testing.T) {
		est, ok := EstimatePosition([]AnswerRecord{
			{DistanceAsked: 5, WasWithin: true, SeekerPositionAtAsk: p},
			{DistanceAsked: 3, WasWithin: true, SeekerPositionAtAsk: q},
		})
		require.True(t, ok)
		assert.Equal(t, Estimate{Center: q, RadiusMiles: 3}, est)
	})
}
