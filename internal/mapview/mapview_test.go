package mapview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugaemi/jetlagged-server/internal/game"
	"github.com/ugaemi/jetlagged-server/internal/geo"
)

func TestRegionFor(t *testing.T) {
	tests := []struct {
		city string
		want string
		zoom int
	}{
		{"London, England, UK", "London", 10},
		{"new york, new york, usa", "New York", 8},
		{"Sydney", "Sydney", 8},
		{"Springfield, Illinois", "default", 6},
		{"", "default", 6},
	}
	for _, tt := range tests {
		t.Run(tt.city, func(t *testing.T) {
			r := RegionFor(tt.city)
			assert.Equal(t, tt.want, r.Name)
			assert.Equal(t, tt.zoom, r.Zoom)
		})
	}
}

func TestBuild(t *testing.T) {
	t.Run("nothing selected", func(t *testing.T) {
		v := Build(nil, nil, nil, nil)
		assert.Equal(t, DefaultRegion.Zoom, v.Zoom)
		assert.Empty(t, v.Markers)
		assert.Nil(t, v.EstimateBox)
	})

	t.Run("hideout seeker and estimate", func(t *testing.T) {
		city := &game.City{Name: "Paris", Coordinate: geo.Coordinate{Lat: 48.8566, Lon: 2.3522}}
		hideout := game.NewAddress("1 Rue X, Paris", geo.Coordinate{Lat: 48.86, Lon: 2.35}, game.KindStreet, 1)
		seeker := game.NewAddress("2 Rue Y, Paris", geo.Coordinate{Lat: 48.87, Lon: 2.36}, game.KindStreet, 1)
		est := &game.Estimate{Center: seeker.Coordinate, RadiusMiles: 1}

		v := Build(city, &hideout, &seeker, est)
		assert.Equal(t, 9, v.Zoom)
		assert.Equal(t, hideout.Coordinate, v.Center)
		require.Len(t, v.Markers, 2)
		assert.Equal(t, "hideout", v.Markers[0].Kind)
		assert.Equal(t, "seeker", v.Markers[1].Kind)
		require.NotNil(t, v.EstimateBox)
		assert.Less(t, v.EstimateBox.MinLat, est.Center.Lat)
	})
}
