// Package mapview builds read-only map snapshots for the hider's client.
package mapview

import (
	"strings"

	"github.com/ugaemi/jetlagged-server/internal/game"
	"github.com/ugaemi/jetlagged-server/internal/geo"
)

type Region struct {
	Name string
	BBox geo.BBox
	Zoom int
}

var regions = []Region{
	{Name: "New York", BBox: geo.BBox{MinLon: -80, MinLat: 35, MaxLon: -70, MaxLat: 45}, Zoom: 8},
	{Name: "San Francisco", BBox: geo.BBox{MinLon: -125, MinLat: 35, MaxLon: -115, MaxLat: 40}, Zoom: 9},
	{Name: "London", BBox: geo.BBox{MinLon: -5, MinLat: 50, MaxLon: 2, MaxLat: 52}, Zoom: 10},
	{Name: "Tokyo", BBox: geo.BBox{MinLon: 135, MinLat: 33, MaxLon: 145, MaxLat: 38}, Zoom: 8},
	{Name: "Paris", BBox: geo.BBox{MinLon: 0, MinLat: 47, MaxLon: 5, MaxLat: 50}, Zoom: 9},
	{Name: "Sydney", BBox: geo.BBox{MinLon: 145, MinLat: -38, MaxLon: 155, MaxLat: -32}, Zoom: 8},
}

// DefaultRegion covers the continental United States.
var DefaultRegion = Region{Name: "default", BBox: geo.BBox{MinLon: -125, MinLat: 24, MaxLon: -65, MaxLat: 50}, Zoom: 6}

// RegionFor matches a city name against the known regions by substring.
func RegionFor(cityName string) Region {
	name := strings.ToLower(cityName)
	for _, r := range regions {
		if strings.Contains(name, strings.ToLower(r.Name)) {
			return r
		}
	}
	return DefaultRegion
}

type Marker struct {
	Kind       string         `json:"kind"` // "hideout", "seeker"
	Label      string         `json:"label"`
	Coordinate geo.Coordinate `json:"coordinate"`
}

type View struct {
	Center      geo.Coordinate `json:"center"`
	Zoom        int            `json:"zoom"`
	Markers     []Marker       `json:"markers"`
	BBox        geo.BBox       `json:"bbox"`
	EstimateBox *geo.BBox      `json:"estimate_bbox,omitempty"`
}

// Build assembles the view for the current game state. Any argument may be nil.
func Build(city *game.City, hideout, seeker *game.Address, est *game.Estimate) View {
	var cityName string
	if city != nil {
		cityName = city.Name
	}
	region := RegionFor(cityName)

	v := View{
		Center:  bboxCenter(region.BBox),
		Zoom:    region.Zoom,
		BBox:    region.BBox,
		Markers: []Marker{},
	}
	if city != nil && city.Coordinate.Valid() {
		v.Center = city.Coordinate
	}
	if hideout != nil {
		v.Center = hideout.Coordinate
		v.Markers = append(v.Markers, Marker{Kind: "hideout", Label: hideout.Label, Coordinate: hideout.Coordinate})
	}
	if seeker != nil {
		v.Markers = append(v.Markers, Marker{Kind: "seeker", Label: seeker.Label, Coordinate: seeker.Coordinate})
	}
	if est != nil {
		box := geo.BoundingBox(est.Center, est.RadiusMiles)
		v.EstimateBox = &box
	}
	return v
}

func bboxCenter(b geo.BBox) geo.Coordinate {
	return geo.Coordinate{Lat: (b.MinLat + b.MaxLat) / 2, Lon: (b.MinLon + b.MaxLon) / 2}
}
