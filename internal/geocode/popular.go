package geocode

import (
	"github.com/ugaemi/jetlagged-server/internal/game"
	"github.com/ugaemi/jetlagged-server/internal/geo"
)

// PopularLocation is a one-click starting city offered before any search.
type PopularLocation struct {
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name"`
	Coordinate  geo.Coordinate `json:"coordinate"`
}

var popularLocations = []PopularLocation{
	{Name: "New York", DisplayName: "New York, New York, USA", Coordinate: geo.Coordinate{Lat: 40.7128, Lon: -74.0060}},
	{Name: "London", DisplayName: "London, England, UK", Coordinate: geo.Coordinate{Lat: 51.5074, Lon: -0.1278}},
	{Name: "Tokyo", DisplayName: "Tokyo, Japan", Coordinate: geo.Coordinate{Lat: 35.6762, Lon: 139.6503}},
	{Name: "Paris", DisplayName: "Paris, France", Coordinate: geo.Coordinate{Lat: 48.8566, Lon: 2.3522}},
	{Name: "San Francisco", DisplayName: "San Francisco, California, USA", Coordinate: geo.Coordinate{Lat: 37.7749, Lon: -122.4194}},
}

// PopularLocations returns a copy of the built-in city list.
func PopularLocations() []PopularLocation {
	out := make([]PopularLocation, len(popularLocations))
	copy(out, popularLocations)
	return out
}

// City converts the location into the game's city context.
func (p PopularLocation) City() game.City {
	return game.City{Name: p.Name, Coordinate: p.Coordinate}
}

// Address converts the location into a city-level address with full confidence.
func (p PopularLocation) Address() game.Address {
	addr := game.NewAddress(p.DisplayName, p.Coordinate, game.KindCity, 1)
	addr.ID = p.Name
	return addr
}
