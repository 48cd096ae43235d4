package geo

import "math"

// Earth measurements in miles.
const (
	EarthRadiusMiles = 3959.0
	MilesPerDegree   = 69.0
)

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate is finite and within WGS84 ranges.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// DistanceMiles returns the great-circle distance between a and b using the haversine formula.
func DistanceMiles(a, b Coordinate) float64 {
	if a == b {
		return 0
	}
	p1, p2 := radians(a.Lat), radians(b.Lat)
	dp, dl := radians(b.Lat-a.Lat), radians(b.Lon-a.Lon)
	h := math.Sin(dp/2)*math.Sin(dp/2) + math.Cos(p1)*math.Cos(p2)*math.Sin(dl/2)*math.Sin(dl/2)
	return EarthRadiusMiles * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Bearing returns the initial great-circle bearing from a to b in radians,
// measured clockwise from north and normalized to [0, 2π).
func Bearing(a, b Coordinate) float64 {
	p1, p2 := radians(a.Lat), radians(b.Lat)
	dl := radians(b.Lon - a.Lon)
	y := math.Sin(dl) * math.Cos(p2)
	x := math.Cos(p1)*math.Sin(p2) - math.Sin(p1)*math.Cos(p2)*math.Cos(dl)
	return normalize(math.Atan2(y, x))
}

// Offset projects c by miles along bearing (radians clockwise from north).
// It uses the flat miles/69 degrees-of-latitude approximation, scaling the
// longitude step by cos(lat), which is accurate for the few-mile hops the game makes.
func Offset(c Coordinate, bearing, miles float64) Coordinate {
	dLat := miles * math.Cos(bearing) / MilesPerDegree
	dLon := 0.0
	if cos := math.Cos(radians(c.Lat)); cos > 1e-9 {
		dLon = miles * math.Sin(bearing) / (MilesPerDegree * cos)
	}
	return clamp(Coordinate{Lat: c.Lat + dLat, Lon: c.Lon + dLon})
}

// BBox is an axis-aligned bounding box in degrees.
type BBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// BoundingBox returns the box enclosing a disc of radiusMiles around center.
func BoundingBox(center Coordinate, radiusMiles float64) BBox {
	north := Offset(center, 0, radiusMiles)
	south := Offset(center, math.Pi, radiusMiles)
	east := Offset(center, math.Pi/2, radiusMiles)
	west := Offset(center, 3*math.Pi/2, radiusMiles)
	return BBox{MinLon: west.Lon, MinLat: south.Lat, MaxLon: east.Lon, MaxLat: north.Lat}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func normalize(rad float64) float64 {
	rad = math.Mod(rad, 2*math.Pi)
	if rad < 0 {
		rad += 2 * math.Pi
	}
	return rad
}

// clamp keeps latitude in range and wraps longitude into [-180, 180].
func clamp(c Coordinate) Coordinate {
	if c.Lat > 90 {
		c.Lat = 90
	} else if c.Lat < -90 {
		c.Lat = -90
	}
	for c.Lon > 180 {
		c.Lon -= 360
	}
	for c.Lon < -180 {
		c.Lon += 360
	}
	return c
}
