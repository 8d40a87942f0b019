package types

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `firestore:"lat" json:"lat" yaml:"lat"`
	Lng float64 `firestore:"lng" json:"lng" yaml:"lng"`
}

// BoundingBox bounds the simulated corridor or a named region.
type BoundingBox struct {
	MinLat float64 `firestore:"minLat" json:"minLat" yaml:"min_lat"`
	MaxLat float64 `firestore:"maxLat" json:"maxLat" yaml:"max_lat"`
	MinLon float64 `firestore:"minLon" json:"minLon" yaml:"min_lon"`
	MaxLon float64 `firestore:"maxLon" json:"maxLon" yaml:"max_lon"`
}

// Contains reports whether p lies in the half-open box [min, max).
func (b BoundingBox) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat < b.MaxLat && p.Lng >= b.MinLon && p.Lng < b.MaxLon
}

// ContainsWithMargin reports whether p lies inside the box shrunk by margin degrees on every side.
func (b BoundingBox) ContainsWithMargin(p Point, margin float64) bool {
	return p.Lat >= b.MinLat+margin && p.Lat <= b.MaxLat-margin &&
		p.Lng >= b.MinLon+margin && p.Lng <= b.MaxLon-margin
}

// IsZero reports whether b is the zero box, which callers read as unbounded.
func (b BoundingBox) IsZero() bool {
	return b == BoundingBox{}
}

// Allows is ContainsWithMargin with the zero box accepting every point.
func (b BoundingBox) Allows(p Point, margin float64) bool {
	if b.IsZero() {
		return true
	}
	return b.ContainsWithMargin(p, margin)
}

// Settlement is a named village or town used for proximity checks.
type Settlement struct {
	Name       string `firestore:"name" json:"name" yaml:"name"`
	Location   Point  `firestore:"location" json:"location" yaml:"location"`
	Population int    `firestore:"population,omitempty" json:"population,omitempty" yaml:"population,omitempty"`
}

// Farm is a cultivated polygon. Proximity is measured to its centroid.
type Farm struct {
	Name    string  `firestore:"name" json:"name" yaml:"name"`
	Polygon []Point `firestore:"polygon" json:"polygon" yaml:"polygon"`
}

// PeacekeepingStation is a responder base that alerts can be routed to.
type PeacekeepingStation struct {
	Name     string `firestore:"name" json:"name" yaml:"name"`
	Location Point  `firestore:"location" json:"location" yaml:"location"`
	Contact  string `firestore:"contact,omitempty" json:"contact,omitempty" yaml:"contact,omitempty"`
}

// ConflictZone is a circle of recorded historical conflict.
// Intensity is in [0,1] and falls off linearly to zero at the radius.
type ConflictZone struct {
	Name      string  `firestore:"name" json:"name" yaml:"name"`
	Center    Point   `firestore:"center" json:"center" yaml:"center"`
	RadiusKM  float64 `firestore:"radiusKm" json:"radiusKm" yaml:"radius_km"`
	Intensity float64 `firestore:"intensity" json:"intensity" yaml:"intensity"`
}
