package types

// MovementBand classifies a CSI into how strongly a herd is pushed to move.
type MovementBand string

const (
	BandHigh     MovementBand = "high"
	BandModerate MovementBand = "moderate"
	BandLow      MovementBand = "low"
)

// MovementLikelihood describes the movement expectation for a band.
type MovementLikelihood struct {
	Band        MovementBand `firestore:"band" json:"band"`
	Probability float64      `firestore:"probability" json:"probability"`
	MinProb     float64      `firestore:"minProb" json:"minProb"`
	MaxProb     float64      `firestore:"maxProb" json:"maxProb"`
	MinKM       float64      `firestore:"minKm" json:"minKm"`
	MaxKM       float64      `firestore:"maxKm" json:"maxKm"`
	Description string       `firestore:"description" json:"description"`
}

// HerdSeed is the base position a simulation run re-derives every herd from.
type HerdSeed struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Position Point   `json:"position" yaml:"position"`
	Size     int     `json:"size" yaml:"size"`
	SpeedKM  float64 `json:"speedKm" yaml:"speed_km"` // daily travel budget
}

type TrailPoint struct {
	Day      int   `firestore:"day" json:"day"`
	Position Point `firestore:"position" json:"position"`
}

// ForecastPoint is one predicted future position.
type ForecastPoint struct {
	DayOffset  int                `firestore:"dayOffset" json:"dayOffset"`
	Day        int                `firestore:"day" json:"day"`
	Position   Point              `firestore:"position" json:"position"`
	CSI        float64            `firestore:"csi" json:"csi"`
	Band       MovementBand       `firestore:"band" json:"band"`
	Likelihood MovementLikelihood `firestore:"likelihood" json:"likelihood"`
	Confidence float64            `firestore:"confidence" json:"confidence"`
	Rationale  string             `firestore:"rationale" json:"rationale"`
}

// Herd is the simulated state of one tracked herd for a run.
type Herd struct {
	ID        string          `firestore:"id" json:"id"`
	Name      string          `firestore:"name" json:"name"`
	Position  Point           `firestore:"position" json:"position"`
	Size      int             `firestore:"size" json:"size"`
	SpeedKM   float64         `firestore:"speedKm" json:"speedKm"`
	CSI       float64         `firestore:"csi" json:"csi"`
	Band      MovementBand    `firestore:"band" json:"band"`
	Trail     []TrailPoint    `firestore:"trail" json:"trail"`
	Forecast  []ForecastPoint `firestore:"forecast" json:"forecast"`
	Rationale string          `firestore:"rationale" json:"rationale"`
}

// PositionAt returns the predicted position at a forecast offset.
// Offset 0 is the current position.
func (h Herd) PositionAt(offset int) (Point, bool) {
	if offset == 0 {
		return h.Position, true
	}
	for _, f := range h.Forecast {
		if f.DayOffset == offset {
			return f.Position, true
		}
	}
	return Point{}, false
}
