package types

type Severity string

const (
	High   Severity = "high"
	Medium Severity = "medium"
	Low    Severity = "low"
)

// Rank orders severities for sorting; lower is more urgent.
func (s Severity) Rank() int {
	switch s {
	case High:
		return 0
	case Medium:
		return 1
	default:
		return 2
	}
}

type Category string

const (
	CommunityProtection Category = "community_protection"
	ResourceTension     Category = "resource_tension"
)

type ActionKind string

const (
	ActionRedirect ActionKind = "redirect"
	ActionDelay    ActionKind = "delay"
	ActionBoth     ActionKind = "both"
)

// Region and Season come from the threshold profile resolver.
type Region string

type Season string

const (
	SeasonDry        Season = "dry"
	SeasonWet        Season = "wet"
	SeasonTransition Season = "transition"
)

// RiskThresholdProfile is the region and season adjusted set of cutoffs at a point.
type RiskThresholdProfile struct {
	Region        Region  `firestore:"region" json:"region"`
	Season        Season  `firestore:"season" json:"season"`
	DayOfYear     int     `firestore:"dayOfYear" json:"dayOfYear"`
	ConvergenceKM float64 `firestore:"convergenceKm" json:"convergenceKm"`
	VillageKM     float64 `firestore:"villageKm" json:"villageKm"`
	FarmKM        float64 `firestore:"farmKm" json:"farmKm"`
	ScarcityCSI   float64 `firestore:"scarcityCsi" json:"scarcityCsi"`
	ConflictScore float64 `firestore:"conflictScore" json:"conflictScore"`
}

// Triggers records which risk conditions fired at a convergence point.
type Triggers struct {
	ResourceScarcity  bool    `firestore:"resourceScarcity" json:"resourceScarcity"`
	Settlement        bool    `firestore:"settlement" json:"settlement"`
	Farmland          bool    `firestore:"farmland" json:"farmland"`
	ConflictHistory   bool    `firestore:"conflictHistory" json:"conflictHistory"`
	NearestSettlement string  `firestore:"nearestSettlement,omitempty" json:"nearestSettlement,omitempty"`
	SettlementKM      float64 `firestore:"settlementKm" json:"settlementKm"`
	NearestFarm       string  `firestore:"nearestFarm,omitempty" json:"nearestFarm,omitempty"`
	FarmKM            float64 `firestore:"farmKm" json:"farmKm"`
	ConflictScore     float64 `firestore:"conflictScore" json:"conflictScore"`
	CSI               float64 `firestore:"csi" json:"csi"`
}

// Count returns how many of the four binary triggers fired.
func (t Triggers) Count() int {
	n := 0
	for _, fired := range []bool{t.ResourceScarcity, t.Settlement, t.Farmland, t.ConflictHistory} {
		if fired {
			n++
		}
	}
	return n
}

// SuggestedAction is a mitigation attached to exactly one alert.
type SuggestedAction struct {
	AlertID   string     `firestore:"alertId" json:"alertId"`
	HerdID    string     `firestore:"herdId" json:"herdId"`
	Kind      ActionKind `firestore:"kind" json:"kind"`
	Target    *Point     `firestore:"target,omitempty" json:"target,omitempty"`
	DelayDays int        `firestore:"delayDays,omitempty" json:"delayDays,omitempty"`
	Rationale string     `firestore:"rationale" json:"rationale"`
	Impact    string     `firestore:"impact" json:"impact"`
}

// Alert flags a predicted convergence of two herds with contextual risk.
type Alert struct {
	ID            string               `firestore:"id" json:"id"`
	HerdA         string               `firestore:"herdA" json:"herdA"`
	HerdB         string               `firestore:"herdB" json:"herdB"`
	Location      Point                `firestore:"location" json:"location"`
	LocationName  string               `firestore:"locationName,omitempty" json:"locationName,omitempty"`
	Day           int                  `firestore:"day" json:"day"`
	DaysAway      int                  `firestore:"daysAway" json:"daysAway"`
	DistanceKM    float64              `firestore:"distanceKm" json:"distanceKm"`
	Severity      Severity             `firestore:"severity" json:"severity"`
	Category      Category             `firestore:"category" json:"category"`
	Triggers      Triggers             `firestore:"triggers" json:"triggers"`
	Profile       RiskThresholdProfile `firestore:"profile" json:"profile"`
	NearestPost   string               `firestore:"nearestPost,omitempty" json:"nearestPost,omitempty"`
	NearestPostKM float64              `firestore:"nearestPostKm,omitempty" json:"nearestPostKm,omitempty"`
	Actions       []SuggestedAction    `firestore:"actions" json:"actions"`
}

// PairKey is the unordered herd pair identity used for deduplication.
func (a Alert) PairKey() string {
	return PairKey(a.HerdA, a.HerdB)
}

// PairKey joins two herd ids in sorted order.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// RiskZone is the area around an alert that responders should watch.
type RiskZone struct {
	AlertID  string   `firestore:"alertId" json:"alertId"`
	Center   Point    `firestore:"center" json:"center"`
	RadiusKM float64  `firestore:"radiusKm" json:"radiusKm"`
	Severity Severity `firestore:"severity" json:"severity"`
	Category Category `firestore:"category" json:"category"`
}

// AlternativeRoute is the rerouting path suggested for a redirected herd.
type AlternativeRoute struct {
	AlertID    string  `firestore:"alertId" json:"alertId"`
	HerdID     string  `firestore:"herdId" json:"herdId"`
	Waypoints  []Point `firestore:"waypoints" json:"waypoints"`
	DistanceKM float64 `firestore:"distanceKm" json:"distanceKm"`
	Reason     string  `firestore:"reason" json:"reason"`
}

// RiskReport is the output of one detection pass.
type RiskReport struct {
	Alerts            []Alert            `firestore:"alerts" json:"alerts"`
	RiskZones         []RiskZone         `firestore:"riskZones" json:"riskZones"`
	AlternativeRoutes []AlternativeRoute `firestore:"alternativeRoutes" json:"alternativeRoutes"`
	SuggestedActions  []SuggestedAction  `firestore:"suggestedActions" json:"suggestedActions"`
}
