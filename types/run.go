package types

type Status string

const (
	Pending  Status = "pending"
	Complete Status = "complete"
	Failed   Status = "failed"
)

// ForecastRun is one persisted simulate+detect pass.
type ForecastRun struct {
	ID           string      `firestore:"-" json:"id"`
	Day          int         `firestore:"day" json:"day"`
	ForecastDays int         `firestore:"forecastDays" json:"forecastDays"`
	Scenario     DayScenario `firestore:"scenario" json:"scenario"`
	Herds        []Herd      `firestore:"herds" json:"herds"`
	Report       RiskReport  `firestore:"report" json:"report"`
	Status       Status      `firestore:"status" json:"status"`
	CreatedAt    string      `firestore:"createdAt" json:"createdAt"`                   // RFC3339
	Briefing     string      `firestore:"briefing,omitempty" json:"briefing,omitempty"` // filled later by LLM
}
