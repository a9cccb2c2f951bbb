package domain

import "time"

// Forecast is a single daily high-temperature prediction for a location.
// It is fetched fresh on every tick and never persisted on its own; the
// value that mattered for a decision is carried in the Reading.
type Forecast struct {
	// HighF is the predicted daily maximum temperature in Fahrenheit.
	HighF float64
	// FetchedAt is when the forecast was retrieved.
	FetchedAt time.Time
}
