// Package domain holds the core data model of the weather-arbitrage
// scanner: locations, forecasts, temperature brackets, per-tick readings,
// orders, and the shared scanner status.
package domain

// Location is a configured trading target. The set of locations is fixed at
// configuration time and iterated once per scanner tick.
type Location struct {
	// Name is the display label, e.g. "NYC".
	Name string
	// SlugPrefix is the Gamma event slug prefix for this location's daily
	// high-temperature market, e.g. "highest-temperature-in-nyc". The target
	// date is appended to form the full slug.
	SlugPrefix string
	Latitude   float64
	Longitude  float64
	// Timezone is an IANA zone name, e.g. "America/New_York". The market
	// resolves against the local calendar day at the station, so both the
	// forecast request and the event slug use this zone's "today".
	Timezone string
}

// DefaultLocations are the NWS stations with daily high-temperature markets
// on Polymarket.
func DefaultLocations() []Location {
	return []Location{
		{Name: "NYC", SlugPrefix: "highest-temperature-in-nyc", Latitude: 40.7790, Longitude: -73.9692, Timezone: "America/New_York"},
		{Name: "Chicago", SlugPrefix: "highest-temperature-in-chicago", Latitude: 41.9602, Longitude: -87.9316, Timezone: "America/Chicago"},
		{Name: "Miami", SlugPrefix: "highest-temperature-in-miami", Latitude: 25.7905, Longitude: -80.3164, Timezone: "America/New_York"},
		{Name: "Denver", SlugPrefix: "highest-temperature-in-denver", Latitude: 39.8466, Longitude: -104.6562, Timezone: "America/Denver"},
		{Name: "Philadelphia", SlugPrefix: "highest-temperature-in-philadelphia", Latitude: 39.8683, Longitude: -75.2311, Timezone: "America/New_York"},
	}
}
