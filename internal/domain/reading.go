package domain

import "time"

// Skip reasons surfaced in Readings. These are decision outcomes, not
// errors; every value is a stable human-readable string.
const (
	SkipNoMarket          = "no_market"
	SkipMarketClosingSoon = "market_closing_soon"
	SkipNoEdge            = "no_edge"
	SkipAlreadyPositioned = "already_positioned"
	SkipInsufficientUSDC  = "insufficient_usdc"
	SkipError             = "error"
)

// ScanResult is the outcome of scanning one location: either a qualifying
// opportunity or a skip reason. Exactly one of Opportunity and SkipReason
// is set.
type ScanResult struct {
	Forecast    Forecast
	Sigma       float64
	Opportunity *PricedBracket
	SkipReason  string
}

// Skipped reports whether the scan produced no tradeable opportunity.
func (r ScanResult) Skipped() bool {
	return r.Opportunity == nil
}

// Reading is the per-location, per-tick record published for external
// observers. Nullable fields use pointers so the serialized shape carries
// explicit nulls rather than zero values.
type Reading struct {
	Location      string    `json:"location"`
	ForecastHighF float64   `json:"forecastHighF"`
	SigmaF        float64   `json:"sigmaF"`
	TargetBracket *string   `json:"targetBracket"`
	BestEdge      *float64  `json:"bestEdge"`
	OrderID       *string   `json:"orderId"`
	SkippedReason *string   `json:"skippedReason"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewReading builds the nullable wire shape from a tagged ScanResult plus
// the tick's trade outcome.
func NewReading(loc Location, res ScanResult, orderID, skipReason string, at time.Time) Reading {
	r := Reading{
		Location:      loc.Name,
		ForecastHighF: res.Forecast.HighF,
		SigmaF:        res.Sigma,
		Timestamp:     at,
	}
	if res.Opportunity != nil {
		label := res.Opportunity.Label
		edge := res.Opportunity.Edge
		r.TargetBracket = &label
		r.BestEdge = &edge
	}
	if orderID != "" {
		r.OrderID = &orderID
	}
	if skipReason != "" {
		r.SkippedReason = &skipReason
	}
	return r
}
