// Package pricing converts a point forecast into fair probabilities for
// temperature brackets. The model treats the resolved daily high as normally
// distributed around the forecast with an uncertainty that shrinks as the
// market approaches close.
package pricing

import (
	"math"

	"wxarb/internal/domain"
)

// ModelParams holds the forecast-uncertainty calibration. The breakpoints
// encode an accuracy assumption about same-day forecasts and are exposed as
// configuration rather than constants so they can be recalibrated.
type ModelParams struct {
	// SigmaFloorF is the uncertainty (°F) at or under HorizonFloorHours to
	// market close.
	SigmaFloorF float64
	// SigmaCapF is the uncertainty at or over HorizonCapHours to close.
	SigmaCapF         float64
	HorizonFloorHours float64
	HorizonCapHours   float64
	// HalfStepF widens each bracket bound to model discrete-degree
	// resolution: a "40-41" bracket covers highs in [39.5, 41.5).
	HalfStepF float64
}

// DefaultParams returns the calibration in production use: 2°F at ≤6h to
// close, 4°F at ≥30h, linear between, with a half-degree boundary step.
func DefaultParams() ModelParams {
	return ModelParams{
		SigmaFloorF:       2,
		SigmaCapF:         4,
		HorizonFloorHours: 6,
		HorizonCapHours:   30,
		HalfStepF:         0.5,
	}
}

// Sigma returns the forecast uncertainty for the given horizon (hours until
// the earliest bracket close), via two-point linear interpolation clamped at
// both breakpoints.
func (p ModelParams) Sigma(hoursToClose float64) float64 {
	switch {
	case hoursToClose <= p.HorizonFloorHours:
		return p.SigmaFloorF
	case hoursToClose >= p.HorizonCapHours:
		return p.SigmaCapF
	default:
		frac := (hoursToClose - p.HorizonFloorHours) / (p.HorizonCapHours - p.HorizonFloorHours)
		return p.SigmaFloorF + frac*(p.SigmaCapF-p.SigmaFloorF)
	}
}

// BracketFairValue returns the probability that a N(mu, sigma) daily high
// resolves inside [lo, hi], with the half-step boundary widening applied.
// Unbounded ends (±Inf) collapse the corresponding CDF term to 1 or 0. The
// result is clamped to [0, 1].
func (p ModelParams) BracketFairValue(mu, sigma, lo, hi float64) float64 {
	upper := 1.0
	if !math.IsInf(hi, 1) {
		upper = normCDF((hi + p.HalfStepF - mu) / sigma)
	}
	lower := 0.0
	if !math.IsInf(lo, -1) {
		lower = normCDF((lo - p.HalfStepF - mu) / sigma)
	}

	fair := upper - lower
	if fair < 0 {
		return 0
	}
	if fair > 1 {
		return 1
	}
	return fair
}

// Price computes a PricedBracket for every (bracket, ask) pair. Edge is
// fair minus ask.
func (p ModelParams) Price(b domain.Bracket, mu, sigma, ask float64) domain.PricedBracket {
	fair := p.BracketFairValue(mu, sigma, b.LowerF, b.UpperF)
	return domain.PricedBracket{
		Bracket: b,
		Ask:     ask,
		Fair:    fair,
		Edge:    fair - ask,
	}
}

// Best selects the highest-edge bracket meeting both thresholds. Ties keep
// the first-encountered bracket, which is deterministic because brackets
// arrive in range order. The second return is false when nothing qualifies.
func Best(priced []domain.PricedBracket, minEdge, minFair float64) (domain.PricedBracket, bool) {
	var best domain.PricedBracket
	found := false
	for _, pb := range priced {
		if pb.Edge < minEdge || pb.Fair < minFair {
			continue
		}
		if !found || pb.Edge > best.Edge {
			best = pb
			found = true
		}
	}
	return best, found
}

// normCDF is the standard normal CDF, Φ(z) = erfc(-z/√2)/2.
func normCDF(z float64) float64 {
	return 0.5 * math.Erfc(-z/math.Sqrt2)
}
