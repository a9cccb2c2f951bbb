package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Bracket is one tradeable outcome range of a daily-high market: a
// contiguous temperature band resolved as a binary outcome. Brackets are
// sourced fresh from the Gamma API each tick and never mutated; the next
// fetch supersedes them.
type Bracket struct {
	Label string
	// LowerF and UpperF are the inclusive range bounds in Fahrenheit.
	// Open-ended brackets carry math.Inf(-1) / math.Inf(1).
	LowerF float64
	UpperF float64
	// YesTokenID is the CLOB token for the affirmative outcome.
	YesTokenID  string
	ConditionID string
	// AcceptingOrders mirrors the market's accepting_orders flag.
	AcceptingOrders bool
	CloseTime       time.Time
}

// Terminal reports whether the bracket is open-ended on either side
// ("or below" / "or higher"). Terminal brackets are priceable but excluded
// from trading.
func (b Bracket) Terminal() bool {
	return math.IsInf(b.LowerF, -1) || math.IsInf(b.UpperF, 1)
}

// PricedBracket augments a Bracket with the observed ask and the model's
// fair probability. Ephemeral, recomputed per tick.
type PricedBracket struct {
	Bracket
	Ask  float64
	Fair float64
	Edge float64
}

var (
	rangeLabelRe = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)\s*-\s*(-?\d+(?:\.\d+)?)°([CF])$`)
	openLabelRe  = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)°([CF])\s+or\s+(below|lower|above|higher)$`)
)

// ParseBracketLabel extracts the Fahrenheit bounds from a market label such
// as "40-41°F", "33°F or below", "48°F or higher", or the Celsius
// equivalents (converted via F = C*9/5 + 32). It returns
// ErrUnparseableBracket for anything else.
func ParseBracketLabel(label string) (lo, hi float64, err error) {
	s := strings.TrimSpace(label)

	if m := rangeLabelRe.FindStringSubmatch(s); m != nil {
		lo, _ = strconv.ParseFloat(m[1], 64)
		hi, _ = strconv.ParseFloat(m[2], 64)
		if m[3] == "C" {
			lo = celsiusToFahrenheit(lo)
			hi = celsiusToFahrenheit(hi)
		}
		if lo > hi {
			return 0, 0, fmt.Errorf("%w: inverted range %q", ErrUnparseableBracket, label)
		}
		return lo, hi, nil
	}

	if m := openLabelRe.FindStringSubmatch(s); m != nil {
		bound, _ := strconv.ParseFloat(m[1], 64)
		if m[2] == "C" {
			bound = celsiusToFahrenheit(bound)
		}
		switch m[3] {
		case "below", "lower":
			return math.Inf(-1), bound, nil
		default: // "above", "higher"
			return bound, math.Inf(1), nil
		}
	}

	return 0, 0, fmt.Errorf("%w: %q", ErrUnparseableBracket, label)
}

func celsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}
