package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"wxarb/internal/domain"
	"wxarb/internal/pricing"
)

// qualifyingFixture wires a strategy where the NYC scan always finds a
// qualifying 44-46°F opportunity on token tok-44.
func qualifyingFixture(orders *stubOrders, balance float64, params Params) *Strategy {
	prices := &stubPrices{asks: map[string]float64{
		"tok-42": 0.10,
		"tok-44": 0.20,
		"tok-47": 0.10,
		"tok-hi": 0.01,
	}}
	return newTestStrategy(
		&stubForecasts{highF: 45},
		&stubMarkets{brackets: testBrackets(time.Now().Add(12 * time.Hour))},
		prices,
		orders,
		&stubBalance{usdc: balance},
		params,
	)
}

func TestTickPlacesOrder(t *testing.T) {
	orders := &stubOrders{nextID: "ord-abc", nextStatus: domain.OrderStatusLive}
	rec := &stubRecorder{}
	s := qualifyingFixture(orders, 100, defaultTestParams())
	s.SetOrderRecorder(rec)

	readings := s.Tick(context.Background())
	if len(readings) != 1 {
		t.Fatalf("got %d readings, want 1", len(readings))
	}

	r := readings[0]
	if r.Location != "NYC" {
		t.Errorf("location %q", r.Location)
	}
	if r.OrderID == nil || *r.OrderID != "ord-abc" {
		t.Errorf("order id = %v, want ord-abc", r.OrderID)
	}
	if r.TargetBracket == nil || *r.TargetBracket != "44-46°F" {
		t.Errorf("target bracket = %v", r.TargetBracket)
	}
	if r.SkippedReason != nil {
		t.Errorf("skipped reason = %q on a traded reading", *r.SkippedReason)
	}
	if orders.placeCount() != 1 {
		t.Errorf("place calls = %d, want 1", orders.placeCount())
	}
	if len(rec.recorded) != 1 || rec.recorded[0] != "ord-abc" {
		t.Errorf("recorder saw %v", rec.recorded)
	}
}

func TestTickDryRunNeverPlaces(t *testing.T) {
	orders := &stubOrders{}
	params := defaultTestParams()
	params.DryRun = true
	s := qualifyingFixture(orders, 100, params)

	readings := s.Tick(context.Background())
	r := readings[0]

	if orders.placeCount() != 0 {
		t.Fatalf("dry run placed %d orders", orders.placeCount())
	}
	if r.OrderID != nil {
		t.Errorf("dry run reading carries order id %q", *r.OrderID)
	}
	if r.TargetBracket == nil || *r.TargetBracket != "44-46°F" {
		t.Errorf("dry run reading lost the target bracket: %v", r.TargetBracket)
	}
	if r.BestEdge == nil || *r.BestEdge <= 0.20 {
		t.Errorf("dry run reading edge = %v", r.BestEdge)
	}
	if r.SkippedReason != nil {
		t.Errorf("dry run reading marked skipped: %q", *r.SkippedReason)
	}
}

func TestTickInsufficientBalance(t *testing.T) {
	orders := &stubOrders{}
	s := qualifyingFixture(orders, 3, defaultTestParams()) // trade size is 5

	r := s.Tick(context.Background())[0]
	if r.SkippedReason == nil || *r.SkippedReason != domain.SkipInsufficientUSDC {
		t.Errorf("skipped reason = %v, want %q", r.SkippedReason, domain.SkipInsufficientUSDC)
	}
	if orders.placeCount() != 0 {
		t.Errorf("placed %d orders with insufficient balance", orders.placeCount())
	}
}

func TestTickAlreadyPositioned(t *testing.T) {
	orders := &stubOrders{
		open: []domain.Order{{ID: "old", TokenID: "tok-44", Status: domain.OrderStatusLive}},
	}
	s := qualifyingFixture(orders, 100, defaultTestParams())

	r := s.Tick(context.Background())[0]
	if r.SkippedReason == nil || *r.SkippedReason != domain.SkipAlreadyPositioned {
		t.Errorf("skipped reason = %v, want %q", r.SkippedReason, domain.SkipAlreadyPositioned)
	}
	if orders.placeCount() != 0 {
		t.Errorf("placed %d orders on an already-positioned bracket", orders.placeCount())
	}
}

func TestTickOpenOrdersFailureDegrades(t *testing.T) {
	// A failed open-orders fetch means "assume no positions", so the trade
	// still goes through.
	orders := &stubOrders{openErr: errors.New("clob unavailable"), nextID: "ord-1"}
	s := qualifyingFixture(orders, 100, defaultTestParams())

	r := s.Tick(context.Background())[0]
	if r.OrderID == nil {
		t.Errorf("trade blocked by open-orders failure: skip=%v", r.SkippedReason)
	}
}

func TestTickPlacementFailure(t *testing.T) {
	orders := &stubOrders{placeErr: errors.New("rejected upstream")}
	s := qualifyingFixture(orders, 100, defaultTestParams())

	r := s.Tick(context.Background())[0]
	if r.SkippedReason == nil || *r.SkippedReason != domain.SkipError {
		t.Errorf("skipped reason = %v, want %q", r.SkippedReason, domain.SkipError)
	}
}

func TestTickIsolatesLocationFailures(t *testing.T) {
	// Two locations share one forecast source that always fails; each
	// location still gets its own error reading and the tick completes.
	locs := []domain.Location{
		{Name: "NYC", SlugPrefix: "highest-temperature-in-nyc", Timezone: "UTC"},
		{Name: "Chicago", SlugPrefix: "highest-temperature-in-chicago", Timezone: "UTC"},
	}
	s := NewStrategy(
		&stubForecasts{err: errors.New("upstream down")},
		&stubMarkets{brackets: testBrackets(time.Now().Add(12 * time.Hour))},
		&stubPrices{},
		&stubOrders{},
		&stubBalance{usdc: 100},
		pricing.DefaultParams(),
		defaultTestParams(),
		locs,
		testLogger(),
	)

	readings := s.Tick(context.Background())
	if len(readings) != 2 {
		t.Fatalf("got %d readings, want 2", len(readings))
	}
	for _, r := range readings {
		if r.SkippedReason == nil || *r.SkippedReason != domain.SkipError {
			t.Errorf("%s: skipped reason = %v, want %q", r.Location, r.SkippedReason, domain.SkipError)
		}
	}
}
