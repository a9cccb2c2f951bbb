// Package scanner contains the weather-arbitrage decision engine: the
// per-location opportunity scan, the per-tick strategy cycle, and the
// background daemon that owns the recurring timer and publishes status for
// other processes.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"wxarb/internal/domain"
	"wxarb/internal/pricing"
)

// ForecastSource supplies daily high-temperature forecasts.
type ForecastSource interface {
	DailyHigh(ctx context.Context, lat, lon float64, timezone string, date time.Time) (domain.Forecast, error)
}

// MarketSource supplies the open bracket markets for an event slug.
type MarketSource interface {
	TemperatureBrackets(ctx context.Context, slug string) ([]domain.Bracket, error)
}

// PriceSource supplies live ask prices per outcome token.
type PriceSource interface {
	BestAsk(ctx context.Context, tokenID string) (float64, error)
}

// OrderClient is the trading surface of the CLOB client used by the tick.
type OrderClient interface {
	PlaceBuyOrder(ctx context.Context, tokenID string, price, spendUSDC float64) (domain.Order, error)
	OpenOrders(ctx context.Context) ([]domain.Order, error)
}

// BalanceSource reports the spendable USDC balance, failing safe to zero.
type BalanceSource interface {
	SpendableUSDC(ctx context.Context) float64
}

// OrderRecorder receives a best-effort copy of every placed order. May be
// nil.
type OrderRecorder interface {
	RecordOrder(ctx context.Context, location, bracket string, o domain.Order) error
}

// Params are the strategy thresholds and sizing limits for one Strategy.
type Params struct {
	MinEdge            float64
	MinFairValue       float64
	TradeAmountUSDC    float64
	MaxSpendPerBracket float64
	// CloseBuffer is the minimum time to market close; scanning closer than
	// this skips the location to avoid racing a closing book.
	CloseBuffer time.Duration
	DryRun      bool
}

// Strategy evaluates configured locations against the market and places
// orders when the modeled edge clears the thresholds.
type Strategy struct {
	forecasts ForecastSource
	markets   MarketSource
	prices    PriceSource
	orders    OrderClient
	balance   BalanceSource
	model     pricing.ModelParams
	params    Params
	locations []domain.Location
	recorder  OrderRecorder
	logger    *slog.Logger
}

// NewStrategy creates a Strategy over the given sources.
func NewStrategy(
	forecasts ForecastSource,
	markets MarketSource,
	prices PriceSource,
	orders OrderClient,
	balance BalanceSource,
	model pricing.ModelParams,
	params Params,
	locations []domain.Location,
	logger *slog.Logger,
) *Strategy {
	return &Strategy{
		forecasts: forecasts,
		markets:   markets,
		prices:    prices,
		orders:    orders,
		balance:   balance,
		model:     model,
		params:    params,
		locations: locations,
		logger:    logger.With(slog.String("component", "strategy")),
	}
}

// SetOrderRecorder enables audit recording of placed orders.
func (s *Strategy) SetOrderRecorder(r OrderRecorder) {
	s.recorder = r
}

// Locations returns the configured location names in order.
func (s *Strategy) Locations() []string {
	names := make([]string, 0, len(s.locations))
	for _, l := range s.locations {
		names = append(names, l.Name)
	}
	return names
}

// ScanLocation runs one opportunity scan for a location at the given time:
// fetch forecast and brackets, derive the uncertainty from the horizon,
// price every order-accepting non-terminal bracket, and select the best
// qualifying edge. Ordinary no-opportunity outcomes come back as a skip
// reason inside the result; only transport and protocol failures return an
// error.
func (s *Strategy) ScanLocation(ctx context.Context, loc domain.Location, now time.Time) (domain.ScanResult, error) {
	slug := eventSlug(loc, now)

	var (
		forecast domain.Forecast
		brackets []domain.Bracket
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		forecast, err = s.forecasts.DailyHigh(gctx, loc.Latitude, loc.Longitude, loc.Timezone, localDay(loc, now))
		return err
	})
	g.Go(func() error {
		var err error
		brackets, err = s.markets.TemperatureBrackets(gctx, slug)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.ScanResult{}, fmt.Errorf("scanner: scan %s: %w", loc.Name, err)
	}

	if len(brackets) == 0 {
		return domain.ScanResult{Forecast: forecast, SkipReason: domain.SkipNoMarket}, nil
	}

	horizon := earliestClose(brackets).Sub(now)
	if horizon < s.params.CloseBuffer {
		return domain.ScanResult{Forecast: forecast, SkipReason: domain.SkipMarketClosingSoon}, nil
	}

	sigma := s.model.Sigma(horizon.Hours())

	tradeable := make([]domain.Bracket, 0, len(brackets))
	for _, b := range brackets {
		if b.Terminal() || !b.AcceptingOrders {
			continue
		}
		tradeable = append(tradeable, b)
	}

	priced := s.priceBrackets(ctx, tradeable, forecast.HighF, sigma)

	best, ok := pricing.Best(priced, s.params.MinEdge, s.params.MinFairValue)
	if !ok {
		return domain.ScanResult{Forecast: forecast, Sigma: sigma, SkipReason: domain.SkipNoEdge}, nil
	}

	return domain.ScanResult{Forecast: forecast, Sigma: sigma, Opportunity: &best}, nil
}

// priceBrackets fetches asks concurrently and prices each bracket. A failed
// price fetch drops that bracket from consideration rather than aborting
// the scan.
func (s *Strategy) priceBrackets(ctx context.Context, brackets []domain.Bracket, mu, sigma float64) []domain.PricedBracket {
	var (
		wg     sync.WaitGroup
		resMu  sync.Mutex
		priced = make([]domain.PricedBracket, 0, len(brackets))
	)
	slots := make([]*domain.PricedBracket, len(brackets))

	for i, b := range brackets {
		wg.Add(1)
		go func(i int, b domain.Bracket) {
			defer wg.Done()
			ask, err := s.prices.BestAsk(ctx, b.YesTokenID)
			if err != nil {
				s.logger.DebugContext(ctx, "dropping bracket, price fetch failed",
					slog.String("bracket", b.Label),
					slog.String("error", err.Error()),
				)
				return
			}
			pb := s.model.Price(b, mu, sigma, ask)
			resMu.Lock()
			slots[i] = &pb
			resMu.Unlock()
		}(i, b)
	}
	wg.Wait()

	// Preserve bracket order so the selection tie-break stays deterministic.
	for _, pb := range slots {
		if pb != nil {
			priced = append(priced, *pb)
		}
	}
	return priced
}

// eventSlug builds the Gamma event slug for the location's current local
// day, e.g. "highest-temperature-in-nyc-on-august-31".
func eventSlug(loc domain.Location, now time.Time) string {
	day := localDay(loc, now)
	month := strings.ToLower(day.Month().String())
	return fmt.Sprintf("%s-on-%s-%d", loc.SlugPrefix, month, day.Day())
}

// localDay returns now shifted into the location's timezone. Markets
// resolve against the station's local calendar day.
func localDay(loc domain.Location, now time.Time) time.Time {
	tz, err := time.LoadLocation(loc.Timezone)
	if err != nil {
		return now.UTC()
	}
	return now.In(tz)
}

// earliestClose returns the soonest nonzero close time among brackets. A
// zero time means the API sent no close; those brackets are ignored for the
// horizon so one missing field does not zero out the buffer check.
func earliestClose(brackets []domain.Bracket) time.Time {
	var earliest time.Time
	for _, b := range brackets {
		if b.CloseTime.IsZero() {
			continue
		}
		if earliest.IsZero() || b.CloseTime.Before(earliest) {
			earliest = b.CloseTime
		}
	}
	if earliest.IsZero() {
		// No close times at all: treat the horizon as far out.
		return time.Now().Add(48 * time.Hour)
	}
	return earliest
}
