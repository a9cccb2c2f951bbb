package scanner

import (
	"context"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"wxarb/internal/domain"
)

// Tick runs one full evaluation cycle and returns one Reading per
// configured location. Open orders and the spendable balance are fetched
// once and shared read-only across all locations; per-location evaluation
// runs concurrently and per-location failures degrade to an "error" skip
// reason rather than aborting the cycle.
func (s *Strategy) Tick(ctx context.Context) []domain.Reading {
	now := time.Now()

	positioned := s.openTokenIDs(ctx)
	balance := s.balance.SpendableUSDC(ctx)

	readings := make([]domain.Reading, len(s.locations))

	g, gctx := errgroup.WithContext(ctx)
	for i, loc := range s.locations {
		g.Go(func() error {
			readings[i] = s.evaluateLocation(gctx, loc, now, positioned, balance)
			return nil
		})
	}
	_ = g.Wait()

	return readings
}

// evaluateLocation scans one location and, when an opportunity qualifies,
// decides whether to trade it.
func (s *Strategy) evaluateLocation(ctx context.Context, loc domain.Location, now time.Time, positioned map[string]bool, balance float64) domain.Reading {
	log := s.logger.With(slog.String("location", loc.Name))

	res, err := s.ScanLocation(ctx, loc, now)
	if err != nil {
		log.WarnContext(ctx, "scan failed", slog.String("error", err.Error()))
		return domain.NewReading(loc, res, "", domain.SkipError, now)
	}
	if res.Skipped() {
		log.InfoContext(ctx, "no opportunity", slog.String("reason", res.SkipReason))
		return domain.NewReading(loc, res, "", res.SkipReason, now)
	}

	opp := res.Opportunity
	log.InfoContext(ctx, "opportunity found",
		slog.String("bracket", opp.Label),
		slog.Float64("fair", opp.Fair),
		slog.Float64("ask", opp.Ask),
		slog.Float64("edge", opp.Edge),
	)

	if positioned[opp.YesTokenID] {
		return domain.NewReading(loc, res, "", domain.SkipAlreadyPositioned, now)
	}

	spend := math.Min(s.params.TradeAmountUSDC, s.params.MaxSpendPerBracket)
	if balance < spend {
		log.InfoContext(ctx, "skipping, balance below trade size",
			slog.Float64("balance", balance),
			slog.Float64("trade_size", spend),
		)
		return domain.NewReading(loc, res, "", domain.SkipInsufficientUSDC, now)
	}

	// Dry mode stops here, before any signing happens: the decision is the
	// auditable artifact, not a signed-but-unsent order.
	if s.params.DryRun {
		log.InfoContext(ctx, "dry run, would place order",
			slog.String("bracket", opp.Label),
			slog.Float64("price", opp.Ask),
			slog.Float64("spend_usdc", spend),
		)
		return domain.NewReading(loc, res, "", "", now)
	}

	order, err := s.orders.PlaceBuyOrder(ctx, opp.YesTokenID, opp.Ask, spend)
	if err != nil {
		log.ErrorContext(ctx, "order placement failed", slog.String("error", err.Error()))
		return domain.NewReading(loc, res, "", domain.SkipError, now)
	}

	log.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("bracket", opp.Label),
		slog.Float64("price", order.Price()),
		slog.Float64("spend_usdc", order.SpendUSDC()),
	)

	if s.recorder != nil {
		if err := s.recorder.RecordOrder(ctx, loc.Name, opp.Label, order); err != nil {
			log.WarnContext(ctx, "order audit write failed", slog.String("error", err.Error()))
		}
	}

	return domain.NewReading(loc, res, order.ID, "", now)
}

// openTokenIDs returns the set of outcome tokens with open orders. A failed
// fetch degrades to "no open positions known" so one API hiccup does not
// halt the whole tick.
func (s *Strategy) openTokenIDs(ctx context.Context) map[string]bool {
	orders, err := s.orders.OpenOrders(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "open orders fetch failed, assuming none",
			slog.String("error", err.Error()),
		)
		return map[string]bool{}
	}

	tokens := make(map[string]bool, len(orders))
	for _, o := range orders {
		tokens[o.TokenID] = true
	}
	return tokens
}
