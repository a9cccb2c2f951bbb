// Package chain exposes the account-level collateral view the strategy
// needs. Balances come from the CLOB's own balance-allowance endpoint
// rather than raw chain reads, so the figure already reflects exchange
// allowances.
package chain

import (
	"context"
	"log/slog"
)

// CollateralSource is the minimal surface needed from the CLOB client.
type CollateralSource interface {
	CollateralBalance(ctx context.Context) (float64, error)
}

// BalanceProvider returns the spendable USDC balance for the trading
// identity. It fails safe: any error yields a balance of 0, steering the
// strategy toward "insufficient" rather than "unlimited".
type BalanceProvider struct {
	source CollateralSource
	logger *slog.Logger
}

// NewBalanceProvider creates a BalanceProvider over the given source.
func NewBalanceProvider(source CollateralSource, logger *slog.Logger) *BalanceProvider {
	return &BalanceProvider{
		source: source,
		logger: logger.With(slog.String("component", "balance")),
	}
}

// SpendableUSDC returns the current spendable balance, or 0 if the lookup
// fails for any reason.
func (p *BalanceProvider) SpendableUSDC(ctx context.Context) float64 {
	bal, err := p.source.CollateralBalance(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "balance lookup failed, treating as zero",
			slog.String("error", err.Error()),
		)
		return 0
	}
	return bal
}
