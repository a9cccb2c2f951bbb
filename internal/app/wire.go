package app

import (
	"context"
	"fmt"
	"log/slog"

	"wxarb/internal/chain"
	"wxarb/internal/config"
	"wxarb/internal/platform/polymarket"
	"wxarb/internal/platform/weather"
	"wxarb/internal/pricing"
	"wxarb/internal/scanner"
	"wxarb/internal/store/postgres"
	"wxarb/internal/wallet"
)

// Deps holds every wired dependency of the daemon.
type Deps struct {
	Daemon *scanner.Daemon
	Status *scanner.StatusFile
}

// Wire constructs all dependencies from the configuration: API clients, the
// signing identity, the strategy, the optional audit store, and the daemon.
// The returned cleanup function releases held resources and is safe to call
// once wiring succeeded.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Deps, func(), error) {
	cleanup := func() {}

	wallets := wallet.NewEnvProvider(
		walletKeys(cfg),
		cfg.Polymarket.ChainID,
		cfg.Polymarket.ExchangeAddress,
	)
	signer, err := wallets.Signer(cfg.Wallet.Name)
	if err != nil {
		return nil, cleanup, fmt.Errorf("app: resolve wallet %q: %w", cfg.Wallet.Name, err)
	}

	forecasts := weather.NewClient(cfg.Weather.Host)
	gamma := polymarket.NewGammaClient(cfg.Polymarket.GammaHost)
	clob := polymarket.NewClobClient(cfg.Polymarket.ClobHost, signer)
	balance := chain.NewBalanceProvider(clob, logger)

	model := pricing.ModelParams{
		SigmaFloorF:       cfg.Model.SigmaFloorF,
		SigmaCapF:         cfg.Model.SigmaCapF,
		HorizonFloorHours: cfg.Model.HorizonFloorHours,
		HorizonCapHours:   cfg.Model.HorizonCapHours,
		HalfStepF:         0.5,
	}
	params := scanner.Params{
		MinEdge:            cfg.Scanner.MinEdge,
		MinFairValue:       cfg.Scanner.MinFairValue,
		TradeAmountUSDC:    cfg.Scanner.TradeAmountUSDC,
		MaxSpendPerBracket: cfg.Scanner.MaxSpendPerBracket,
		CloseBuffer:        cfg.Model.CloseBuffer(),
		DryRun:             cfg.Scanner.DryRun,
	}

	strategy := scanner.NewStrategy(
		forecasts, gamma, clob, clob, balance,
		model, params, cfg.DomainLocations(), logger,
	)

	status, err := scanner.NewStatusFile(cfg.Scanner.StatusDir)
	if err != nil {
		return nil, cleanup, fmt.Errorf("app: status dir: %w", err)
	}

	var audit scanner.AuditSink
	if cfg.Audit.DSN != "" {
		pg, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Audit.DSN,
			MaxConns: cfg.Audit.MaxConns,
			MinConns: cfg.Audit.MinConns,
		})
		if err != nil {
			return nil, cleanup, fmt.Errorf("app: audit store: %w", err)
		}
		cleanup = pg.Close

		store := postgres.NewAuditStore(pg.Pool())
		audit = store
		strategy.SetOrderRecorder(store)
		logger.Info("audit store enabled")
	}

	daemon := scanner.NewDaemon(
		strategy, status, audit,
		strategy.Locations(), cfg.Scanner.PollInterval(), logger,
	)

	return &Deps{Daemon: daemon, Status: status}, cleanup, nil
}

// walletKeys builds the provider's name->key map from config. An empty key
// leaves resolution to the environment.
func walletKeys(cfg *config.Config) map[string]string {
	keys := make(map[string]string)
	if cfg.Wallet.PrivateKey != "" {
		keys[cfg.Wallet.Name] = cfg.Wallet.PrivateKey
	}
	return keys
}
