// Package config defines the top-level configuration for the weather
// arbitrage scanner and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"wxarb/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by WXARB_* environment variables.
type Config struct {
	Scanner    ScannerConfig    `toml:"scanner"`
	Model      ModelConfig      `toml:"model"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	Weather    WeatherConfig    `toml:"weather"`
	Wallet     WalletConfig     `toml:"wallet"`
	Audit      AuditConfig      `toml:"audit"`
	Locations  []LocationConfig `toml:"locations"`
	LogLevel   string           `toml:"log_level"`
}

// ScannerConfig holds the strategy and daemon parameters.
type ScannerConfig struct {
	PollIntervalSeconds int     `toml:"poll_interval_seconds"`
	MinEdge             float64 `toml:"min_edge"`
	MinFairValue        float64 `toml:"min_fair_value"`
	TradeAmountUSDC     float64 `toml:"trade_amount_usdc"`
	MaxSpendPerBracket  float64 `toml:"max_spend_per_bracket"`
	DryRun              bool    `toml:"dry_run"`
	// StatusDir is where the shared status file and liveness marker live.
	StatusDir string `toml:"status_dir"`
}

// PollInterval returns the tick interval as a duration.
func (s ScannerConfig) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSeconds) * time.Second
}

// ModelConfig holds the forecast-uncertainty calibration and the
// close-buffer guard.
type ModelConfig struct {
	SigmaFloorF        float64 `toml:"sigma_floor_f"`
	SigmaCapF          float64 `toml:"sigma_cap_f"`
	HorizonFloorHours  float64 `toml:"horizon_floor_hours"`
	HorizonCapHours    float64 `toml:"horizon_cap_hours"`
	CloseBufferMinutes int     `toml:"close_buffer_minutes"`
}

// CloseBuffer returns the minimum time-to-close under which a market is not
// traded.
func (m ModelConfig) CloseBuffer() time.Duration {
	return time.Duration(m.CloseBufferMinutes) * time.Minute
}

// PolymarketConfig holds Polymarket API endpoints and chain parameters.
type PolymarketConfig struct {
	ClobHost        string `toml:"clob_host"`
	GammaHost       string `toml:"gamma_host"`
	ChainID         int    `toml:"chain_id"`
	ExchangeAddress string `toml:"exchange_address"`
}

// WeatherConfig holds the forecast API endpoint.
type WeatherConfig struct {
	Host string `toml:"host"`
}

// WalletConfig names the trading identity. PrivateKey, when set, registers
// the named wallet directly; otherwise the key is resolved from the
// environment by the wallet provider.
type WalletConfig struct {
	Name       string `toml:"name"`
	PrivateKey string `toml:"private_key"`
}

// AuditConfig holds the optional Postgres audit-trail connection. An empty
// DSN disables the audit store.
type AuditConfig struct {
	DSN      string `toml:"dsn"`
	MaxConns int    `toml:"max_conns"`
	MinConns int    `toml:"min_conns"`
}

// LocationConfig is one trading target in TOML form.
type LocationConfig struct {
	Name       string  `toml:"name"`
	SlugPrefix string  `toml:"slug_prefix"`
	Latitude   float64 `toml:"latitude"`
	Longitude  float64 `toml:"longitude"`
	Timezone   string  `toml:"timezone"`
}

// Defaults returns the built-in configuration: the five default station
// locations, production API hosts, and the stock model calibration.
func Defaults() Config {
	locations := make([]LocationConfig, 0, 5)
	for _, l := range domain.DefaultLocations() {
		locations = append(locations, LocationConfig{
			Name:       l.Name,
			SlugPrefix: l.SlugPrefix,
			Latitude:   l.Latitude,
			Longitude:  l.Longitude,
			Timezone:   l.Timezone,
		})
	}

	return Config{
		Scanner: ScannerConfig{
			PollIntervalSeconds: 120,
			MinEdge:             0.15,
			MinFairValue:        0.35,
			TradeAmountUSDC:     5,
			MaxSpendPerBracket:  10,
			DryRun:              true,
			StatusDir:           "",
		},
		Model: ModelConfig{
			SigmaFloorF:        2,
			SigmaCapF:          4,
			HorizonFloorHours:  6,
			HorizonCapHours:    30,
			CloseBufferMinutes: 30,
		},
		Polymarket: PolymarketConfig{
			ClobHost:        "https://clob.polymarket.com",
			GammaHost:       "https://gamma-api.polymarket.com",
			ChainID:         137,
			ExchangeAddress: "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E",
		},
		Weather: WeatherConfig{
			Host: "https://api.open-meteo.com",
		},
		Wallet: WalletConfig{
			Name: "default",
		},
		Locations: locations,
		LogLevel:  "info",
	}
}

// DomainLocations converts the configured locations to domain values.
func (c *Config) DomainLocations() []domain.Location {
	out := make([]domain.Location, 0, len(c.Locations))
	for _, l := range c.Locations {
		out = append(out, domain.Location{
			Name:       l.Name,
			SlugPrefix: l.SlugPrefix,
			Latitude:   l.Latitude,
			Longitude:  l.Longitude,
			Timezone:   l.Timezone,
		})
	}
	return out
}

// Validate checks the configuration for inconsistencies. It returns an
// error describing the first problem found.
func (c *Config) Validate() error {
	if c.Scanner.PollIntervalSeconds < 10 {
		return fmt.Errorf("config: poll_interval_seconds must be at least 10, got %d", c.Scanner.PollIntervalSeconds)
	}
	if c.Scanner.MinEdge <= 0 || c.Scanner.MinEdge >= 1 {
		return fmt.Errorf("config: min_edge must be in (0,1), got %v", c.Scanner.MinEdge)
	}
	if c.Scanner.MinFairValue < 0 || c.Scanner.MinFairValue >= 1 {
		return fmt.Errorf("config: min_fair_value must be in [0,1), got %v", c.Scanner.MinFairValue)
	}
	if c.Scanner.TradeAmountUSDC <= 0 {
		return fmt.Errorf("config: trade_amount_usdc must be positive, got %v", c.Scanner.TradeAmountUSDC)
	}
	if c.Scanner.MaxSpendPerBracket <= 0 {
		return fmt.Errorf("config: max_spend_per_bracket must be positive, got %v", c.Scanner.MaxSpendPerBracket)
	}
	if c.Model.SigmaFloorF <= 0 || c.Model.SigmaCapF < c.Model.SigmaFloorF {
		return fmt.Errorf("config: model sigma bounds invalid: floor=%v cap=%v", c.Model.SigmaFloorF, c.Model.SigmaCapF)
	}
	if c.Model.HorizonCapHours <= c.Model.HorizonFloorHours {
		return fmt.Errorf("config: model horizon bounds invalid: floor=%v cap=%v", c.Model.HorizonFloorHours, c.Model.HorizonCapHours)
	}
	if len(c.Locations) == 0 {
		return fmt.Errorf("config: at least one location is required")
	}
	for i, l := range c.Locations {
		if strings.TrimSpace(l.Name) == "" || strings.TrimSpace(l.SlugPrefix) == "" {
			return fmt.Errorf("config: location %d missing name or slug_prefix", i)
		}
		if l.Timezone == "" {
			return fmt.Errorf("config: location %q missing timezone", l.Name)
		}
		if _, err := time.LoadLocation(l.Timezone); err != nil {
			return fmt.Errorf("config: location %q: bad timezone %q: %w", l.Name, l.Timezone, err)
		}
	}
	if c.Polymarket.ChainID == 0 {
		return fmt.Errorf("config: polymarket chain_id is required")
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	return nil
}
