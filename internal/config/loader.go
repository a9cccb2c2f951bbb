package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies WXARB_* environment variable overrides, and
// returns the final Config. An empty path skips the file and uses defaults
// plus environment only. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known WXARB_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Scanner ──
	setInt(&cfg.Scanner.PollIntervalSeconds, "WXARB_POLL_INTERVAL_SECONDS")
	setFloat(&cfg.Scanner.MinEdge, "WXARB_MIN_EDGE")
	setFloat(&cfg.Scanner.MinFairValue, "WXARB_MIN_FAIR_VALUE")
	setFloat(&cfg.Scanner.TradeAmountUSDC, "WXARB_TRADE_AMOUNT_USDC")
	setFloat(&cfg.Scanner.MaxSpendPerBracket, "WXARB_MAX_SPEND_PER_BRACKET")
	setBool(&cfg.Scanner.DryRun, "WXARB_DRY_RUN")
	setStr(&cfg.Scanner.StatusDir, "WXARB_STATUS_DIR")

	// ── Polymarket ──
	setStr(&cfg.Polymarket.ClobHost, "WXARB_CLOB_HOST")
	setStr(&cfg.Polymarket.GammaHost, "WXARB_GAMMA_HOST")
	setInt(&cfg.Polymarket.ChainID, "WXARB_CHAIN_ID")
	setStr(&cfg.Polymarket.ExchangeAddress, "WXARB_EXCHANGE_ADDRESS")

	// ── Weather ──
	setStr(&cfg.Weather.Host, "WXARB_WEATHER_HOST")

	// ── Wallet ──
	setStr(&cfg.Wallet.Name, "WXARB_WALLET_NAME")
	setStr(&cfg.Wallet.PrivateKey, "WXARB_WALLET_PRIVATE_KEY")

	// ── Audit ──
	setStr(&cfg.Audit.DSN, "WXARB_AUDIT_DSN")

	// ── Logging ──
	setStr(&cfg.LogLevel, "WXARB_LOG_LEVEL")
}

func setStr(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setInt(dst *int, env string) {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, env string) {
	if v := os.Getenv(env); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, env string) {
	if v := os.Getenv(env); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
