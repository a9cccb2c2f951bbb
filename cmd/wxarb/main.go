// Command wxarb runs the weather-arbitrage scanner against Polymarket's
// daily high-temperature markets. It has three subcommands: start (run the
// scanner daemon until terminated), status (report what a running daemon
// last saw), and stop (signal a running daemon to shut down).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"wxarb/internal/app"
	"wxarb/internal/config"
	"wxarb/internal/scanner"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "start":
		err = runStart(os.Args[2:])
	case "status":
		err = runStatus(os.Args[2:])
	case "stop":
		err = runStop(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "wxarb: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: wxarb <start|status|stop> [flags]")
}

func runStart(args []string) error {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	locations := fs.String("locations", "", "comma-separated location names to scan (default: all configured)")
	amount := fs.Float64("amount", 0, "per-trade USDC amount")
	cap := fs.Float64("cap", 0, "maximum USDC spend per bracket")
	minEdge := fs.Float64("min-edge", 0, "minimum edge to trade")
	minFair := fs.Float64("min-fair", 0, "minimum fair value to trade")
	interval := fs.Duration("interval", 0, "poll interval, e.g. 120s")
	dryRun := fs.Bool("dry-run", false, "log decisions without placing orders")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "locations":
			cfg.Locations = filterLocations(cfg.Locations, *locations)
		case "amount":
			cfg.Scanner.TradeAmountUSDC = *amount
		case "cap":
			cfg.Scanner.MaxSpendPerBracket = *cap
		case "min-edge":
			cfg.Scanner.MinEdge = *minEdge
		case "min-fair":
			cfg.Scanner.MinFairValue = *minFair
		case "interval":
			cfg.Scanner.PollIntervalSeconds = int(interval.Seconds())
		case "dry-run":
			cfg.Scanner.DryRun = *dryRun
		}
	})

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	application := app.New(cfg, logger)
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("scanner exited")
	return nil
}

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	asJSON := fs.Bool("json", false, "print the raw status JSON")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	status, err := scanner.NewStatusFile(cfg.Scanner.StatusDir)
	if err != nil {
		return err
	}

	st := status.Observe()

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	if !st.Running {
		if st.DeadOwnerCleanup {
			fmt.Println("scanner: stopped (cleaned up after dead daemon)")
		} else {
			fmt.Println("scanner: stopped")
		}
		return nil
	}

	fmt.Printf("scanner: running (last check %s)\n", st.LastCheck.Format(time.RFC3339))
	for _, r := range st.Readings {
		line := fmt.Sprintf("  %-14s forecast %.1f°F", r.Location, r.ForecastHighF)
		switch {
		case r.OrderID != nil:
			line += fmt.Sprintf("  → order %s on %s (edge %.3f)", *r.OrderID, deref(r.TargetBracket), derefF(r.BestEdge))
		case r.TargetBracket != nil:
			line += fmt.Sprintf("  → would trade %s (edge %.3f)", *r.TargetBracket, derefF(r.BestEdge))
		case r.SkippedReason != nil:
			line += "  → " + *r.SkippedReason
		}
		fmt.Println(line)
	}
	return nil
}

func runStop(args []string) error {
	fs := flag.NewFlagSet("stop", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	status, err := scanner.NewStatusFile(cfg.Scanner.StatusDir)
	if err != nil {
		return err
	}

	marker, err := status.ReadMarker()
	if err != nil {
		fmt.Println("scanner: not running")
		return nil
	}

	proc, err := os.FindProcess(marker.PID)
	if err != nil {
		return fmt.Errorf("find daemon pid %d: %w", marker.PID, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH) {
			fmt.Println("scanner: daemon already gone, cleaning up")
			status.Remove()
			return nil
		}
		return fmt.Errorf("signal daemon pid %d: %w", marker.PID, err)
	}

	fmt.Printf("scanner: sent stop signal to pid %d\n", marker.PID)
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// filterLocations keeps only the configured locations whose names appear in
// the comma-separated list (case-insensitive).
func filterLocations(all []config.LocationConfig, list string) []config.LocationConfig {
	wanted := make(map[string]bool)
	for _, name := range strings.Split(list, ",") {
		if n := strings.TrimSpace(name); n != "" {
			wanted[strings.ToLower(n)] = true
		}
	}
	if len(wanted) == 0 {
		return all
	}

	kept := make([]config.LocationConfig, 0, len(all))
	for _, l := range all {
		if wanted[strings.ToLower(l.Name)] {
			kept = append(kept, l)
		}
	}
	return kept
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefF(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
