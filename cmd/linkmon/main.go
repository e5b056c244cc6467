package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"linkmon/internal/api"
	"linkmon/internal/checker"
	"linkmon/internal/civil"
	"linkmon/internal/config"
	"linkmon/internal/ingest"
	"linkmon/internal/logging"
	"linkmon/internal/monitor"
	"linkmon/internal/recorder"
	"linkmon/internal/report"
	"linkmon/internal/storage"
	"linkmon/internal/storage/postgres"
	"linkmon/internal/storage/sqlite"
	"linkmon/internal/urlutil"
)

const usage = `Usage: linkmon [flags] <command> [args]

Commands:
  serve          run the HTTP API and the scheduled checker
  run            perform one ingestion-and-check run and print the summary
  probe URL...   probe the given URLs without recording them

Flags:
`

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()

	flags := pflag.NewFlagSet("linkmon", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&cfg.HTTPPort, "port", "p", cfg.HTTPPort, "HTTP listen port")
	configFile := flags.StringP("config", "c", os.Getenv("CONFIG_FILE"), "YAML config overlay")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flags.Usage = func() {
		fmt.Fprint(stderr, usage)
		flags.PrintDefaults()
	}
	if err := flags.Parse(args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return 2
	}

	if *configFile != "" {
		if err := cfg.LoadFile(*configFile); err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
		// Flags win over the file.
		if flags.Changed("port") {
			cfg.HTTPPort, _ = flags.GetString("port")
		}
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat, stderr); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	// Create a context that is canceled on OS signals like SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch cmd := flags.Arg(0); cmd {
	case "serve":
		err = serve(ctx, cfg)
	case "run":
		err = runOnce(ctx, cfg, stdout)
	case "probe":
		err = probe(ctx, cfg, flags.Args()[1:], stdout)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		flags.Usage()
		return 2
	}
	if err != nil {
		logrus.WithError(err).Error("linkmon failed")
		return 1
	}
	return 0
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Storer, error) {
	logrus.WithField("driver", cfg.DatabaseDriver).Info("initializing database connection...")
	switch cfg.DatabaseDriver {
	case "sqlite":
		return sqlite.New(ctx, cfg.DatabaseURL)
	case "postgres":
		return postgres.New(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

func newProber(cfg *config.Config) *checker.Prober {
	pc := checker.ProbeConfig{
		Timeout:      cfg.Monitor.Timeout,
		Fallbacks:    cfg.Monitor.Identities,
		MaxFallbacks: cfg.Monitor.RetryCount,
		BackoffMin:   cfg.Monitor.BackoffMin,
		BackoffMax:   cfg.Monitor.BackoffMax,
	}
	if cfg.Monitor.Primary != nil {
		pc.Primary = *cfg.Monitor.Primary
	}
	return checker.NewProber(pc)
}

type app struct {
	store   storage.Storer
	runner  *monitor.Runner
	reports *report.Service
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	clock, err := civil.New(cfg.TimeZone)
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	source := ingest.NewGitHubSource(ingest.Config{
		BaseURL:   cfg.GitHub.APIURL,
		Repo:      cfg.GitHub.Repo,
		Label:     cfg.GitHub.Label,
		State:     cfg.GitHub.State,
		Sort:      cfg.GitHub.Sort,
		Direction: cfg.GitHub.Direction,
		PerPage:   cfg.GitHub.PerPage,
		MaxPages:  cfg.GitHub.MaxPages,
		Token:     cfg.GitHub.Token,
		UserAgent: cfg.Monitor.UserAgent,
		RateLimit: cfg.GitHub.RateLimit,
	}, &http.Client{Timeout: cfg.Monitor.Timeout})

	rec := recorder.New(store, clock, cfg.StatsWindowDays)
	runner := monitor.NewRunner(source, newProber(cfg), rec, monitor.Options{
		BatchSize:      cfg.Monitor.BatchSize,
		MaxChecks:      cfg.Monitor.MaxCheckLimit,
		RetentionSweep: cfg.RetentionSweep,
	})
	return &app{
		store:   store,
		runner:  runner,
		reports: report.New(store, clock, cfg.HistoryPageSize, cfg.StatsWindowDays),
	}, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.store.Close()

	var sched *checker.Checker
	if cfg.CheckSchedule != "" {
		if sched, err = checker.New(cfg.CheckSchedule, a.runner.Job); err != nil {
			return err
		}
		sched.Start()
	}
	server := api.NewServer(cfg.HTTPPort, api.NewHandlers(a.runner, a.reports))
	server.Start()

	logrus.Info("application is running...")
	<-ctx.Done()

	logrus.Info("shutdown signal received, starting graceful shutdown...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer shutdownCancel()

	// Stop the checker first to prevent new runs from starting.
	if sched != nil {
		sched.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown error: %w", err)
	}
	logrus.Info("application shut down gracefully")
	return nil
}

func runOnce(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.store.Close()

	summary, err := a.runner.Run(ctx)
	if err != nil {
		return err
	}
	return printJSON(stdout, summary)
}

func probe(ctx context.Context, cfg *config.Config, urls []string, stdout io.Writer) error {
	if len(urls) == 0 {
		return fmt.Errorf("probe needs at least one URL")
	}
	for _, u := range urls {
		if err := urlutil.Validate(u); err != nil {
			return err
		}
	}
	prober := newProber(cfg)
	ctx, cancel := context.WithTimeout(ctx, probeDeadline(cfg, prober.LadderLen()))
	defer cancel()
	return printJSON(stdout, prober.BatchProbe(ctx, urls))
}

// probeDeadline bounds a probe command: every identity times out and every fallback waits its longest backoff.
func probeDeadline(cfg *config.Config, identities int) time.Duration {
	return time.Duration(identities)*cfg.Monitor.Timeout + time.Duration(identities-1)*cfg.Monitor.BackoffMax
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
