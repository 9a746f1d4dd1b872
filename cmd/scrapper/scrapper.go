package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/abelzeko/water-feed/internal/config"
	"github.com/abelzeko/water-feed/internal/integration"
	"github.com/abelzeko/water-feed/internal/log"
	"github.com/abelzeko/water-feed/internal/metrics"
	"github.com/abelzeko/water-feed/internal/repository"
	"github.com/abelzeko/water-feed/internal/usecases"
)

func main() {
	_ = godotenv.Load(".env")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "scrapper failed: %v\n", err)
		os.Exit(1)
	}
}

// app wires one refresh pass
type app struct {
	useCase     *usecases.FeedUseCase
	metrics     *metrics.Collector
	metricsFile string
	logger      *zap.SugaredLogger
}

func newApp(cfg config.Config, logger *zap.SugaredLogger) (*app, error) {
	collector := metrics.NewCollector("water_feed")

	repo, err := repository.NewFileSnapshotRepository(cfg.OutputDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	client := &http.Client{Timeout: cfg.RequestTimeout}
	scraper := integration.NewFeedScraper(client, cfg.RetryPolicy(), logger, collector)

	useCase := usecases.NewFeedUseCase(cfg.Registry, scraper, repo, usecases.Options{
		Retention:  cfg.Retention(),
		Location:   cfg.Location,
		WriteEmpty: cfg.WriteEmpty,
	}, logger, collector)

	return &app{useCase: useCase, metrics: collector, metricsFile: cfg.MetricsFile, logger: logger}, nil
}

// refresh runs every source once and exports metrics when configured
func (a *app) refresh(ctx context.Context) usecases.RunReport {
	report := a.useCase.RefreshAll(ctx)
	for _, res := range report.Results {
		if res.Err != nil {
			a.logger.Warnf("%s: %s (%v)", res.SourceID, res.Status, res.Err)
		}
	}
	if a.metricsFile != "" {
		if err := a.metrics.WriteTextfile(a.metricsFile); err != nil {
			a.logger.Errorf("Failed to export metrics: %v", err)
		}
	}
	return report
}

func run(ctx context.Context, args []string, getenv func(string) string) error {
	flags := flag.NewFlagSet("scrapper", flag.ContinueOnError)
	once := flags.Bool("once", false, "run a single refresh and exit")
	source := flags.String("source", "", "only refresh this source id")
	check := flags.Bool("check", false, "check TLS and HTTP connectivity to every source and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.FromEnv(getenv)
	if err != nil {
		return err
	}

	logger, err := log.New(cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if *source != "" {
		cfg.Registry, err = cfg.Registry.Only(*source)
		if err != nil {
			return err
		}
	}

	if *check {
		return checkConnectivity(ctx, cfg, &http.Client{Timeout: cfg.RequestTimeout}, logger)
	}

	logger.Infof("Starting water feed scraper for %d sources, writing to %s", cfg.Registry.Len(), cfg.OutputDir)

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	// Run immediately on startup
	a.refresh(ctx)
	if *once {
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger})))
	if _, err := c.AddFunc(cfg.Schedule, func() { a.refresh(ctx) }); err != nil {
		return fmt.Errorf("failed to set up cron job: %w", err)
	}

	logger.Infof("Scraper has been scheduled with %q", cfg.Schedule)
	c.Start()

	<-ctx.Done()
	logger.Info("Shutting down, waiting for a running refresh to finish")
	<-c.Stop().Done()
	return nil
}

// cronLogger routes cron's own messages through zap
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
