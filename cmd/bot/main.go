package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"GridSentinel/internal/config"
	"GridSentinel/internal/logger"
	"GridSentinel/internal/metrics"
	"GridSentinel/internal/notifier"
	"GridSentinel/internal/scheduler"
	"GridSentinel/internal/strategy"
)

func main() {
	cmd := &cli.Command{
		Name:  "gridbot",
		Usage: "RSI/MA trading bot with hourly parameter grid search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
				Value:   "configs/config.yaml",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
			&cli.StringFlag{
				Name:  "symbol",
				Usage: "Override market.symbol",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the trading loop until interrupted",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Simulate orders instead of sending them to the exchange",
					},
				},
				Action: runAction,
			},
			{
				Name:   "optimize",
				Usage:  "Search the parameter grid once and print the best combination",
				Action: optimizeAction,
			},
		},
		DefaultCommand: "run",
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "gridbot:", err)
		os.Exit(1)
	}
}

// loadConfig reads and validates the config, applying command-line overrides.
// dryRun forces paper trading.
func loadConfig(cmd *cli.Command, dryRun bool) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if v := cmd.String("symbol"); v != "" {
		cfg.Market.Symbol = v
	}
	if dryRun {
		cfg.Trading.DryRun = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, cmd.Bool("dry-run"))
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("GridSentinel starting",
		zap.String("symbol", cfg.Market.Symbol),
		zap.String("timeframe", cfg.Market.Timeframe),
		zap.String("data_source", cfg.DataSource.Provider),
		zap.Bool("dry_run", cfg.Trading.DryRun),
		zap.Int("grid_size", cfg.Grid.Size()),
	)

	app, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer app.close()

	sched, err := app.scheduler()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(ctx) })
	g.Go(func() error {
		app.notifier.StartPolling(ctx, sched.HandleCommand)
		return nil
	})
	if cfg.Metrics.Listen != "" {
		srv := metrics.NewServer(cfg.Metrics.Listen, func() any { return sched.Status() }, log)
		g.Go(func() error { return srv.Serve(ctx) })
	}

	if _, ok := app.notifier.(notifier.NoopNotifier); !ok {
		if err := app.notifier.Send(ctx, fmt.Sprintf("🟢 GridSentinel started on %s %s", cfg.Market.Symbol, cfg.Market.Timeframe)); err != nil {
			log.Warn("send startup message", zap.Error(err))
		}
	}

	err = g.Wait()
	log.Info("GridSentinel stopped")
	return err
}

func optimizeAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, true)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	app, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer app.close()

	history, err := app.collector.History(ctx)
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(cfg.Grid.Size()), "searching grid")
	app.optimizer.OnProgress = func(_, _ int) { _ = bar.Add(1) }
	best, stats, err := app.optimizer.Optimize(ctx, history, cfg.Grid)
	_ = bar.Finish()
	if err != nil {
		return err
	}

	fmt.Printf("\nMarket:          %s %s (%d bars)\n", cfg.Market.Symbol, cfg.Market.Timeframe, len(history))
	fmt.Printf("Evaluated:       %d (viable %d) in %s\n", stats.Evaluated, stats.Viable, stats.Duration)
	fmt.Printf("Best params:     %s\n", best.Params)
	fmt.Printf("Backtest return: %+.4f\n", best.CumulativeReturn)

	latest, err := app.collector.Latest(ctx)
	if err != nil {
		return err
	}
	decision, err := strategy.LatestSignal(latest, best.Params)
	if err != nil {
		return err
	}
	fmt.Printf("Latest signal:   %s (close %.6g, ma %.6g, rsi %.2f)\n",
		decision.Signal, decision.Close, decision.MA, decision.RSI)
	return nil
}

// quantity converts the configured order size.
func quantity(cfg *config.Config) decimal.Decimal {
	return decimal.NewFromFloat(cfg.Trading.Quantity)
}

// schedulerPolicy builds the loop timing from config.
func schedulerPolicy(cfg *config.Config) (scheduler.Policy, error) {
	cycle, err := cfg.CycleSchedule()
	if err != nil {
		return scheduler.Policy{}, err
	}
	return scheduler.Policy{
		Cycle:      cycle,
		DataRetry:  cfg.Schedule.DataRetry,
		OrderRetry: cfg.Schedule.OrderRetry,
	}, nil
}
