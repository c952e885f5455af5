package main

import (
	"fmt"

	"go.uber.org/zap"

	"GridSentinel/internal/collector"
	"GridSentinel/internal/config"
	"GridSentinel/internal/executor"
	"GridSentinel/internal/notifier"
	"GridSentinel/internal/recorder"
	"GridSentinel/internal/scheduler"
	"GridSentinel/internal/strategy"
)

// app holds the components built from config.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	collector *collector.Collector
	optimizer *strategy.Optimizer
	executor  executor.Executor
	recorder  recorder.Recorder
	notifier  notifier.Notifier
}

func newApp(cfg *config.Config, log *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return nil, err
	}
	log.Info("data source", zap.String("name", fetcher.Name()))
	a.collector = collector.NewCollector(fetcher, cfg.Market.Symbol, cfg.Market.Timeframe,
		cfg.Market.HistoryLimit, cfg.Market.LatestLimit, log)
	a.optimizer = strategy.NewOptimizer(cfg.Optimizer.Workers)

	if cfg.Trading.DryRun {
		a.executor = executor.NewPaperExecutor(log)
	} else {
		a.executor = executor.NewBinanceExecutor(executor.BinanceConfig{
			APIKey:    cfg.Exchange.APIKey,
			SecretKey: cfg.Exchange.SecretKey,
			BaseURL:   cfg.Exchange.BaseURL,
			Testnet:   cfg.Exchange.Testnet,
		}, log)
	}

	a.recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		} else {
			a.recorder = sr
		}
	}

	a.notifier = notifier.NoopNotifier{}
	if cfg.Telegram.BotToken != "" {
		a.notifier = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
	}
	return a, nil
}

func newFetcher(cfg *config.Config) (collector.Fetcher, error) {
	switch cfg.DataSource.Provider {
	case "binance":
		return collector.NewBinanceFetcher(cfg.Exchange.BaseURL, cfg.Proxy, cfg.Exchange.Testnet), nil
	case "yahoo":
		return collector.NewYahooFetcher(cfg.Proxy), nil
	case "mock":
		return &collector.MockFetcher{Price: 0.1}, nil
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.DataSource.Provider)
	}
}

func (a *app) scheduler() (*scheduler.Scheduler, error) {
	policy, err := schedulerPolicy(a.cfg)
	if err != nil {
		return nil, err
	}
	return scheduler.NewScheduler(scheduler.Deps{
		Collector: a.collector,
		Optimizer: a.optimizer,
		Grid:      a.cfg.Grid,
		Executor:  a.executor,
		Notifier:  a.notifier,
		Recorder:  a.recorder,
		Quantity:  quantity(a.cfg),
		Policy:    policy,
	}, a.log), nil
}

func (a *app) close() {
	if err := a.recorder.Close(); err != nil {
		a.log.Warn("close recorder", zap.Error(err))
	}
}
