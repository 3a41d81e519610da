package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"CryptoSentinel/internal/analyzer"
	"CryptoSentinel/internal/collector"
	"CryptoSentinel/internal/config"
	"CryptoSentinel/internal/metrics"
	"CryptoSentinel/internal/notifier"
	"CryptoSentinel/internal/recorder"
	"CryptoSentinel/internal/scheduler"
	"CryptoSentinel/internal/snapshot"
)

type rootOptions struct {
	configPath string
	debug      bool
}

// Execute builds the command tree and runs it.
func Execute(ctx context.Context) error {
	opts := &rootOptions{configPath: "configs/config.yaml"}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		opts.configPath = v
	}

	root := &cobra.Command{
		Use:           "sentinel",
		Short:         "Crypto risk scoring: collect market data, score coins, publish recommendations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", opts.configPath, "path to the YAML config")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "development logging")

	root.AddCommand(
		collectCmd(opts),
		analyzeCmd(opts),
		runCmd(opts),
		serveCmd(opts),
	)
	return root.ExecuteContext(ctx)
}

// app holds the wired components shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *metrics.Registry
	store    *snapshot.Store
	recorder recorder.Recorder
	telegram *notifier.TelegramNotifier
	pipeline *scheduler.Pipeline
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newApp loads the configuration and wires every component. close must be
// called when the command finishes.
func newApp(opts *rootOptions) (*app, error) {
	logger, err := newLogger(opts.debug)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	logger.Info("config loaded",
		zap.String("path", opts.configPath),
		zap.Int("coins", len(cfg.Coins)),
		zap.Int("channels", len(cfg.Channels)),
	)

	reg := metrics.New()
	an, err := analyzer.New(cfg.Engine, logger.Named("analyzer"), reg)
	if err != nil {
		return nil, err
	}
	store, err := snapshot.NewStore(cfg.Output.DataFile, cfg.Output.AnalysisFile)
	if err != nil {
		return nil, err
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger.Named("recorder"))
		if err != nil {
			logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		} else {
			rec = sr
		}
	}

	a := &app{cfg: cfg, logger: logger, metrics: reg, store: store, recorder: rec}

	var sender scheduler.Sender
	if cfg.TelegramEnabled() {
		a.telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger.Named("telegram"))
		sender = a.telegram
	}

	fetcher := collector.NewHTTPFetcher(cfg.Sources, cfg.Proxy)
	col := collector.NewCollector(fetcher, cfg, logger.Named("collector"), reg)
	a.pipeline = scheduler.NewPipeline(col, an, store, rec, sender, cfg.Output.SummaryFile, logger.Named("pipeline"), reg)
	return a, nil
}

func (a *app) close() {
	if err := a.recorder.Close(); err != nil {
		a.logger.Warn("close recorder", zap.Error(err))
	}
	_ = a.logger.Sync()
}
