package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"CryptoSentinel/internal/notifier"
	"CryptoSentinel/internal/scheduler"
	"CryptoSentinel/internal/server"
	"CryptoSentinel/internal/snapshot"
)

func collectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Fetch market data and write the batch snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			batch, err := a.pipeline.Collect(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("collected %d coins into %s\n", len(batch.Coins), a.cfg.Output.DataFile)
			return nil
		},
	}
}

func analyzeCmd(opts *rootOptions) *cobra.Command {
	var (
		input  string
		notify bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score a saved batch snapshot and publish the report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			if input == "" {
				input = a.cfg.Output.DataFile
			}
			batch, err := snapshot.LoadBatch(input)
			if err != nil {
				return err
			}
			run, err := a.pipeline.Analyze(cmd.Context(), batch, notify)
			if err != nil {
				return err
			}
			printRun(a, run.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "batch snapshot to score (default: output.data_file)")
	cmd.Flags().BoolVar(&notify, "notify", false, "send the report to Telegram")
	return cmd
}

func runCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Collect, analyze and notify once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			run, err := a.pipeline.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			printRun(a, run.ID)
			return nil
		},
	}
}

func serveCmd(opts *rootOptions) *cobra.Command {
	var runOnStart bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the daily schedule, Telegram commands and the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()
			ctx := cmd.Context()

			sched := scheduler.NewScheduler(ctx, a.pipeline, a.logger.Named("scheduler"))
			if err := sched.RegisterAll(a.cfg.Schedule.DailyCron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if a.telegram != nil {
				go a.telegram.StartPolling(ctx, sched.HandleCommand)
				a.logger.Info("telegram polling started")
			}
			if runOnStart || os.Getenv("RUN_ON_START") == "true" {
				go sched.RunNow()
			}

			srv := server.New(a.cfg.Server.Addr, a.store, a.recorder, a.metrics, a.logger.Named("http"))
			g, gctx := errgroup.WithContext(ctx)
			g.Go(srv.Start)
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			a.logger.Info("CryptoSentinel is running. Press Ctrl+C to stop.")
			err = g.Wait()
			a.logger.Info("stopped", zap.Error(err))
			return err
		},
	}
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "run the daily task immediately")
	return cmd
}

func printRun(a *app, runID string) {
	run := a.store.Latest()
	if run == nil || run.ID != runID {
		return
	}
	p := run.Report.Portfolio
	fmt.Printf("run %s: portfolio %s (risk %.1f, %s weighting)\n", run.ID, p.Recommendation, p.Risk, p.Weighting)
	for i, e := range p.Ranking {
		c := run.Report.Coins[e.ID]
		fmt.Printf("%2d. %-6s %5.1f  %-11s %s\n", i+1, c.Symbol, e.Risk, e.Recommendation, notifier.FormatUSD(c.Price))
	}
	for _, s := range run.Report.Skipped {
		fmt.Printf("    skipped %s: %s\n", s.ID, s.Reason)
	}
}
