package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"CryptoSentinel/internal/notifier"
)

// Scheduler manages the cron tasks around a pipeline.
type Scheduler struct {
	Cron     *cron.Cron
	Pipeline *Pipeline
	Ctx      context.Context

	logger *zap.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, p *Pipeline, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Pipeline: p,
		Ctx:      ctx,
		logger:   logger,
	}
}

// RegisterAll registers the daily run.
func (s *Scheduler) RegisterAll(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return errors.Wrap(err, "register daily task")
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunNow executes the daily task immediately (for manual trigger / run on start).
func (s *Scheduler) RunNow() {
	s.dailyTask()
}

func (s *Scheduler) dailyTask() {
	s.logger.Info("running daily task")
	if _, err := s.Pipeline.RunOnce(s.Ctx); err != nil {
		s.logger.Error("daily task failed", zap.Error(err))
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}

	switch strings.ToLower(fields[0]) {
	case "/report":
		run := s.Pipeline.Store.Latest()
		if run == nil {
			return "No analysis yet. Send /run to start one."
		}
		return notifier.FormatRunReport(run)
	case "/coin":
		if len(fields) < 2 {
			return "Usage: /coin &lt;id&gt;"
		}
		run := s.Pipeline.Store.Latest()
		if run == nil {
			return "No analysis yet."
		}
		id := strings.ToLower(fields[1])
		c, ok := run.Report.Coins[id]
		if !ok {
			for _, cr := range run.Report.Coins {
				if strings.EqualFold(cr.Symbol, id) {
					c, ok = cr, true
					break
				}
			}
		}
		if !ok {
			return fmt.Sprintf("Unknown coin %q.", fields[1])
		}
		return notifier.FormatCoinDetail(c)
	case "/run":
		go func() {
			if _, err := s.Pipeline.RunOnce(s.Ctx); err != nil {
				s.logger.Error("manual run failed", zap.Error(err))
			}
		}()
		return "Run started."
	default:
		return notifier.FormatHelp()
	}
}
