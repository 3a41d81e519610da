package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"CryptoSentinel/internal/analyzer"
	"CryptoSentinel/internal/collector"
	"CryptoSentinel/internal/metrics"
	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/notifier"
	"CryptoSentinel/internal/recorder"
	"CryptoSentinel/internal/snapshot"
)

// Sender delivers a formatted message. *notifier.TelegramNotifier satisfies it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// ErrBusy is returned when a run is requested while another is in progress.
var ErrBusy = errors.New("a run is already in progress")

// Pipeline chains collection, analysis and publication of one run.
type Pipeline struct {
	Collector   *collector.Collector
	Analyzer    *analyzer.Analyzer
	Store       *snapshot.Store
	Recorder    recorder.Recorder
	Sender      Sender
	SummaryFile string

	logger  *zap.Logger
	metrics *metrics.Registry
	now     func() time.Time
	running sync.Mutex
}

// NewPipeline wires a pipeline. Sender may be nil to disable notifications;
// logger and reg may be nil.
func NewPipeline(col *collector.Collector, an *analyzer.Analyzer, store *snapshot.Store,
	rec recorder.Recorder, sender Sender, summaryFile string, logger *zap.Logger, reg *metrics.Registry) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Pipeline{
		Collector:   col,
		Analyzer:    an,
		Store:       store,
		Recorder:    rec,
		Sender:      sender,
		SummaryFile: summaryFile,
		logger:      logger,
		metrics:     reg,
		now:         time.Now,
	}
}

// Collect fetches a batch and persists it as the data snapshot.
func (p *Pipeline) Collect(ctx context.Context) (*model.Batch, error) {
	batch, err := p.Collector.Collect(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "collect")
	}
	if err := p.Store.SaveBatch(batch); err != nil {
		return nil, err
	}
	p.logger.Info("batch saved", zap.String("path", p.Store.DataFile()), zap.Int("coins", len(batch.Coins)))
	return batch, nil
}

// Analyze scores a batch and publishes the run: analysis file, HTML summary,
// history row and, when notify is set, a message.
func (p *Pipeline) Analyze(ctx context.Context, batch *model.Batch, notify bool) (*model.Run, error) {
	report, err := p.Analyzer.Analyze(batch)
	if err != nil {
		return nil, errors.Wrap(err, "analyze")
	}

	run, err := p.Store.Publish(report, p.now())
	if err != nil {
		return nil, err
	}

	if p.SummaryFile != "" {
		page, err := notifier.RenderHTMLSummary(run)
		if err != nil {
			p.logger.Error("render summary", zap.Error(err))
		} else if err := snapshot.WriteFile(p.SummaryFile, page); err != nil {
			p.logger.Error("write summary", zap.Error(err))
		}
	}

	if err := p.Recorder.RecordRun(run); err != nil {
		p.logger.Error("record run", zap.String("run", run.ID), zap.Error(err))
	}

	if notify {
		p.send(ctx, notifier.FormatRunReport(run))
	}

	p.logger.Info("run published",
		zap.String("run", run.ID),
		zap.Float64("portfolio_risk", report.Portfolio.Risk),
		zap.String("recommendation", string(report.Portfolio.Recommendation)),
	)
	return run, nil
}

// RunOnce performs a full collect and analyze cycle. Concurrent calls are
// rejected with ErrBusy.
func (p *Pipeline) RunOnce(ctx context.Context) (*model.Run, error) {
	if !p.running.TryLock() {
		return nil, ErrBusy
	}
	defer p.running.Unlock()

	batch, err := p.Collect(ctx)
	if err != nil {
		p.metrics.ObserveFailure()
		p.send(ctx, fmt.Sprintf("❌ collection failed: %v", err))
		return nil, err
	}
	run, err := p.Analyze(ctx, batch, true)
	if err != nil {
		p.send(ctx, fmt.Sprintf("❌ analysis failed: %v", err))
		return nil, err
	}
	return run, nil
}

func (p *Pipeline) send(ctx context.Context, text string) {
	if p.Sender == nil {
		return
	}
	if err := p.Sender.SendWithRetry(ctx, text, 3); err != nil {
		p.logger.Error("send notification", zap.Error(err))
	}
}
