package analyzer

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"CryptoSentinel/internal/config"
	"CryptoSentinel/internal/metrics"
	"CryptoSentinel/internal/model"
	"CryptoSentinel/internal/strategy"
)

// Analyzer turns a collected batch into a report. It holds only immutable
// configuration, so one Analyzer may serve concurrent calls.
type Analyzer struct {
	cfg     config.EngineConfig
	logger  *zap.Logger
	metrics *metrics.Registry
}

// New validates the engine configuration and builds an Analyzer. Both the
// logger and the metrics registry are optional.
func New(cfg config.EngineConfig, logger *zap.Logger, reg *metrics.Registry) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{cfg: cfg, logger: logger, metrics: reg}, nil
}

type slot struct {
	result model.CoinResult
	err    error
}

// Analyze scores every coin of the batch, skipping the ones whose input is
// missing or malformed, and aggregates the rest into the portfolio summary.
// The report does not depend on worker count or scheduling order.
func (a *Analyzer) Analyze(batch *model.Batch) (*model.Report, error) {
	if batch == nil {
		return nil, errors.Wrap(model.ErrMissingData, "nil batch")
	}
	start := time.Now()

	slots := make([]slot, len(batch.Coins))
	var g errgroup.Group
	g.SetLimit(a.cfg.Workers)
	for i := range batch.Coins {
		i := i
		g.Go(func() error {
			slots[i].result, slots[i].err = strategy.Evaluate(batch.Coins[i], a.cfg)
			return nil
		})
	}
	_ = g.Wait()

	report := &model.Report{
		Coins:  make(map[string]model.CoinResult, len(batch.Coins)),
		Global: batch.Global,
	}
	var entries []model.PortfolioEntry
	seen := make(map[string]struct{}, len(slots))
	for i, s := range slots {
		id := batch.Coins[i].ID
		err := s.err
		if _, dup := seen[id]; dup {
			err = errors.Wrapf(model.ErrInvalidData, "%s: duplicate coin in batch", id)
		}
		seen[id] = struct{}{}
		if err != nil {
			a.skip(report, id, err)
			continue
		}

		report.Coins[id] = s.result
		entries = append(entries, model.PortfolioEntry{
			ID:        id,
			Risk:      s.result.Risk,
			MarketCap: s.result.MarketCap,
		})
		a.logger.Debug("coin scored",
			zap.String("coin", id),
			zap.Float64("risk", s.result.Risk),
			zap.String("recommendation", string(s.result.Recommendation)),
			zap.Strings("warnings", s.result.Indicators.Warnings),
		)
	}

	summary, err := strategy.Aggregate(entries, a.cfg.Portfolio.Weighting, a.cfg.Thresholds)
	if err != nil {
		a.metrics.ObserveFailure()
		return nil, err
	}
	report.Portfolio = summary

	a.metrics.ObserveReport(report, time.Since(start), time.Now())
	a.logger.Info("analysis complete",
		zap.Int("scored", len(report.Coins)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Float64("portfolio_risk", summary.Risk),
		zap.String("recommendation", string(summary.Recommendation)),
	)
	return report, nil
}

func (a *Analyzer) skip(report *model.Report, id string, err error) {
	report.Skipped = append(report.Skipped, model.SkippedCoin{ID: id, Reason: err.Error()})
	a.metrics.ObserveSkip(skipReason(err))
	a.logger.Warn("coin skipped", zap.String("coin", id), zap.Error(err))
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, model.ErrMissingData):
		return "missing_data"
	case errors.Is(err, model.ErrInvalidData):
		return "invalid_data"
	default:
		return "error"
	}
}
