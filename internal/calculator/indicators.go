package calculator

import (
	"fmt"

	"github.com/pkg/errors"

	"CryptoSentinel/internal/config"
	"CryptoSentinel/internal/model"
)

// Compute derives every indicator from the series. Indicators whose window is
// not met are left nil and noted in Warnings; Compute itself never fails.
func Compute(series *model.PriceSeries, cfg config.IndicatorConfig) model.IndicatorSet {
	closes := series.Closes()
	set := model.IndicatorSet{Price: series.Last()}
	warn := func(name string, err error) {
		set.Warnings = append(set.Warnings, fmt.Sprintf("%s: %v", name, err))
	}

	if rsi, err := CalculateRSI(closes, cfg.MomentumPeriod); err != nil {
		warn("momentum", err)
	} else {
		set.Momentum = &rsi
	}

	if td, err := CalculateTrendDivergence(closes, cfg.TrendFast, cfg.TrendSlow, cfg.TrendSignal); err != nil {
		warn("trend", err)
	} else {
		set.Trend = &td
	}

	if pos, err := CalculateBandPosition(closes, cfg.BandPeriod, cfg.BandWidth); err != nil {
		warn("bands", err)
	} else {
		set.BandPosition = &pos
	}

	if len(closes) < cfg.SwingMinPoints {
		warn("swing", errors.Wrapf(model.ErrInsufficientHistory, "need %d closes, got %d", cfg.SwingMinPoints, len(closes)))
		return set
	}

	if fib, err := CalculateFibonacci(closes); err != nil {
		warn("fibonacci", err)
	} else {
		set.Fibonacci = &fib
	}

	if high, low, err := CalculateSwingRange(closes); err != nil {
		warn("cycle", err)
	} else if pos, err := CalculateCyclePosition(set.Price, high, low); err != nil {
		warn("cycle", err)
	} else {
		set.CyclePosition = &pos
	}

	return set
}
