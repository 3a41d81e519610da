package calculator

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/pkg/errors"

	"CryptoSentinel/internal/model"
)

// CalculateSMA computes the simple moving average of the last period values.
func CalculateSMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, errors.Wrapf(model.ErrInsufficientHistory, "SMA needs %d values, got %d", period, len(values))
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

// CalculateEMA returns the exponential moving average series. The first
// output value is the SMA of the first period inputs, so the result has
// len(values)-period+1 entries.
func CalculateEMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(values) < period {
		return nil, errors.Wrapf(model.ErrInsufficientHistory, "EMA needs %d values, got %d", period, len(values))
	}

	ema := trend.NewEmaWithPeriod[float64](period)
	out := helper.ChanToSlice(ema.Compute(helper.SliceToChan(values)))
	if len(out) == 0 {
		return nil, errors.Wrapf(model.ErrInsufficientHistory, "EMA(%d) produced no values", period)
	}
	return out, nil
}

// CalculateTrendDivergence computes the MACD line (fast EMA minus slow EMA),
// its signal line and the histogram at the latest close.
func CalculateTrendDivergence(closes []float64, fast, slow, signal int) (model.TrendDivergence, error) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return model.TrendDivergence{}, errors.New("periods must be positive")
	}
	if fast >= slow {
		return model.TrendDivergence{}, errors.Errorf("fast period %d must be below slow period %d", fast, slow)
	}
	need := slow + signal - 1
	if len(closes) < need {
		return model.TrendDivergence{}, errors.Wrapf(model.ErrInsufficientHistory, "trend needs %d closes, got %d", need, len(closes))
	}

	fastEMA, err := CalculateEMA(closes, fast)
	if err != nil {
		return model.TrendDivergence{}, errors.Wrap(err, "fast EMA")
	}
	slowEMA, err := CalculateEMA(closes, slow)
	if err != nil {
		return model.TrendDivergence{}, errors.Wrap(err, "slow EMA")
	}

	// Align on the most recent values; the slow series is the shorter one.
	n := len(slowEMA)
	if len(fastEMA) < n {
		n = len(fastEMA)
	}
	offsetFast := len(fastEMA) - n
	offsetSlow := len(slowEMA) - n
	macd := make([]float64, n)
	for i := 0; i < n; i++ {
		macd[i] = fastEMA[offsetFast+i] - slowEMA[offsetSlow+i]
	}

	signalLine, err := CalculateEMA(macd, signal)
	if err != nil {
		return model.TrendDivergence{}, errors.Wrap(err, "signal EMA")
	}

	last := macd[len(macd)-1]
	sig := signalLine[len(signalLine)-1]
	return model.TrendDivergence{
		MACD:      last,
		Signal:    sig,
		Histogram: last - sig,
	}, nil
}
