package calculator

import (
	"math"

	"github.com/pkg/errors"

	"CryptoSentinel/internal/model"
)

// FibonacciRatios are the standard retracement ratios, measured down from the swing high.
var FibonacciRatios = []float64{0.236, 0.382, 0.5, 0.618, 0.786}

// FibonacciLevels returns the retracement prices for a swing, in FibonacciRatios order.
func FibonacciLevels(high, low float64) []float64 {
	levels := make([]float64, len(FibonacciRatios))
	for i, r := range FibonacciRatios {
		levels[i] = high - (high-low)*r
	}
	return levels
}

// CalculateFibonacci finds the retracement level nearest to the latest close.
// On equal distance the lower ratio wins. A flat series has no levels.
func CalculateFibonacci(closes []float64) (model.FibonacciLevel, error) {
	high, low, err := CalculateSwingRange(closes)
	if err != nil {
		return model.FibonacciLevel{}, err
	}
	if high == low {
		return model.FibonacciLevel{}, errors.Wrap(model.ErrInsufficientHistory, "flat series has no swing")
	}

	price := closes[len(closes)-1]
	swing := high - low
	levels := FibonacciLevels(high, low)

	best := 0
	for i := 1; i < len(levels); i++ {
		if math.Abs(price-levels[i]) < math.Abs(price-levels[best]) {
			best = i
		}
	}
	return model.FibonacciLevel{
		Ratio:     FibonacciRatios[best],
		Level:     levels[best],
		Distance:  (price - levels[best]) / swing,
		SwingHigh: high,
		SwingLow:  low,
	}, nil
}
