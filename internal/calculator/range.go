package calculator

import (
	"math"

	"github.com/pkg/errors"

	"CryptoSentinel/internal/model"
)

// CalculateSwingRange scans the whole series and returns its high and low close.
func CalculateSwingRange(closes []float64) (high, low float64, err error) {
	if len(closes) == 0 {
		return 0, 0, errors.Wrap(model.ErrInsufficientHistory, "no closes provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, c := range closes {
		if c > high {
			high = c
		}
		if c < low {
			low = c
		}
	}
	return high, low, nil
}

// CalculateCyclePosition returns where the current price sits within the swing range (0.0~1.0).
func CalculateCyclePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
