package calculator

import (
	"math"

	"github.com/pkg/errors"

	"CryptoSentinel/internal/model"
)

// CalculateBands returns the lower, middle and upper volatility band over the
// last period closes: mean ± width × population standard deviation.
func CalculateBands(closes []float64, period int, width float64) (lower, middle, upper float64, err error) {
	if period <= 1 {
		return 0, 0, 0, errors.New("band period must be at least 2")
	}
	middle, err = CalculateSMA(closes, period)
	if err != nil {
		return 0, 0, 0, errors.Wrap(err, "volatility bands")
	}
	var variance float64
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - middle
		variance += d * d
	}
	std := math.Sqrt(variance / float64(period))
	return middle - width*std, middle, middle + width*std, nil
}

// CalculateBandPosition expresses price as a fraction of the band:
// 0 at the lower band, 1 at the upper band, beyond [0,1] on a breakout.
// A zero-width band yields 0.5.
func CalculateBandPosition(closes []float64, period int, width float64) (float64, error) {
	if len(closes) < period {
		return 0, errors.Wrapf(model.ErrInsufficientHistory, "bands need %d closes, got %d", period, len(closes))
	}
	lower, _, upper, err := CalculateBands(closes, period, width)
	if err != nil {
		return 0, err
	}
	if upper == lower {
		return 0.5, nil
	}
	price := closes[len(closes)-1]
	return (price - lower) / (upper - lower), nil
}
