package strategy

import (
	"CryptoSentinel/internal/config"
	"CryptoSentinel/internal/model"
)

// Classify maps a risk score to the label of the highest band whose lower
// edge it reaches. Scores below the first edge take the first band.
func Classify(score float64, bands []config.Band) model.Recommendation {
	if len(bands) == 0 {
		return model.Hold
	}
	for i := len(bands) - 1; i >= 0; i-- {
		if score >= bands[i].Min {
			return bands[i].Label
		}
	}
	return bands[0].Label
}
