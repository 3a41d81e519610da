package strategy

import (
	"sort"

	"github.com/pkg/errors"

	"CryptoSentinel/internal/config"
	"CryptoSentinel/internal/model"
)

// Aggregate rolls per-coin risk scores up into one portfolio score, classifies
// it, and ranks the coins from lowest to highest risk (ties by ID).
//
// With market-cap weighting, coins without a positive cap weigh nothing; if
// no coin has a cap the rollup falls back to equal weighting and reports it.
func Aggregate(entries []model.PortfolioEntry, weighting string, bands []config.Band) (model.PortfolioSummary, error) {
	if len(entries) == 0 {
		return model.PortfolioSummary{}, errors.Wrap(model.ErrEmptyPortfolio, "no scored coins to aggregate")
	}

	ranking := make([]model.PortfolioEntry, len(entries))
	copy(ranking, entries)
	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].Risk != ranking[j].Risk {
			return ranking[i].Risk < ranking[j].Risk
		}
		return ranking[i].ID < ranking[j].ID
	})

	used := config.WeightingEqual
	if weighting == config.WeightingMarketCap {
		var totalCap float64
		for _, e := range ranking {
			if e.MarketCap > 0 {
				totalCap += e.MarketCap
			}
		}
		if totalCap > 0 {
			used = config.WeightingMarketCap
			for i := range ranking {
				ranking[i].Weight = 0
				if ranking[i].MarketCap > 0 {
					ranking[i].Weight = ranking[i].MarketCap / totalCap
				}
			}
		}
	}
	if used == config.WeightingEqual {
		for i := range ranking {
			ranking[i].Weight = 1 / float64(len(ranking))
		}
	}

	var risk float64
	for i := range ranking {
		risk += ranking[i].Weight * ranking[i].Risk
		ranking[i].Recommendation = Classify(ranking[i].Risk, bands)
	}
	risk = round1(clamp(risk, 0, 100))

	return model.PortfolioSummary{
		Risk:           risk,
		Recommendation: Classify(risk, bands),
		Weighting:      used,
		Ranking:        ranking,
	}, nil
}
