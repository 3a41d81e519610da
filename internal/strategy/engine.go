package strategy

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"CryptoSentinel/internal/calculator"
	"CryptoSentinel/internal/config"
	"CryptoSentinel/internal/model"
)

// round1 rounds to one decimal place, half away from zero.
func round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

// Composite combines the sub-scores with the renormalized weights into one
// risk score rounded to one decimal, and returns the per-factor breakdown.
func Composite(sub model.SubScores, weights config.Weights, commentary map[string]string) (float64, []model.FactorScore, error) {
	w, err := weights.Normalized()
	if err != nil {
		return 0, nil, err
	}

	factors := []model.FactorScore{
		{Name: model.FactorSentiment, RawScore: sub.Sentiment, Weight: w.Sentiment},
		{Name: model.FactorTechnical, RawScore: sub.Technical, Weight: w.Technical},
		{Name: model.FactorCycle, RawScore: sub.Cycle, Weight: w.Cycle},
		{Name: model.FactorSocial, RawScore: sub.Social, Weight: w.Social},
	}

	total := 0.0
	for i := range factors {
		factors[i].Weighted = factors[i].RawScore * factors[i].Weight
		factors[i].Commentary = commentary[factors[i].Name]
		total += factors[i].Weighted
	}
	return round1(clamp(total, 0, 100)), factors, nil
}

// Evaluate runs one coin through indicators, sub-score mappers, the
// composite scorer and the classifier.
func Evaluate(in model.CoinInput, cfg config.EngineConfig) (model.CoinResult, error) {
	if in.ID == "" {
		return model.CoinResult{}, errors.Wrap(model.ErrMissingData, "coin without identifier")
	}
	if in.Series.Len() == 0 {
		return model.CoinResult{}, errors.Wrapf(model.ErrMissingData, "%s: no price series", in.ID)
	}
	if err := in.Series.Validate(); err != nil {
		return model.CoinResult{}, errors.Wrap(err, in.ID)
	}

	ind := calculator.Compute(in.Series, cfg.Indicators)

	commentary := make(map[string]string, 4)
	var sub model.SubScores
	sub.Sentiment, commentary[model.FactorSentiment] = ScoreSentiment(in.Sentiment, cfg.Sentiment)
	sub.Technical, commentary[model.FactorTechnical] = ScoreTechnical(ind, cfg.Technical)
	sub.Cycle, commentary[model.FactorCycle] = ScoreCycle(in.Cycle, ind.CyclePosition)
	sub.Social, commentary[model.FactorSocial] = ScoreSocial(in.Social, cfg.Social)

	risk, factors, err := Composite(sub, cfg.Weights, commentary)
	if err != nil {
		return model.CoinResult{}, err
	}

	return model.CoinResult{
		ID:             in.ID,
		Symbol:         in.Symbol,
		Risk:           risk,
		Recommendation: Classify(risk, cfg.Thresholds),
		Price:          in.CurrentPrice(),
		Indicators:     ind,
		SubScores:      sub,
		Factors:        factors,
		MarketCap:      in.MarketCap(),
	}, nil
}
