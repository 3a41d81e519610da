package config

import (
	"math"

	"github.com/pkg/errors"

	"CryptoSentinel/internal/model"
)

// Portfolio weighting schemes.
const (
	WeightingEqual     = "equal"
	WeightingMarketCap = "market_cap"
)

// Weights maps each sub-score to its share of the composite risk.
type Weights struct {
	Sentiment float64 `yaml:"sentiment"`
	Technical float64 `yaml:"technical"`
	Cycle     float64 `yaml:"cycle"`
	Social    float64 `yaml:"social"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Sentiment + w.Technical + w.Cycle + w.Social
}

// Normalized validates the weights and rescales them to sum to 1.0.
func (w Weights) Normalized() (Weights, error) {
	named := []struct {
		name  string
		value float64
	}{
		{model.FactorSentiment, w.Sentiment},
		{model.FactorTechnical, w.Technical},
		{model.FactorCycle, w.Cycle},
		{model.FactorSocial, w.Social},
	}
	for _, n := range named {
		if math.IsNaN(n.value) || math.IsInf(n.value, 0) {
			return Weights{}, errors.Wrapf(model.ErrConfiguration, "weights.%s is not a finite number", n.name)
		}
		if n.value < 0 {
			return Weights{}, errors.Wrapf(model.ErrConfiguration, "weights.%s is negative (%.4f)", n.name, n.value)
		}
	}
	sum := w.Sum()
	if sum <= 0 {
		return Weights{}, errors.Wrap(model.ErrConfiguration, "weights must not all be zero")
	}
	return Weights{
		Sentiment: w.Sentiment / sum,
		Technical: w.Technical / sum,
		Cycle:     w.Cycle / sum,
		Social:    w.Social / sum,
	}, nil
}

// Band is one row of the recommendation table; Min is inclusive.
type Band struct {
	Min   float64              `yaml:"min"`
	Label model.Recommendation `yaml:"label"`
}

// IndicatorConfig holds the lookback windows of the indicator calculator.
type IndicatorConfig struct {
	MomentumPeriod int     `yaml:"momentum_period"`
	TrendFast      int     `yaml:"trend_fast"`
	TrendSlow      int     `yaml:"trend_slow"`
	TrendSignal    int     `yaml:"trend_signal"`
	BandPeriod     int     `yaml:"band_period"`
	BandWidth      float64 `yaml:"band_width"`
	SwingMinPoints int     `yaml:"swing_min_points"`
}

// SentimentConfig shapes the Fear & Greed → risk curve.
type SentimentConfig struct {
	Inflection float64 `yaml:"inflection"`
	Steepness  float64 `yaml:"steepness"` // 0 selects a linear map
}

// TechnicalConfig tunes the technical sub-score blend.
type TechnicalConfig struct {
	Oversold    float64 `yaml:"oversold"`
	Overbought  float64 `yaml:"overbought"`
	ExtremeLow  float64 `yaml:"extreme_low"`
	ExtremeHigh float64 `yaml:"extreme_high"`
	TrendScale  float64 `yaml:"trend_scale"` // histogram as a fraction of price that maps to tanh(1)
}

// SocialConfig tunes the analyst-content adjustment.
type SocialConfig struct {
	Saturation int     `yaml:"saturation"`
	WindowDays float64 `yaml:"window_days"`
	MaxAdjust  float64 `yaml:"max_adjust"`
}

// PortfolioConfig selects the rollup weighting.
type PortfolioConfig struct {
	Weighting string `yaml:"weighting"`
}

// EngineConfig is every tunable of the scoring engine, threaded explicitly
// through each component.
type EngineConfig struct {
	Weights    Weights         `yaml:"weights"`
	Thresholds []Band          `yaml:"thresholds"`
	Indicators IndicatorConfig `yaml:"indicators"`
	Sentiment  SentimentConfig `yaml:"sentiment"`
	Technical  TechnicalConfig `yaml:"technical"`
	Social     SocialConfig    `yaml:"social"`
	Portfolio  PortfolioConfig `yaml:"portfolio"`
	Workers    int             `yaml:"workers"`
}

// DefaultBands is the five-level recommendation table.
func DefaultBands() []Band {
	return []Band{
		{Min: 0, Label: model.StrongBuy},
		{Min: 20, Label: model.Buy},
		{Min: 40, Label: model.Hold},
		{Min: 60, Label: model.Sell},
		{Min: 80, Label: model.StrongSell},
	}
}

// DefaultEngine returns the documented engine defaults.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		Weights: Weights{Sentiment: 0.25, Technical: 0.25, Cycle: 0.30, Social: 0.20},
		Thresholds: DefaultBands(),
		Indicators: IndicatorConfig{
			MomentumPeriod: 14,
			TrendFast:      12,
			TrendSlow:      26,
			TrendSignal:    9,
			BandPeriod:     20,
			BandWidth:      2.0,
			SwingMinPoints: 30,
		},
		Sentiment: SentimentConfig{Inflection: 50, Steepness: 0.1},
		Technical: TechnicalConfig{
			Oversold:    30,
			Overbought:  70,
			ExtremeLow:  20,
			ExtremeHigh: 80,
			TrendScale:  0.01,
		},
		Social:    SocialConfig{Saturation: 5, WindowDays: 30, MaxAdjust: 10},
		Portfolio: PortfolioConfig{Weighting: WeightingEqual},
		Workers:   4,
	}
}

// Validate checks every engine parameter. All failures wrap model.ErrConfiguration.
func (e EngineConfig) Validate() error {
	if _, err := e.Weights.Normalized(); err != nil {
		return err
	}
	if err := ValidateBands(e.Thresholds); err != nil {
		return err
	}

	ind := e.Indicators
	windows := []struct {
		name  string
		value int
	}{
		{"momentum_period", ind.MomentumPeriod},
		{"trend_fast", ind.TrendFast},
		{"trend_slow", ind.TrendSlow},
		{"trend_signal", ind.TrendSignal},
		{"band_period", ind.BandPeriod},
		{"swing_min_points", ind.SwingMinPoints},
	}
	for _, w := range windows {
		if w.value <= 0 {
			return errors.Wrapf(model.ErrConfiguration, "indicators.%s must be positive, got %d", w.name, w.value)
		}
	}
	if ind.TrendFast >= ind.TrendSlow {
		return errors.Wrapf(model.ErrConfiguration, "indicators.trend_fast (%d) must be below trend_slow (%d)", ind.TrendFast, ind.TrendSlow)
	}
	if ind.BandPeriod < 2 {
		return errors.Wrap(model.ErrConfiguration, "indicators.band_period must be at least 2")
	}
	if ind.BandWidth <= 0 {
		return errors.Wrap(model.ErrConfiguration, "indicators.band_width must be positive")
	}

	if e.Sentiment.Inflection < 0 || e.Sentiment.Inflection > 100 {
		return errors.Wrap(model.ErrConfiguration, "sentiment.inflection must be within [0,100]")
	}
	if e.Sentiment.Steepness < 0 {
		return errors.Wrap(model.ErrConfiguration, "sentiment.steepness must not be negative")
	}

	t := e.Technical
	if !(0 <= t.Oversold && t.Oversold < t.Overbought && t.Overbought <= 100) {
		return errors.Wrap(model.ErrConfiguration, "technical: need 0 <= oversold < overbought <= 100")
	}
	if !(0 <= t.ExtremeLow && t.ExtremeLow < t.ExtremeHigh && t.ExtremeHigh <= 100) {
		return errors.Wrap(model.ErrConfiguration, "technical: need 0 <= extreme_low < extreme_high <= 100")
	}
	if t.TrendScale <= 0 {
		return errors.Wrap(model.ErrConfiguration, "technical.trend_scale must be positive")
	}

	if e.Social.Saturation <= 0 || e.Social.WindowDays <= 0 {
		return errors.Wrap(model.ErrConfiguration, "social.saturation and social.window_days must be positive")
	}
	if e.Social.MaxAdjust < 0 || e.Social.MaxAdjust > 50 {
		return errors.Wrap(model.ErrConfiguration, "social.max_adjust must be within [0,50]")
	}

	switch e.Portfolio.Weighting {
	case WeightingEqual, WeightingMarketCap:
	default:
		return errors.Wrapf(model.ErrConfiguration, "portfolio.weighting %q is not one of %q, %q",
			e.Portfolio.Weighting, WeightingEqual, WeightingMarketCap)
	}
	if e.Workers <= 0 {
		return errors.Wrap(model.ErrConfiguration, "workers must be positive")
	}
	return nil
}

// ValidateBands checks that the table starts at 0, is strictly increasing
// in both score and risk rank, and only uses known labels.
func ValidateBands(bands []Band) error {
	if len(bands) == 0 {
		return errors.Wrap(model.ErrConfiguration, "thresholds must not be empty")
	}
	if bands[0].Min != 0 {
		return errors.Wrapf(model.ErrConfiguration, "thresholds[0].min must be 0, got %.2f", bands[0].Min)
	}
	for i, b := range bands {
		if !b.Label.Valid() {
			return errors.Wrapf(model.ErrConfiguration, "thresholds[%d].label %q is unknown", i, b.Label)
		}
		if b.Min < 0 || b.Min >= 100 || math.IsNaN(b.Min) {
			return errors.Wrapf(model.ErrConfiguration, "thresholds[%d].min %.2f is outside [0,100)", i, b.Min)
		}
		if i == 0 {
			continue
		}
		prev := bands[i-1]
		if b.Min <= prev.Min {
			return errors.Wrapf(model.ErrConfiguration, "thresholds[%d].min %.2f is not above %.2f", i, b.Min, prev.Min)
		}
		if b.Label.Rank() <= prev.Label.Rank() {
			return errors.Wrapf(model.ErrConfiguration, "thresholds[%d] %s does not carry more risk than %s", i, b.Label, prev.Label)
		}
	}
	return nil
}
