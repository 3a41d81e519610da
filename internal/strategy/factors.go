package strategy

import (
	"fmt"
	"math"
	"strings"

	"CryptoSentinel/internal/config"
	"CryptoSentinel/internal/model"
)

// NeutralDefaults is the single table of sub-scores used when a signal is
// missing. Every mapper falls back to its entry here.
var NeutralDefaults = model.SubScores{
	Sentiment: 50,
	Technical: 50,
	Cycle:     50,
	Social:    50,
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func present(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// ScoreSentiment maps a Fear & Greed index (0 fear … 100 greed) to risk.
// Extreme greed is high risk, extreme fear low risk. The curve is a logistic
// centred on the inflection point, rescaled to pass through (0,0) and
// (100,100); steepness 0 degrades to the identity.
// Neutral default: 50.
func ScoreSentiment(index *float64, cfg config.SentimentConfig) (float64, string) {
	if !present(index) {
		return NeutralDefaults.Sentiment, "no sentiment data"
	}
	x := clamp(*index, 0, 100)
	commentary := fmt.Sprintf("F&G=%.0f", x)
	if cfg.Steepness == 0 {
		return x, commentary
	}

	logistic := func(v float64) float64 {
		return 1 / (1 + math.Exp(-cfg.Steepness*(v-cfg.Inflection)))
	}
	lo, hi := logistic(0), logistic(100)
	if hi-lo < 1e-12 {
		return x, commentary
	}
	return clamp(100*(logistic(x)-lo)/(hi-lo), 0, 100), commentary
}

// technical component blend weights: {momentum, trend, band}
var (
	momentumLed = [3]float64{0.6, 0.2, 0.2}
	trendLed    = [3]float64{0.25, 0.5, 0.25}
)

// ScoreTechnical blends momentum extremity, trend divergence and band
// position. Momentum leads while the oscillator is beyond its extremes,
// otherwise trend divergence leads. Unavailable components drop out and the
// remaining weights are renormalized.
// Neutral default: 50 when no component is available.
func ScoreTechnical(ind model.IndicatorSet, cfg config.TechnicalConfig) (float64, string) {
	var risks [3]float64
	var ok [3]bool
	commentary := ""

	if present(ind.Momentum) {
		rsi := *ind.Momentum
		risks[0] = clamp((rsi-cfg.Oversold)/(cfg.Overbought-cfg.Oversold)*100, 0, 100)
		ok[0] = true
		commentary += fmt.Sprintf("RSI=%.0f ", rsi)
	}
	if ind.Trend != nil && ind.Price > 0 {
		strength := ind.Trend.Histogram / (ind.Price * cfg.TrendScale)
		risks[1] = clamp(50-50*math.Tanh(strength), 0, 100)
		ok[1] = true
		commentary += fmt.Sprintf("MACDh=%+.4g ", ind.Trend.Histogram)
	}
	if present(ind.BandPosition) {
		risks[2] = clamp(*ind.BandPosition, 0, 1) * 100
		ok[2] = true
		commentary += fmt.Sprintf("band=%.2f", *ind.BandPosition)
	}

	weights := trendLed
	if ok[0] && (*ind.Momentum > cfg.ExtremeHigh || *ind.Momentum < cfg.ExtremeLow) {
		weights = momentumLed
	}

	var total, weighted float64
	for i := range risks {
		if !ok[i] {
			continue
		}
		total += weights[i]
		weighted += weights[i] * risks[i]
	}
	if total == 0 {
		return NeutralDefaults.Technical, "insufficient history"
	}
	return clamp(weighted/total, 0, 100), strings.TrimSpace(commentary)
}

// ScoreCycle places the coin in its long-run cycle: 0 at the cycle low,
// 100 at the peak. An explicitly supplied signal wins over the position
// derived from the price series.
// Neutral default: 50.
func ScoreCycle(signal, derived *float64) (float64, string) {
	switch {
	case present(signal):
		pos := clamp(*signal, 0, 1)
		return pos * 100, fmt.Sprintf("cycle=%.2f", pos)
	case present(derived):
		pos := clamp(*derived, 0, 1)
		return pos * 100, fmt.Sprintf("swing position=%.2f", pos)
	default:
		return NeutralDefaults.Cycle, "no cycle data"
	}
}

// ScoreSocial turns analyst coverage into a small adjustment around the
// neutral value: frequent, recent mentions read as hype (more risk), sparse
// or stale coverage as quiet (less risk). The result stays within
// 50 ± cfg.MaxAdjust and never decreases as mentions grow.
// Neutral default: 50 when there is no signal (no feed data).
func ScoreSocial(signal *model.SocialSignal, cfg config.SocialConfig) (float64, string) {
	if signal == nil {
		return NeutralDefaults.Social, "no analyst feed data"
	}
	if signal.Mentions <= 0 {
		return clamp(NeutralDefaults.Social-cfg.MaxAdjust, 0, 100), "no recent analyst mentions"
	}
	coverage := math.Min(float64(signal.Mentions)/float64(cfg.Saturation), 1)
	recency := clamp(1-signal.DaysSinceLatest/cfg.WindowDays, 0, 1)
	intensity := coverage * recency
	risk := NeutralDefaults.Social + (intensity*2-1)*cfg.MaxAdjust
	return clamp(risk, 0, 100), fmt.Sprintf("%d mentions, latest %.0fd ago", signal.Mentions, signal.DaysSinceLatest)
}
