package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoSentinel/internal/config"
	"CryptoSentinel/internal/model"
)

func f64(v float64) *float64 { return &v }

func seriesOf(closes ...float64) *model.PriceSeries {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &model.PriceSeries{Coin: "test"}
	for i, c := range closes {
		s.Points = append(s.Points, model.PricePoint{Time: base.AddDate(0, 0, i), Close: c})
	}
	return s
}

func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i%7)*1.5 + float64(i)*0.2
	}
	return out
}

func TestComposite_StaysInRange(t *testing.T) {
	levels := []float64{0, 25, 50, 75, 100}
	weightSets := []config.Weights{
		{Sentiment: 0.25, Technical: 0.25, Cycle: 0.30, Social: 0.20},
		{Sentiment: 1},
		{Technical: 0.5, Social: 0.5},
	}
	for _, w := range weightSets {
		for _, a := range levels {
			for _, b := range levels {
				for _, c := range levels {
					for _, d := range levels {
						risk, _, err := Composite(model.SubScores{Sentiment: a, Technical: b, Cycle: c, Social: d}, w, nil)
						require.NoError(t, err)
						assert.GreaterOrEqual(t, risk, 0.0)
						assert.LessOrEqual(t, risk, 100.0)
					}
				}
			}
		}
	}
}

func TestComposite_RenormalizesWeights(t *testing.T) {
	sub := model.SubScores{Sentiment: 12.3, Technical: 45.6, Cycle: 78.9, Social: 50}

	short, _, err := Composite(sub, config.Weights{Sentiment: 0.2, Technical: 0.2, Cycle: 0.2, Social: 0.2}, nil)
	require.NoError(t, err)
	full, _, err := Composite(sub, config.Weights{Sentiment: 0.25, Technical: 0.25, Cycle: 0.25, Social: 0.25}, nil)
	require.NoError(t, err)

	assert.Equal(t, full, short)
	assert.Equal(t, 46.7, full)
}

func TestComposite_Breakdown(t *testing.T) {
	sub := model.SubScores{Sentiment: 10, Technical: 20, Cycle: 30, Social: 40}
	risk, factors, err := Composite(sub, config.DefaultEngine().Weights, map[string]string{model.FactorCycle: "swing"})
	require.NoError(t, err)
	require.Len(t, factors, 4)

	var sum float64
	for _, f := range factors {
		sum += f.Weighted
	}
	// 0.25*10 + 0.25*20 + 0.30*30 + 0.20*40 = 24.5
	assert.InDelta(t, 24.5, sum, 1e-9)
	assert.Equal(t, 24.5, risk)
	assert.Equal(t, "swing", factors[2].Commentary)
}

func TestComposite_InvalidWeights(t *testing.T) {
	_, _, err := Composite(model.SubScores{}, config.Weights{Sentiment: -1, Cycle: 2}, nil)
	assert.True(t, errors.Is(err, model.ErrConfiguration))
}

func TestClassify_AllBoundaries(t *testing.T) {
	bands := config.DefaultBands()
	tests := []struct {
		score float64
		want  model.Recommendation
	}{
		{0, model.StrongBuy},
		{19.9, model.StrongBuy},
		{20, model.Buy},
		{39.9, model.Buy},
		{40, model.Hold},
		{59.9, model.Hold},
		{60, model.Sell},
		{79.9, model.Sell},
		{80, model.StrongSell},
		{100, model.StrongSell},
		{-5, model.StrongBuy},
		{120, model.StrongSell},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.score, bands), "score %.1f", tt.score)
	}
}

func TestClassify_TotalAndMonotonic(t *testing.T) {
	for _, bands := range [][]config.Band{
		config.DefaultBands(),
		{{Min: 0, Label: model.Buy}, {Min: 40, Label: model.Hold}, {Min: 60, Label: model.Sell}},
	} {
		prev := -1
		for i := 0; i <= 1000; i++ {
			rec := Classify(float64(i)/10, bands)
			require.True(t, rec.Valid(), "score %.1f unlabeled", float64(i)/10)
			assert.GreaterOrEqual(t, rec.Rank(), prev)
			prev = rec.Rank()
		}
	}
}

func TestScoreSentiment(t *testing.T) {
	cfg := config.DefaultEngine().Sentiment

	got, _ := ScoreSentiment(nil, cfg)
	assert.Equal(t, NeutralDefaults.Sentiment, got)

	lo, _ := ScoreSentiment(f64(0), cfg)
	mid, _ := ScoreSentiment(f64(50), cfg)
	hi, _ := ScoreSentiment(f64(100), cfg)
	assert.InDelta(t, 0, lo, 1e-9)
	assert.InDelta(t, 50, mid, 1e-9)
	assert.InDelta(t, 100, hi, 1e-9)

	prev := -1.0
	for i := 0; i <= 100; i++ {
		v, _ := ScoreSentiment(f64(float64(i)), cfg)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}

	fear, _ := ScoreSentiment(f64(10), cfg)
	assert.Less(t, fear, 10.0, "extreme fear reads as low risk")

	linear, _ := ScoreSentiment(f64(37), config.SentimentConfig{Inflection: 50})
	assert.Equal(t, 37.0, linear)

	clamped, _ := ScoreSentiment(f64(140), cfg)
	assert.InDelta(t, 100, clamped, 1e-9)
}

func TestScoreTechnical(t *testing.T) {
	cfg := config.DefaultEngine().Technical

	t.Run("nothing available", func(t *testing.T) {
		got, _ := ScoreTechnical(model.IndicatorSet{Price: 10}, cfg)
		assert.Equal(t, NeutralDefaults.Technical, got)
	})

	t.Run("oversold with bullish trend near lower band", func(t *testing.T) {
		ind := model.IndicatorSet{
			Price:        100,
			Momentum:     f64(25),
			Trend:        &model.TrendDivergence{MACD: 1, Signal: 0.5, Histogram: 0.5},
			BandPosition: f64(0.1),
		}
		got, _ := ScoreTechnical(ind, cfg)
		assert.Less(t, got, 30.0)
	})

	t.Run("momentum leads at its extreme", func(t *testing.T) {
		ind := model.IndicatorSet{
			Price:        100,
			Momentum:     f64(90),
			Trend:        &model.TrendDivergence{Histogram: 5},
			BandPosition: f64(0.5),
		}
		got, _ := ScoreTechnical(ind, cfg)
		// 0.6*100 + 0.2*~0 + 0.2*50
		assert.InDelta(t, 70, got, 0.01)
	})

	t.Run("trend leads otherwise", func(t *testing.T) {
		ind := model.IndicatorSet{
			Price:        100,
			Momentum:     f64(70),
			Trend:        &model.TrendDivergence{Histogram: 5},
			BandPosition: f64(0.5),
		}
		got, _ := ScoreTechnical(ind, cfg)
		// 0.25*100 + 0.5*~0 + 0.25*50
		assert.InDelta(t, 37.5, got, 0.01)
	})

	t.Run("breakout is clamped", func(t *testing.T) {
		got, _ := ScoreTechnical(model.IndicatorSet{Price: 10, BandPosition: f64(1.7)}, cfg)
		assert.Equal(t, 100.0, got)
	})
}

func TestScoreCycle(t *testing.T) {
	got, _ := ScoreCycle(nil, nil)
	assert.Equal(t, NeutralDefaults.Cycle, got)

	got, _ = ScoreCycle(nil, f64(0.25))
	assert.Equal(t, 25.0, got)

	got, _ = ScoreCycle(f64(0.9), f64(0.25))
	assert.Equal(t, 90.0, got)

	got, _ = ScoreCycle(f64(1.5), nil)
	assert.Equal(t, 100.0, got)
}

func TestScoreSocial(t *testing.T) {
	cfg := config.DefaultEngine().Social
	tests := []struct {
		name   string
		signal *model.SocialSignal
		want   float64
	}{
		{"no signal", nil, 50},
		{"feed without mentions", &model.SocialSignal{Mentions: 0, DaysSinceLatest: 2}, 40},
		{"saturated and fresh", &model.SocialSignal{Mentions: 9, DaysSinceLatest: 0}, 60},
		{"sparse and aging", &model.SocialSignal{Mentions: 1, DaysSinceLatest: 15}, 42},
		{"stale", &model.SocialSignal{Mentions: 3, DaysSinceLatest: 45}, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := ScoreSocial(tt.signal, cfg)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestScoreSocial_NonDecreasingInMentions(t *testing.T) {
	cfg := config.DefaultEngine().Social
	for _, days := range []float64{0, 1, 7, 15, 29, 45} {
		prev, _ := ScoreSocial(&model.SocialSignal{Mentions: 0, DaysSinceLatest: days}, cfg)
		for n := 1; n <= cfg.Saturation+3; n++ {
			got, _ := ScoreSocial(&model.SocialSignal{Mentions: n, DaysSinceLatest: days}, cfg)
			assert.GreaterOrEqual(t, got, prev, "mentions=%d days=%v", n, days)
			assert.GreaterOrEqual(t, got, 50-cfg.MaxAdjust)
			assert.LessOrEqual(t, got, 50+cfg.MaxAdjust)
			prev = got
		}
	}
}

func TestEvaluate_MissingAndInvalidData(t *testing.T) {
	cfg := config.DefaultEngine()

	_, err := Evaluate(model.CoinInput{ID: "bitcoin"}, cfg)
	assert.True(t, errors.Is(err, model.ErrMissingData))

	_, err = Evaluate(model.CoinInput{ID: "bitcoin", Series: &model.PriceSeries{}}, cfg)
	assert.True(t, errors.Is(err, model.ErrMissingData))

	bad := seriesOf(1, 2, 3)
	bad.Points[2].Time = bad.Points[0].Time
	_, err = Evaluate(model.CoinInput{ID: "bitcoin", Series: bad}, cfg)
	assert.True(t, errors.Is(err, model.ErrInvalidData))

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 0, -3} {
		s := seriesOf(1, 2, 3)
		s.Points[2].Close = v
		_, err = Evaluate(model.CoinInput{ID: "bitcoin", Series: s}, cfg)
		assert.True(t, errors.Is(err, model.ErrInvalidData), "close %v", v)
	}
}

func TestEvaluate_PricePrefersSnapshotQuote(t *testing.T) {
	cfg := config.DefaultEngine()

	res, err := Evaluate(model.CoinInput{ID: "bitcoin", Series: seriesOf(1, 2, 3)}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 3.0, res.Price)

	res, err = Evaluate(model.CoinInput{
		ID:       "bitcoin",
		Series:   seriesOf(1, 2, 3),
		Snapshot: &model.MarketSnapshot{Price: 3.25, MarketCap: 9e9},
	}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 3.25, res.Price)
	assert.Equal(t, 3.0, res.Indicators.Price)
	assert.Equal(t, 9e9, res.MarketCap)
}

func TestEvaluate_ShortSeriesUsesNeutralDefaults(t *testing.T) {
	res, err := Evaluate(model.CoinInput{ID: "vechain", Series: seriesOf(1, 2, 3, 4, 5)}, config.DefaultEngine())
	require.NoError(t, err)

	assert.Equal(t, NeutralDefaults.Technical, res.SubScores.Technical)
	assert.Equal(t, NeutralDefaults.Cycle, res.SubScores.Cycle)
	assert.Equal(t, 50.0, res.Risk)
	assert.Equal(t, model.Hold, res.Recommendation)
	assert.NotEmpty(t, res.Indicators.Warnings)
}

func TestEvaluate_ExtremeFearOversoldScenario(t *testing.T) {
	cfg := config.DefaultEngine()
	ind := model.IndicatorSet{
		Price:        100,
		Momentum:     f64(25),
		Trend:        &model.TrendDivergence{MACD: 0.8, Signal: 0.3, Histogram: 0.5},
		BandPosition: f64(0.1),
	}

	sentiment, _ := ScoreSentiment(f64(10), cfg.Sentiment)
	technical, _ := ScoreTechnical(ind, cfg.Technical)
	assert.Less(t, sentiment, 20.0)
	assert.Less(t, technical, 30.0)

	cycle, _ := ScoreCycle(nil, nil)
	social, _ := ScoreSocial(nil, cfg.Social)
	risk, _, err := Composite(model.SubScores{Sentiment: sentiment, Technical: technical, Cycle: cycle, Social: social}, cfg.Weights, nil)
	require.NoError(t, err)

	rec := Classify(risk, cfg.Thresholds)
	assert.Contains(t, []model.Recommendation{model.Buy, model.StrongBuy}, rec, "risk %.1f", risk)
}

func TestEvaluate_Deterministic(t *testing.T) {
	in := model.CoinInput{
		ID:        "ethereum",
		Symbol:    "ETH",
		Snapshot:  &model.MarketSnapshot{Coin: "ethereum", Price: 110, MarketCap: 1e9},
		Series:    seriesOf(wave(120)...),
		Sentiment: f64(64),
		Social:    &model.SocialSignal{Mentions: 2, DaysSinceLatest: 3},
	}
	cfg := config.DefaultEngine()

	first, err := Evaluate(in, cfg)
	require.NoError(t, err)
	second, err := Evaluate(in, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1e9, first.MarketCap)
	assert.Len(t, first.Factors, 4)
	assert.True(t, first.Recommendation.Valid())
}
