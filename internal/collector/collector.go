package collector

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"CryptoSentinel/internal/config"
	"CryptoSentinel/internal/metrics"
	"CryptoSentinel/internal/model"
)

// Collector orchestrates data fetching for every configured coin and channel
// and materializes the result as one engine batch.
type Collector struct {
	Fetcher  Fetcher
	Coins    []config.CoinConfig
	Channels []config.ChannelConfig
	Sources  config.SourcesConfig

	logger  *zap.Logger
	metrics *metrics.Registry
	now     func() time.Time
}

// NewCollector creates a new Collector. logger and reg may be nil.
func NewCollector(fetcher Fetcher, cfg *config.Config, logger *zap.Logger, reg *metrics.Registry) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		Fetcher:  fetcher,
		Coins:    cfg.Coins,
		Channels: cfg.Channels,
		Sources:  cfg.Sources,
		logger:   logger.With(zap.String("fetcher", fetcher.Name())),
		metrics:  reg,
		now:      time.Now,
	}
}

// Collect fetches quotes, market context, price history and analyst feeds.
// A failing source degrades its part of the batch and is logged; the call
// only fails when the context is cancelled or no coin received a series.
func (c *Collector) Collect(ctx context.Context) (*model.Batch, error) {
	capturedAt := c.now().UTC()
	ids := make([]string, len(c.Coins))
	for i, coin := range c.Coins {
		ids[i] = coin.ID
	}

	var (
		quotes    map[string]model.MarketSnapshot
		global    *model.GlobalMetrics
		fgValue   int
		fgLabel   string
		fgOK      bool
		histories = make([][]model.PricePoint, len(c.Coins))
		feeds     = make([][]model.Video, len(c.Channels))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Sources.Concurrency)

	g.Go(func() error {
		q, err := c.Fetcher.FetchQuotes(gctx, ids)
		if err != nil {
			c.fail("coingecko", err)
			return nil
		}
		quotes = q
		return nil
	})
	g.Go(func() error {
		gm, err := c.Fetcher.FetchGlobal(gctx)
		if err != nil {
			c.fail("coingecko_global", err)
			return nil
		}
		global = gm
		return nil
	})
	g.Go(func() error {
		v, label, err := c.Fetcher.FetchFearGreed(gctx)
		if err != nil {
			c.fail("fear_greed", err)
			return nil
		}
		fgValue, fgLabel, fgOK = v, label, true
		return nil
	})
	for i, coin := range c.Coins {
		i, coin := i, coin
		g.Go(func() error {
			ticker := coin.Ticker
			if ticker == "" {
				ticker = coin.Symbol + "-USD"
			}
			points, err := c.Fetcher.FetchDailyCloses(gctx, ticker, c.Sources.HistoryDays)
			if err != nil {
				c.fail("yahoo", err, zap.String("coin", coin.ID))
				return nil
			}
			histories[i] = points
			return nil
		})
	}
	for i, ch := range c.Channels {
		i, ch := i, ch
		g.Go(func() error {
			videos, err := c.Fetcher.FetchChannelVideos(gctx, ch.ID)
			if err != nil {
				c.fail("youtube", err, zap.String("channel", ch.Name))
				return nil
			}
			for j := range videos {
				if videos[j].Channel == "" {
					videos[j].Channel = ch.Name
				}
			}
			feeds[i] = recent(videos, capturedAt, c.Sources.VideoWindowDays)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "collect")
	}

	if fgOK {
		if global == nil {
			global = &model.GlobalMetrics{}
		}
		global.FearGreed = fgValue
		global.FearGreedLabel = fgLabel
	}

	batch := &model.Batch{
		CapturedAt: capturedAt,
		Global:     global,
		Coins:      make([]model.CoinInput, 0, len(c.Coins)),
		Videos:     make(map[string][]model.Video, len(c.Channels)),
	}
	var allVideos []model.Video
	for i, ch := range c.Channels {
		if feeds[i] == nil {
			continue
		}
		batch.Videos[ch.Name] = feeds[i]
		allVideos = append(allVideos, feeds[i]...)
	}

	withSeries := 0
	for i, coin := range c.Coins {
		in := model.CoinInput{ID: coin.ID, Symbol: coin.Symbol}
		if q, ok := quotes[coin.ID]; ok {
			q.Symbol = coin.Symbol
			q.CapturedAt = capturedAt
			in.Snapshot = &q
		}
		if len(histories[i]) > 0 {
			in.Series = &model.PriceSeries{Coin: coin.ID, Points: histories[i]}
			withSeries++
		}
		if fgOK {
			v := float64(fgValue)
			in.Sentiment = &v
		}
		in.Social = SocialSignalFor(coin, allVideos, capturedAt, c.Sources.VideoWindowDays)
		batch.Coins = append(batch.Coins, in)
	}

	c.logger.Info("collection complete",
		zap.Int("coins", len(batch.Coins)),
		zap.Int("with_series", withSeries),
		zap.Int("videos", len(allVideos)),
		zap.Bool("fear_greed", fgOK),
	)
	if withSeries == 0 && len(c.Coins) > 0 {
		return batch, errors.Wrap(model.ErrMissingData, "collect: no price history for any coin")
	}
	return batch, nil
}

func (c *Collector) fail(source string, err error, fields ...zap.Field) {
	c.metrics.ObserveFetchError(source)
	c.logger.Warn("source unavailable", append(fields, zap.String("source", source), zap.Error(err))...)
}

// recent keeps the videos published within the window, newest first.
func recent(videos []model.Video, now time.Time, windowDays int) []model.Video {
	cutoff := now.AddDate(0, 0, -windowDays)
	out := make([]model.Video, 0, len(videos))
	for _, v := range videos {
		if !v.Published.Before(cutoff) {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Published.After(out[j].Published) })
	return out
}

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price     float64
	FearGreed int
	Closes    map[string][]model.PricePoint
	Videos    map[string][]model.Video
	Err       error
	Now       time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchQuotes(_ context.Context, ids []string) (map[string]model.MarketSnapshot, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make(map[string]model.MarketSnapshot, len(ids))
	for i, id := range ids {
		out[id] = model.MarketSnapshot{Coin: id, Price: m.Price * float64(i+1), MarketCap: m.Price * 1e6 * float64(len(ids)-i)}
	}
	return out, nil
}

func (m *MockFetcher) FetchGlobal(_ context.Context) (*model.GlobalMetrics, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &model.GlobalMetrics{BTCDominance: 52.1, TotalMarketCap: 2.4e12}, nil
}

func (m *MockFetcher) FetchFearGreed(_ context.Context) (int, string, error) {
	if m.Err != nil {
		return 0, "", m.Err
	}
	return m.FearGreed, "Neutral", nil
}

func (m *MockFetcher) FetchDailyCloses(_ context.Context, ticker string, days int) ([]model.PricePoint, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if pts, ok := m.Closes[ticker]; ok {
		return pts, nil
	}
	return generateMockCloses(m.Price, days, m.end()), nil
}

func (m *MockFetcher) FetchChannelVideos(_ context.Context, channelID string) ([]model.Video, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Videos[channelID], nil
}

func (m *MockFetcher) end() time.Time {
	if m.Now.IsZero() {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return m.Now
}

func generateMockCloses(basePrice float64, count int, end time.Time) []model.PricePoint {
	points := make([]model.PricePoint, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001 + float64(i%9)*0.002)
		points[i] = model.PricePoint{
			Time:  end.AddDate(0, 0, -(count - i)),
			Close: p,
		}
	}
	return points
}
