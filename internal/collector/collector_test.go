package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoSentinel/internal/config"
	"CryptoSentinel/internal/model"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <author><name>Benjamin Cowen</name></author>
  <entry>
    <title>Bitcoin: the halving is in</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=a1"/>
    <published>2024-05-30T12:00:00+00:00</published>
  </entry>
  <entry>
    <title>Why ETH dominance matters</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=a2"/>
    <published>2024-05-31T12:00:00+00:00</published>
  </entry>
  <entry>
    <title>Broken date</title>
    <published>yesterday</published>
  </entry>
</feed>`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/simple/price", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bitcoin,ethereum", r.URL.Query().Get("ids"))
		assert.Equal(t, "demo-key", r.Header.Get("x-cg-demo-api-key"))
		fmt.Fprint(w, `{"bitcoin":{"usd":67000.5,"usd_market_cap":1.3e12,"usd_24h_change":-1.25},
			"ethereum":{"usd":3500,"usd_market_cap":4.2e11,"usd_24h_change":2.5}}`)
	})
	mux.HandleFunc("/global", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"market_cap_percentage":{"btc":54.3,"eth":17.1},"total_market_cap":{"usd":2.5e12}}}`)
	})
	mux.HandleFunc("/fng/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"value":"23","value_classification":"Extreme Fear"}]}`)
	})
	mux.HandleFunc("/v8/finance/chart/BTC-USD", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		// third point is null, fourth repeats the third day with a live quote
		fmt.Fprint(w, `{"chart":{"result":[{"timestamp":[1704067200,1704153600,1704240000,1704280000],
			"indicators":{"quote":[{"close":[42000.0,43000.0,null,44000.0]}]}}],"error":null}}`)
	})
	mux.HandleFunc("/v8/finance/chart/NOPE-USD", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	})
	mux.HandleFunc("/feeds/videos.xml", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "UC123", r.URL.Query().Get("channel_id"))
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, feedXML)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestFetcher(srv *httptest.Server) *HTTPFetcher {
	return NewHTTPFetcher(config.SourcesConfig{
		CoinGeckoURL:    srv.URL,
		CoinGeckoAPIKey: "demo-key",
		FearGreedURL:    srv.URL,
		YahooURL:        srv.URL,
		YouTubeFeedURL:  srv.URL,
		MaxVideos:       50,
		Timeout:         5 * time.Second,
	}, "")
}

func TestHTTPFetcher_Quotes(t *testing.T) {
	f := newTestFetcher(newTestServer(t))
	quotes, err := f.FetchQuotes(context.Background(), []string{"bitcoin", "ethereum"})
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, 67000.5, quotes["bitcoin"].Price)
	assert.Equal(t, 1.3e12, quotes["bitcoin"].MarketCap)
	assert.Equal(t, -1.25, quotes["bitcoin"].Change24h)
}

func TestHTTPFetcher_GlobalAndFearGreed(t *testing.T) {
	f := newTestFetcher(newTestServer(t))

	g, err := f.FetchGlobal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 54.3, g.BTCDominance)
	assert.Equal(t, 2.5e12, g.TotalMarketCap)

	v, label, err := f.FetchFearGreed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 23, v)
	assert.Equal(t, "Extreme Fear", label)
}

func TestHTTPFetcher_DailyCloses(t *testing.T) {
	f := newTestFetcher(newTestServer(t))

	points, err := f.FetchDailyCloses(context.Background(), "BTC-USD", 365)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, []float64{42000, 43000, 44000}, (&model.PriceSeries{Points: points}).Closes())
	assert.NoError(t, (&model.PriceSeries{Points: points}).Validate())

	trimmed, err := f.FetchDailyCloses(context.Background(), "BTC-USD", 2)
	require.NoError(t, err)
	assert.Len(t, trimmed, 2)
	assert.Equal(t, 44000.0, trimmed[1].Close)

	_, err = f.FetchDailyCloses(context.Background(), "NOPE-USD", 365)
	assert.Error(t, err)
}

func TestHTTPFetcher_ChannelVideos(t *testing.T) {
	f := newTestFetcher(newTestServer(t))
	videos, err := f.FetchChannelVideos(context.Background(), "UC123")
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "Why ETH dominance matters", videos[0].Title, "newest first")
	assert.Equal(t, "Benjamin Cowen", videos[0].Channel)
	assert.Equal(t, "https://www.youtube.com/watch?v=a1", videos[1].Link)

	f.maxVideos = 1
	videos, err = f.FetchChannelVideos(context.Background(), "UC123")
	require.NoError(t, err)
	assert.Len(t, videos, 1)
}

func TestSocialSignalFor(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	coin := config.CoinConfig{ID: "ethereum", Symbol: "ETH", Aliases: []string{"ether"}}
	videos := []model.Video{
		{Title: "ETH to 10k?", Published: now.AddDate(0, 0, -2)},
		{Title: "Ether season", Published: now.AddDate(0, 0, -5)},
		{Title: "Tether news", Published: now.AddDate(0, 0, -1)},
		{Title: "Ethereum in 2021", Published: now.AddDate(0, 0, -60)},
		{Title: "Bitcoin only", Published: now.AddDate(0, 0, -1)},
	}

	got := SocialSignalFor(coin, videos, now, 30)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Mentions)
	assert.InDelta(t, 2.0, got.DaysSinceLatest, 1e-9)

	none := SocialSignalFor(config.CoinConfig{ID: "cardano", Symbol: "ADA"}, videos, now, 30)
	require.NotNil(t, none)
	assert.Zero(t, none.Mentions)

	assert.Nil(t, SocialSignalFor(coin, nil, now, 30))
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Coins = []config.CoinConfig{
		{ID: "bitcoin", Symbol: "BTC", Ticker: "BTC-USD", Aliases: []string{"bitcoin"}},
		{ID: "ethereum", Symbol: "ETH", Ticker: "ETH-USD"},
	}
	cfg.Channels = []config.ChannelConfig{{Name: "Analyst", ID: "UC1"}}
	return cfg
}

func TestCollector_CollectMock(t *testing.T) {
	now := time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC)
	mock := &MockFetcher{
		Price:     100,
		FearGreed: 72,
		Now:       now,
		Videos: map[string][]model.Video{
			"UC1": {
				{Title: "BTC breakout", Published: now.AddDate(0, 0, -1)},
				{Title: "Old bitcoin take", Published: now.AddDate(0, 0, -90)},
			},
		},
	}
	c := NewCollector(mock, testConfig(), nil, nil)
	c.now = func() time.Time { return now }

	batch, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, now, batch.CapturedAt)
	require.Len(t, batch.Coins, 2)
	assert.Equal(t, "bitcoin", batch.Coins[0].ID)
	assert.Equal(t, 365, batch.Coins[0].Series.Len())
	require.NotNil(t, batch.Coins[0].Sentiment)
	assert.Equal(t, 72.0, *batch.Coins[0].Sentiment)
	assert.Equal(t, "BTC", batch.Coins[0].Snapshot.Symbol)

	assert.Equal(t, 1, batch.Coins[0].Social.Mentions)
	assert.Zero(t, batch.Coins[1].Social.Mentions)
	assert.Len(t, batch.Videos["Analyst"], 1, "videos outside the window are dropped")

	require.NotNil(t, batch.Global)
	assert.Equal(t, 72, batch.Global.FearGreed)
	assert.Equal(t, 52.1, batch.Global.BTCDominance)
}

// flakyFetcher fails history for one ticker and the sentiment feed.
type flakyFetcher struct {
	MockFetcher
	badTicker string
}

func (f *flakyFetcher) FetchDailyCloses(ctx context.Context, ticker string, days int) ([]model.PricePoint, error) {
	if ticker == f.badTicker {
		return nil, errors.Errorf("yahoo %s: status 404", ticker)
	}
	return f.MockFetcher.FetchDailyCloses(ctx, ticker, days)
}

func (f *flakyFetcher) FetchFearGreed(context.Context) (int, string, error) {
	return 0, "", errors.Errorf("fear greed: status 503")
}

func TestCollector_DegradesFailingSources(t *testing.T) {
	c := NewCollector(&flakyFetcher{MockFetcher: MockFetcher{Price: 10}, badTicker: "ETH-USD"}, testConfig(), nil, nil)

	batch, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, batch.Coins[0].Series)
	assert.Nil(t, batch.Coins[1].Series)
	assert.Nil(t, batch.Coins[0].Sentiment)
	assert.Nil(t, batch.Coins[0].Social, "no feed data at all")
}

func TestCollector_NoHistoryAnywhere(t *testing.T) {
	c := NewCollector(&MockFetcher{Err: errors.Errorf("offline")}, testConfig(), nil, nil)
	batch, err := c.Collect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrMissingData))
	assert.Len(t, batch.Coins, 2)
}

func TestCollector_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewCollector(&MockFetcher{Price: 10}, testConfig(), nil, nil)
	_, err := c.Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
