package collector

import (
	"time"

	"github.com/go-resty/resty/v2"

	"CryptoSentinel/internal/config"
)

const userAgent = "Mozilla/5.0 (compatible; CryptoSentinel/1.0)"

// HTTPFetcher implements Fetcher against the public CoinGecko,
// alternative.me, Yahoo Finance and YouTube endpoints.
type HTTPFetcher struct {
	coingecko *resty.Client
	feargreed *resty.Client
	yahoo     *resty.Client
	youtube   *resty.Client

	maxVideos int
}

// NewHTTPFetcher builds one resty client per source with the shared timeout
// and optional proxy.
func NewHTTPFetcher(src config.SourcesConfig, proxyURL string) *HTTPFetcher {
	newClient := func(base string) *resty.Client {
		c := resty.New()
		c.SetBaseURL(base)
		c.SetTimeout(src.Timeout)
		c.SetHeader("User-Agent", userAgent)
		c.SetRetryCount(2)
		c.SetRetryWaitTime(500 * time.Millisecond)
		if proxyURL != "" {
			c.SetProxy(proxyURL)
		}
		return c
	}

	f := &HTTPFetcher{
		coingecko: newClient(src.CoinGeckoURL),
		feargreed: newClient(src.FearGreedURL),
		yahoo:     newClient(src.YahooURL),
		youtube:   newClient(src.YouTubeFeedURL),
		maxVideos: src.MaxVideos,
	}
	if src.CoinGeckoAPIKey != "" {
		f.coingecko.SetHeader("x-cg-demo-api-key", src.CoinGeckoAPIKey)
	}
	return f
}

func (f *HTTPFetcher) Name() string { return "http" }
