package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"CryptoSentinel/internal/model"
)

type geckoQuote struct {
	USD          float64 `json:"usd"`
	USDMarketCap float64 `json:"usd_market_cap"`
	USD24hChange float64 `json:"usd_24h_change"`
}

type geckoGlobal struct {
	Data struct {
		MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
		TotalMarketCap      map[string]float64 `json:"total_market_cap"`
	} `json:"data"`
}

type fearGreedResponse struct {
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
	} `json:"data"`
}

// FetchQuotes returns price, market cap and 24h change for the given
// CoinGecko ids. Ids the API does not know are absent from the result.
func (f *HTTPFetcher) FetchQuotes(ctx context.Context, ids []string) (map[string]model.MarketSnapshot, error) {
	resp, err := f.coingecko.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":                 strings.Join(ids, ","),
			"vs_currencies":       "usd",
			"include_market_cap":  "true",
			"include_24hr_change": "true",
		}).
		Get("/simple/price")
	if err != nil {
		return nil, errors.Wrap(err, "coingecko quotes")
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, errors.Errorf("coingecko quotes: status %d, body: %s", resp.StatusCode(), resp.String())
	}

	var raw map[string]geckoQuote
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, errors.Wrap(err, "coingecko quotes decode")
	}
	out := make(map[string]model.MarketSnapshot, len(raw))
	for id, q := range raw {
		out[id] = model.MarketSnapshot{
			Coin:      id,
			Price:     q.USD,
			Change24h: q.USD24hChange,
			MarketCap: q.USDMarketCap,
		}
	}
	return out, nil
}

// FetchGlobal returns BTC dominance and total market cap.
func (f *HTTPFetcher) FetchGlobal(ctx context.Context) (*model.GlobalMetrics, error) {
	resp, err := f.coingecko.R().SetContext(ctx).Get("/global")
	if err != nil {
		return nil, errors.Wrap(err, "coingecko global")
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, errors.Errorf("coingecko global: status %d", resp.StatusCode())
	}

	var g geckoGlobal
	if err := json.Unmarshal(resp.Body(), &g); err != nil {
		return nil, errors.Wrap(err, "coingecko global decode")
	}
	return &model.GlobalMetrics{
		BTCDominance:   g.Data.MarketCapPercentage["btc"],
		TotalMarketCap: g.Data.TotalMarketCap["usd"],
	}, nil
}

// FetchFearGreed returns the latest Fear & Greed index and its label.
func (f *HTTPFetcher) FetchFearGreed(ctx context.Context) (int, string, error) {
	resp, err := f.feargreed.R().
		SetContext(ctx).
		SetQueryParam("limit", "1").
		Get("/fng/")
	if err != nil {
		return 0, "", errors.Wrap(err, "fear greed")
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, "", errors.Errorf("fear greed: status %d", resp.StatusCode())
	}

	var fg fearGreedResponse
	if err := json.Unmarshal(resp.Body(), &fg); err != nil {
		return 0, "", errors.Wrap(err, "fear greed decode")
	}
	if len(fg.Data) == 0 {
		return 0, "", errors.Errorf("fear greed: empty response")
	}
	v, err := strconv.Atoi(fg.Data[0].Value)
	if err != nil {
		return 0, "", errors.Wrapf(err, "fear greed value %q", fg.Data[0].Value)
	}
	return v, fg.Data[0].ValueClassification, nil
}
