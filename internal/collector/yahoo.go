package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/pkg/errors"

	"CryptoSentinel/internal/model"
)

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func yahooRange(days int) string {
	switch {
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	default:
		return "2y"
	}
}

// FetchDailyCloses returns up to days daily closes for a Yahoo ticker,
// ascending by time. Null closes and repeated days are dropped.
func (f *HTTPFetcher) FetchDailyCloses(ctx context.Context, ticker string, days int) ([]model.PricePoint, error) {
	resp, err := f.yahoo.R().
		SetContext(ctx).
		SetPathParam("ticker", ticker).
		SetQueryParams(map[string]string{
			"interval": "1d",
			"range":    yahooRange(days),
		}).
		Get("/v8/finance/chart/{ticker}")
	if err != nil {
		return nil, errors.Wrapf(err, "yahoo fetch %s", ticker)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, errors.Errorf("yahoo %s: status %d, body: %s", ticker, resp.StatusCode(), resp.String())
	}

	var chart yahooChart
	if err := json.Unmarshal(resp.Body(), &chart); err != nil {
		return nil, errors.Wrapf(err, "yahoo decode %s", ticker)
	}
	if chart.Chart.Error != nil {
		return nil, errors.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, errors.Errorf("yahoo %s: no data returned", ticker)
	}

	result := chart.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	points := make([]model.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		points = append(points, model.PricePoint{Time: time.Unix(ts, 0).UTC(), Close: *closes[i]})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	points = dedupeDays(points)
	if len(points) > days {
		points = points[len(points)-days:]
	}
	return points, nil
}

// dedupeDays keeps the last point of each calendar day. Yahoo appends the
// live quote as an extra point on the current day.
func dedupeDays(points []model.PricePoint) []model.PricePoint {
	out := points[:0]
	for _, p := range points {
		if n := len(out); n > 0 && sameDay(out[n-1].Time, p.Time) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
