package model

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// PricePoint is a single daily close.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Close float64   `json:"close"`
}

// PriceSeries holds the close history of one coin, ascending by time.
type PriceSeries struct {
	Coin   string       `json:"coin"`
	Points []PricePoint `json:"points"`
}

// Len returns the number of points in the series.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// Closes extracts the close prices in series order.
func (s *PriceSeries) Closes() []float64 {
	if s == nil {
		return nil
	}
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// Last returns the most recent close, or 0 for an empty series.
func (s *PriceSeries) Last() float64 {
	if s.Len() == 0 {
		return 0
	}
	return s.Points[len(s.Points)-1].Close
}

// Validate checks ordering, uniqueness and that every close is finite and positive.
func (s *PriceSeries) Validate() error {
	if s.Len() == 0 {
		return errors.Wrap(ErrMissingData, "empty price series")
	}
	for i, p := range s.Points {
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) {
			return errors.Wrapf(ErrInvalidData, "non-finite close at index %d", i)
		}
		if p.Close <= 0 {
			return errors.Wrapf(ErrInvalidData, "non-positive close %.8f at index %d", p.Close, i)
		}
		if i == 0 {
			continue
		}
		prev := s.Points[i-1].Time
		if p.Time.Equal(prev) {
			return errors.Wrapf(ErrInvalidData, "duplicate timestamp %s", p.Time.Format(time.RFC3339))
		}
		if p.Time.Before(prev) {
			return errors.Wrapf(ErrInvalidData, "series not ascending at index %d", i)
		}
	}
	return nil
}

// MarketSnapshot is the per-coin quote captured once per collection run.
type MarketSnapshot struct {
	Coin       string    `json:"coin"`
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	Change24h  float64   `json:"change_24h"`
	MarketCap  float64   `json:"market_cap"`
	CapturedAt time.Time `json:"captured_at"`
}

// SocialSignal summarizes analyst content mentioning a coin.
type SocialSignal struct {
	Mentions        int     `json:"mentions"`
	DaysSinceLatest float64 `json:"days_since_latest"`
}

// CoinInput is everything the engine needs for one coin. All signals except
// the identifier are optional.
type CoinInput struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Snapshot  *MarketSnapshot `json:"snapshot,omitempty"`
	Series    *PriceSeries    `json:"series,omitempty"`
	Sentiment *float64        `json:"sentiment,omitempty"`
	Cycle     *float64        `json:"cycle,omitempty"`
	Social    *SocialSignal   `json:"social,omitempty"`
}

// CurrentPrice prefers the snapshot quote and falls back to the last close.
func (c *CoinInput) CurrentPrice() float64 {
	if c.Snapshot != nil && c.Snapshot.Price > 0 {
		return c.Snapshot.Price
	}
	return c.Series.Last()
}

// MarketCap returns the snapshot market cap, or 0 when unknown.
func (c *CoinInput) MarketCap() float64 {
	if c.Snapshot == nil {
		return 0
	}
	return c.Snapshot.MarketCap
}

// GlobalMetrics holds market-wide observations.
type GlobalMetrics struct {
	BTCDominance   float64 `json:"btc_dominance"`
	TotalMarketCap float64 `json:"total_market_cap"`
	FearGreed      int     `json:"fear_greed_index"`
	FearGreedLabel string  `json:"sentiment_classification"`
}

// Video is one analyst upload from a channel feed.
type Video struct {
	Channel   string    `json:"channel"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Published time.Time `json:"published"`
}

// Batch is one collection run: the complete, materialized engine input.
type Batch struct {
	CapturedAt time.Time          `json:"captured_at"`
	Global     *GlobalMetrics     `json:"global,omitempty"`
	Coins      []CoinInput        `json:"coins"`
	Videos     map[string][]Video `json:"videos,omitempty"`
}
