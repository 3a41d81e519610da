package model

import (
	"strings"
	"time"
)

// Recommendation is the discrete action derived from a risk score.
type Recommendation string

const (
	StrongBuy  Recommendation = "STRONG_BUY"
	Buy        Recommendation = "BUY"
	Hold       Recommendation = "HOLD"
	Sell       Recommendation = "SELL"
	StrongSell Recommendation = "STRONG_SELL"
)

var recommendationRank = map[Recommendation]int{
	StrongBuy:  0,
	Buy:        1,
	Hold:       2,
	Sell:       3,
	StrongSell: 4,
}

// Rank orders recommendations by risk: STRONG_BUY is 0, STRONG_SELL is 4.
// Unknown labels rank -1.
func (r Recommendation) Rank() int {
	if rank, ok := recommendationRank[r]; ok {
		return rank
	}
	return -1
}

// Valid reports whether r is a known label.
func (r Recommendation) Valid() bool { return r.Rank() >= 0 }

// ParseRecommendation normalizes user-supplied labels ("strong buy", "Sell").
func ParseRecommendation(s string) Recommendation {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return Recommendation(s)
}

// Sub-score names, used as factor names and weight keys.
const (
	FactorSentiment = "sentiment"
	FactorTechnical = "technical"
	FactorCycle     = "cycle"
	FactorSocial    = "social"
)

// SubScores are the four normalized risk contributions, each in [0,100].
type SubScores struct {
	Sentiment float64 `json:"sentiment"`
	Technical float64 `json:"technical"`
	Cycle     float64 `json:"cycle"`
	Social    float64 `json:"social"`
}

// FactorScore explains one sub-score's contribution to the composite.
type FactorScore struct {
	Name       string  `json:"name"`
	RawScore   float64 `json:"raw_score"`
	Weight     float64 `json:"weight"`
	Weighted   float64 `json:"weighted"`
	Commentary string  `json:"commentary"`
}

// CoinResult is the engine output for one coin.
type CoinResult struct {
	ID             string         `json:"id"`
	Symbol         string         `json:"symbol"`
	Risk           float64        `json:"risk"`
	Recommendation Recommendation `json:"recommendation"`
	Price          float64        `json:"price"`
	Indicators     IndicatorSet   `json:"indicators"`
	SubScores      SubScores      `json:"sub_scores"`
	Factors        []FactorScore  `json:"factors"`
	MarketCap      float64        `json:"market_cap"`
}

// PortfolioEntry is one coin's line in the portfolio ranking.
type PortfolioEntry struct {
	ID             string         `json:"id"`
	Risk           float64        `json:"risk"`
	Recommendation Recommendation `json:"recommendation"`
	MarketCap      float64        `json:"market_cap,omitempty"`
	Weight         float64        `json:"weight"`
}

// PortfolioSummary is the rollup over all scored coins.
type PortfolioSummary struct {
	Risk           float64          `json:"risk"`
	Recommendation Recommendation   `json:"recommendation"`
	Weighting      string           `json:"weighting"`
	Ranking        []PortfolioEntry `json:"ranking"`
}

// SkippedCoin annotates a coin excluded from scoring.
type SkippedCoin struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Report is the complete, deterministic output of one analysis pass.
type Report struct {
	Coins     map[string]CoinResult `json:"coins"`
	Portfolio PortfolioSummary      `json:"portfolio"`
	Skipped   []SkippedCoin         `json:"skipped,omitempty"`
	Global    *GlobalMetrics        `json:"global,omitempty"`
}

// Run wraps a report with the identity of the run that produced it.
type Run struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`
	Report      *Report   `json:"report"`
}
