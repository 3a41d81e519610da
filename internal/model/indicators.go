package model

// TrendDivergence is the fast/slow EMA spread with its signal line.
type TrendDivergence struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// FibonacciLevel is the retracement level nearest to the current price.
type FibonacciLevel struct {
	Ratio     float64 `json:"ratio"`
	Level     float64 `json:"level"`
	Distance  float64 `json:"distance"` // (price - level) / (high - low)
	SwingHigh float64 `json:"swing_high"`
	SwingLow  float64 `json:"swing_low"`
}

// IndicatorSet holds the technical readings derived from one price series.
// A nil field means the series was too short (or flat) for that indicator.
type IndicatorSet struct {
	Price         float64          `json:"price"`
	Momentum      *float64         `json:"momentum"`
	Trend         *TrendDivergence `json:"trend"`
	BandPosition  *float64         `json:"band_position"` // 0 = lower band, 1 = upper band
	Fibonacci     *FibonacciLevel  `json:"fibonacci"`
	CyclePosition *float64         `json:"cycle_position"` // 0 = swing low, 1 = swing high
	Warnings      []string         `json:"warnings,omitempty"`
}
