package recorder

import (
	"time"

	"CryptoSentinel/internal/model"
)

// HistoryPoint is one past score of a coin.
type HistoryPoint struct {
	RunID          string               `json:"run_id"`
	GeneratedAt    time.Time            `json:"generated_at"`
	Risk           float64              `json:"risk"`
	Recommendation model.Recommendation `json:"recommendation"`
}

// Recorder persists historical runs for later analysis.
type Recorder interface {
	RecordRun(run *model.Run) error
	CoinHistory(coin string, limit int) ([]HistoryPoint, error)
	Close() error
}
