package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoSentinel/internal/model"
)

func sampleRun(id string, at time.Time, btcRisk float64) *model.Run {
	rsi := 41.0
	return &model.Run{
		ID:          id,
		GeneratedAt: at,
		Report: &model.Report{
			Coins: map[string]model.CoinResult{
				"bitcoin": {
					ID: "bitcoin", Risk: btcRisk, Recommendation: model.Hold,
					Indicators: model.IndicatorSet{Price: 67000, Momentum: &rsi},
					SubScores:  model.SubScores{Sentiment: 40, Technical: 45, Cycle: 60, Social: 50},
				},
				"ethereum": {ID: "ethereum", Risk: 30, Recommendation: model.Buy},
			},
			Portfolio: model.PortfolioSummary{
				Risk: 40, Recommendation: model.Hold, Weighting: "equal",
				Ranking: []model.PortfolioEntry{{ID: "ethereum", Risk: 30}, {ID: "bitcoin", Risk: btcRisk}},
			},
			Skipped: []model.SkippedCoin{{ID: "vechain", Reason: "missing data"}},
			Global:  &model.GlobalMetrics{FearGreed: 44, BTCDominance: 54},
		},
	}
}

func TestSQLiteRecorder_RecordAndHistory(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "db", "history.db"), nil)
	require.NoError(t, err)
	defer r.Close()

	day := time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC)
	require.NoError(t, r.RecordRun(sampleRun("run-1", day, 50)))
	require.NoError(t, r.RecordRun(sampleRun("run-2", day.AddDate(0, 0, 1), 62.5)))

	hist, err := r.CoinHistory("bitcoin", 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "run-2", hist[0].RunID)
	assert.Equal(t, 62.5, hist[0].Risk)
	assert.Equal(t, model.Hold, hist[0].Recommendation)
	assert.Equal(t, day.AddDate(0, 0, 1), hist[0].GeneratedAt)

	hist, err = r.CoinHistory("bitcoin", 1)
	require.NoError(t, err)
	assert.Len(t, hist, 1)

	var skipped int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM skipped_coins`).Scan(&skipped))
	assert.Equal(t, 2, skipped)

	var rank int
	require.NoError(t, r.db.QueryRow(`SELECT portfolio_rank FROM coin_scores WHERE run_id = 'run-1' AND coin = 'ethereum'`).Scan(&rank))
	assert.Equal(t, 1, rank)
}

func TestSQLiteRecorder_DuplicateRunRollsBack(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)
	defer r.Close()

	run := sampleRun("same", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 50)
	require.NoError(t, r.RecordRun(run))
	assert.Error(t, r.RecordRun(run))

	var scores int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM coin_scores`).Scan(&scores))
	assert.Equal(t, 2, scores)
}

func TestSQLiteRecorder_RejectsEmptyRun(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)
	defer r.Close()

	assert.Error(t, r.RecordRun(nil))
	assert.Error(t, r.RecordRun(&model.Run{ID: "x"}))
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordRun(nil))
	hist, err := r.CoinHistory("bitcoin", 5)
	assert.NoError(t, err)
	assert.Empty(t, hist)
	assert.NoError(t, r.Close())
}
