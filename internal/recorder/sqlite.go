package recorder

import (
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"CryptoSentinel/internal/model"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "create db dir")
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	// WAL mode so dashboards can read while a run is written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id              TEXT PRIMARY KEY,
			timestamp       INTEGER NOT NULL,
			portfolio_risk  REAL,
			recommendation  TEXT,
			weighting       TEXT,
			scored          INTEGER,
			skipped         INTEGER,
			fear_greed      INTEGER,
			btc_dominance   REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS coin_scores (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id          TEXT NOT NULL,
			timestamp       INTEGER NOT NULL,
			coin            TEXT NOT NULL,
			risk            REAL,
			recommendation  TEXT,
			sentiment_score REAL,
			technical_score REAL,
			cycle_score     REAL,
			social_score    REAL,
			price           REAL,
			momentum        REAL,
			band_position   REAL,
			cycle_position  REAL,
			market_cap      REAL,
			portfolio_rank  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_coin_ts ON coin_scores(coin, timestamp)`,

		`CREATE TABLE IF NOT EXISTS skipped_coins (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			coin      TEXT NOT NULL,
			reason    TEXT
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return errors.Wrapf(err, "exec %q", s[:40])
		}
	}
	return nil
}

func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// RecordRun stores the run summary, every coin score and every skipped coin
// in one transaction.
func (r *SQLiteRecorder) RecordRun(run *model.Run) error {
	if run == nil || run.Report == nil {
		return errors.Errorf("record run: empty run")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rep := run.Report
	ts := run.GeneratedAt.Unix()

	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	var fearGreed interface{}
	var dominance interface{}
	if rep.Global != nil {
		fearGreed = rep.Global.FearGreed
		dominance = rep.Global.BTCDominance
	}
	if _, err := tx.Exec(`INSERT INTO runs
		(id, timestamp, portfolio_risk, recommendation, weighting, scored, skipped, fear_greed, btc_dominance)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		run.ID, ts, rep.Portfolio.Risk, string(rep.Portfolio.Recommendation), rep.Portfolio.Weighting,
		len(rep.Coins), len(rep.Skipped), fearGreed, dominance,
	); err != nil {
		return errors.Wrap(err, "insert run")
	}

	rank := make(map[string]int, len(rep.Portfolio.Ranking))
	for i, e := range rep.Portfolio.Ranking {
		rank[e.ID] = i + 1
	}
	ids := make([]string, 0, len(rep.Coins))
	for id := range rep.Coins {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		c := rep.Coins[id]
		if _, err := tx.Exec(`INSERT INTO coin_scores
			(run_id, timestamp, coin, risk, recommendation,
			 sentiment_score, technical_score, cycle_score, social_score,
			 price, momentum, band_position, cycle_position, market_cap, portfolio_rank)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			run.ID, ts, id, c.Risk, string(c.Recommendation),
			c.SubScores.Sentiment, c.SubScores.Technical, c.SubScores.Cycle, c.SubScores.Social,
			c.Indicators.Price, nullable(c.Indicators.Momentum), nullable(c.Indicators.BandPosition),
			nullable(c.Indicators.CyclePosition), c.MarketCap, rank[id],
		); err != nil {
			return errors.Wrapf(err, "insert score %s", id)
		}
	}

	for _, s := range rep.Skipped {
		if _, err := tx.Exec(`INSERT INTO skipped_coins (run_id, timestamp, coin, reason) VALUES (?,?,?,?)`,
			run.ID, ts, s.ID, s.Reason,
		); err != nil {
			return errors.Wrapf(err, "insert skipped %s", s.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	return nil
}

// CoinHistory returns the most recent scores of a coin, newest first.
func (r *SQLiteRecorder) CoinHistory(coin string, limit int) ([]HistoryPoint, error) {
	if limit <= 0 {
		limit = 30
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT run_id, timestamp, risk, recommendation
		FROM coin_scores WHERE coin = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, coin, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query history")
	}
	defer rows.Close()

	var out []HistoryPoint
	for rows.Next() {
		var (
			p   HistoryPoint
			ts  int64
			rec string
		)
		if err := rows.Scan(&p.RunID, &ts, &p.Risk, &rec); err != nil {
			return nil, errors.Wrap(err, "scan history")
		}
		p.GeneratedAt = time.Unix(ts, 0).UTC()
		p.Recommendation = model.Recommendation(rec)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
