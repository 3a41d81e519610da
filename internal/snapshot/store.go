package snapshot

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"CryptoSentinel/internal/model"
)

// Store keeps the latest run in memory and mirrors batches and runs to disk.
// It is safe for concurrent use by the scheduler and the HTTP server.
type Store struct {
	mu           sync.RWMutex
	latest       *model.Run
	dataFile     string
	analysisFile string
}

// NewStore creates a Store, loading the previous run from analysisFile if present.
func NewStore(dataFile, analysisFile string) (*Store, error) {
	run, err := LoadRun(analysisFile)
	if err != nil {
		return nil, err
	}
	return &Store{latest: run, dataFile: dataFile, analysisFile: analysisFile}, nil
}

// DataFile returns the batch snapshot path.
func (s *Store) DataFile() string { return s.dataFile }

// SaveBatch persists the collected batch.
func (s *Store) SaveBatch(batch *model.Batch) error {
	return SaveBatch(s.dataFile, batch)
}

// LoadBatch reads back the last persisted batch.
func (s *Store) LoadBatch() (*model.Batch, error) {
	return LoadBatch(s.dataFile)
}

// Publish wraps a report in a new run, persists it and makes it the latest.
func (s *Store) Publish(report *model.Report, at time.Time) (*model.Run, error) {
	run := &model.Run{
		ID:          uuid.New().String(),
		GeneratedAt: at.UTC(),
		Report:      report,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := SaveRun(s.analysisFile, run); err != nil {
		return nil, err
	}
	s.latest = run
	return run, nil
}

// Latest returns the most recent run, or nil before the first one.
func (s *Store) Latest() *model.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}
