package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"CryptoSentinel/internal/model"
)

// LoadBatch reads a collected batch from a JSON file.
func LoadBatch(path string) (*model.Batch, error) {
	var batch model.Batch
	if err := readJSON(path, &batch); err != nil {
		return nil, errors.Wrap(err, "load batch")
	}
	return &batch, nil
}

// SaveBatch writes a collected batch to a JSON file.
func SaveBatch(path string, batch *model.Batch) error {
	return errors.Wrap(writeJSON(path, batch), "save batch")
}

// LoadRun reads an analysis run. A missing file yields (nil, nil).
func LoadRun(path string) (*model.Run, error) {
	var run model.Run
	if err := readJSON(path, &run); err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "load run")
	}
	return &run, nil
}

// SaveRun writes an analysis run to a JSON file.
func SaveRun(path string, run *model.Run) error {
	return errors.Wrap(writeJSON(path, run), "save run")
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// writeJSON writes through a temporary file and renames it into place so a
// reader never sees a partial document.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return WriteFile(path, data)
}

// WriteFile atomically replaces path with data, creating parent directories.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
