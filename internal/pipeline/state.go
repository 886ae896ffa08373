package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// StateStore persists per-stage results and the last-run summary under a
// local state directory (default .mltrail/run). The state is advisory: it
// never feeds back into ledger contents, only into diagnostics.
type StateStore struct {
	baseDir string
}

func NewStateStore(baseDir string) *StateStore {
	return &StateStore{baseDir: baseDir}
}

func (s *StateStore) lastRunPath() string {
	return filepath.Join(s.baseDir, "last-run.json")
}

// ReadLastRun loads the previous execution summary; nil means clean state.
func (s *StateStore) ReadLastRun() (*LastRun, error) {
	f, err := os.Open(s.lastRunPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening last run file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var last LastRun
	if err := json.NewDecoder(f).Decode(&last); err != nil {
		return nil, fmt.Errorf("decoding last run: %w", err)
	}
	return &last, nil
}

// ReadStage loads one stage's persisted result; nil when absent.
func (s *StateStore) ReadStage(stage string) (*StageResult, error) {
	f, err := os.Open(filepath.Join(s.baseDir, "stages", stage+".json"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var res StageResult
	if err := json.NewDecoder(f).Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}

// WriteLastRun saves the execution summary.
func (s *StateStore) WriteLastRun(last LastRun) error {
	return s.writeJSON(s.lastRunPath(), last)
}

// WriteStageResult saves one stage's result.
func (s *StateStore) WriteStageResult(res StageResult) error {
	return s.writeJSON(filepath.Join(s.baseDir, "stages", res.Stage+".json"), res)
}

// Reset clears the state directory.
func (s *StateStore) Reset() error {
	return os.RemoveAll(s.baseDir)
}

func (s *StateStore) writeJSON(path string, v any) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		cerr := f.Close()
		if err == nil {
			err = cerr
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
