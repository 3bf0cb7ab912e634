package rotation

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// StateStore persists RotationState as a YAML file. Reads degrade to a
// fresh default state when the file is absent or unparsable; writes go
// through a temp file plus rename so readers only ever observe a complete
// file.
type StateStore struct {
	path          string
	totalAccounts int
}

// NewStateStore returns a store backed by path. totalAccounts seeds the
// default state returned before the first write.
func NewStateStore(path string, totalAccounts int) *StateStore {
	return &StateStore{path: path, totalAccounts: totalAccounts}
}

// Path returns the backing file path.
func (s *StateStore) Path() string { return s.path }

func (s *StateStore) defaults() RotationState {
	return RotationState{
		CurrentIndex:  1,
		TotalAccounts: s.totalAccounts,
		Accounts:      make(map[string]AccountStats),
	}
}

// Read returns the persisted state, or defaults if nothing usable is on
// disk. Corrupt state is logged and recovered, never fatal.
func (s *StateStore) Read() RotationState {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Errorf("failed to read state file %s", s.path)
		}
		return s.defaults()
	}

	var state RotationState
	if err := yaml.Unmarshal(data, &state); err != nil {
		log.WithError(err).Errorf("failed to parse state file %s, starting fresh", s.path)
		return s.defaults()
	}
	if state.CurrentIndex <= 0 {
		state.CurrentIndex = 1
	}
	if state.Accounts == nil {
		state.Accounts = make(map[string]AccountStats)
	}
	return state
}

// Write persists state atomically: marshal to a temp file in the same
// directory, then rename over the real path. On failure the temp file is
// removed and the error propagated.
func (s *StateStore) Write(state RotationState) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("prepare state directory: %w", err)
	}

	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal rotation state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write state temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
