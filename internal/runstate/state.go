package runstate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// State remembers which input and analytics settings the last successful
// run consumed.
type State struct {
	Source         string    `json:"source"`
	InputDigest    string    `json:"input_digest"`
	SettingsDigest string    `json:"settings_digest"`
	NewestDate     string    `json:"newest_date"`
	LastRunID      string    `json:"last_run_id"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Load reads the state from a JSON file. Returns a zero state if the file doesn't exist.
func Load(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	return &state, nil
}

// Save writes the state to a JSON file.
func Save(filePath string, state *State) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// FileDigest returns the hex SHA-256 of the file at path.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// JSONDigest returns the hex SHA-256 of the JSON encoding of v.
func JSONDigest(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode for digest: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Unchanged reports whether the last run consumed the same source content
// under the same analytics settings.
func (s *State) Unchanged(source, inputDigest, settingsDigest string) bool {
	return s.InputDigest != "" &&
		s.Source == source &&
		s.InputDigest == inputDigest &&
		s.SettingsDigest == settingsDigest
}
