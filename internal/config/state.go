package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// UIState is what the tree view remembers between runs.
type UIState struct {
	SelectedTab int      `json:"selected_tab"`
	Filter      []string `json:"filter,omitempty"`
}

// StatePath returns the path to .sync_temp/state.json under root.
func StatePath(root string) string {
	return filepath.Join(root, SyncTempDir, "state.json")
}

// LoadState loads the UI state. A missing file yields the zero state.
func LoadState(root string) (*UIState, error) {
	data, err := os.ReadFile(StatePath(root))
	if errors.Is(err, os.ErrNotExist) {
		return &UIState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ui state: %w", err)
	}

	var st UIState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse ui state: %w", err)
	}
	return &st, nil
}

// Save writes the state under root, creating .sync_temp when needed.
func (s *UIState) Save(root string) error {
	path := StatePath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create .sync_temp directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ui state: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write ui state: %w", err)
	}
	return nil
}
