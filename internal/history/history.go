// Package history remembers the instance directories packsync was opened in,
// for the recent-workspace menu.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	HistoryDir  = ".packsync"
	HistoryFile = "history.json"
	// MaxEntries bounds the file; the least recently used entries go first.
	MaxEntries = 50
)

type HistoryEntry struct {
	Path       string    `json:"path"`
	Project    string    `json:"project,omitempty"`
	LastAccess time.Time `json:"last_access"`
}

type History struct {
	Entries []HistoryEntry `json:"entries"`
}

func GetHistoryDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, HistoryDir)
}

func GetHistoryPath() string {
	return filepath.Join(GetHistoryDir(), HistoryFile)
}

// LoadHistory reads the history file; a missing file is an empty history.
func LoadHistory() (*History, error) {
	data, err := os.ReadFile(GetHistoryPath())
	if os.IsNotExist(err) {
		return &History{Entries: []HistoryEntry{}}, nil
	}
	if err != nil {
		return nil, err
	}
	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	return &h, nil
}

// SaveHistory writes h, most recent first, dropping entries past MaxEntries.
func SaveHistory(h *History) error {
	h.sortRecent()
	if len(h.Entries) > MaxEntries {
		h.Entries = h.Entries[:MaxEntries]
	}
	if err := os.MkdirAll(GetHistoryDir(), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(GetHistoryPath(), data, 0644)
}

func (h *History) sortRecent() {
	sort.SliceStable(h.Entries, func(i, j int) bool {
		return h.Entries[i].LastAccess.After(h.Entries[j].LastAccess)
	})
}

// Record stores an instance directory and its project name, or refreshes
// the access time when the directory is already known. An empty project
// keeps the name recorded earlier.
func Record(path, project string) error {
	h, err := LoadHistory()
	if err != nil {
		return err
	}
	for i, entry := range h.Entries {
		if entry.Path == path {
			h.Entries[i].LastAccess = time.Now()
			if project != "" {
				h.Entries[i].Project = project
			}
			return SaveHistory(h)
		}
	}
	h.Entries = append(h.Entries, HistoryEntry{Path: path, Project: project, LastAccess: time.Now()})
	return SaveHistory(h)
}

func RemovePath(path string) error {
	h, err := LoadHistory()
	if err != nil {
		return err
	}
	for i, entry := range h.Entries {
		if entry.Path == path {
			h.Entries = append(h.Entries[:i], h.Entries[i+1:]...)
			break
		}
	}
	return SaveHistory(h)
}

// PruneMissing drops every entry whose directory no longer holds marker
// (the instance config file) and returns the removed paths.
func PruneMissing(marker string) ([]string, error) {
	h, err := LoadHistory()
	if err != nil {
		return nil, err
	}
	var removed []string
	kept := h.Entries[:0]
	for _, entry := range h.Entries {
		if _, err := os.Stat(filepath.Join(entry.Path, marker)); err != nil {
			removed = append(removed, entry.Path)
			continue
		}
		kept = append(kept, entry)
	}
	if len(removed) == 0 {
		return nil, nil
	}
	h.Entries = kept
	return removed, SaveHistory(h)
}

// SearchPaths returns recorded paths whose directory or project name
// contains query, case-insensitively.
func SearchPaths(query string) []string {
	h, err := LoadHistory()
	if err != nil {
		return []string{}
	}
	q := strings.ToLower(query)
	var results []string
	for _, entry := range h.Entries {
		if strings.Contains(strings.ToLower(entry.Path), q) || strings.Contains(strings.ToLower(entry.Project), q) {
			results = append(results, entry.Path)
		}
	}
	sort.Strings(results)
	return results
}

// GetAllPaths returns every recorded path, most recent first.
func GetAllPaths() []string {
	h, err := LoadHistory()
	if err != nil || len(h.Entries) == 0 {
		return []string{}
	}
	h.sortRecent()
	result := make([]string, 0, len(h.Entries))
	for _, entry := range h.Entries {
		result = append(result, entry.Path)
	}
	return result
}
