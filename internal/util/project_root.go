package util

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNoProjectRoot is returned when no ancestor holds the marker file.
var ErrNoProjectRoot = errors.New("project root not found")

// FindProjectRoot searches upward from start for a directory containing
// marker and returns that directory.
func FindProjectRoot(start, marker string) (string, error) {
	currentPath, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(currentPath, marker)); err == nil {
			return currentPath, nil
		}
		parentPath := filepath.Dir(currentPath)
		// Stop if we've reached the root or can't go higher
		if parentPath == currentPath {
			return "", ErrNoProjectRoot
		}
		currentPath = parentPath
	}
}
