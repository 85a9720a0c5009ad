// Package synctree merges a local and a remote file listing into one tree,
// classifies every node, and exposes a tri-state selection tree per category tab.
package synctree

import "strings"

// Entry is one observed file or directory from a single source. A merged
// entry (see Node.Entry) can carry both hashes.
type Entry struct {
	Name       string
	Path       string // slash separated, relative to the instance root
	IsDir      bool
	LocalHash  string // empty when not observed locally
	RemoteHash string // empty when not observed remotely
}

// LocalEntry builds an entry observed on the local filesystem.
func LocalEntry(rel string, isDir bool, hash string) Entry {
	rel = strings.Trim(rel, "/")
	return Entry{Name: baseName(rel), Path: rel, IsDir: isDir, LocalHash: hash}
}

// RemoteEntry builds an entry observed in the remote listing.
func RemoteEntry(rel string, isDir bool, hash string) Entry {
	rel = strings.Trim(rel, "/")
	return Entry{Name: baseName(rel), Path: rel, IsDir: isDir, RemoteHash: hash}
}

func baseName(rel string) string {
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		return rel[i+1:]
	}
	return rel
}
