package synctree

import (
	"fmt"
	"strings"
)

// ChangeType describes how a node's local and remote observations relate.
// ChangeNone is the "no classification" value.
type ChangeType int8

const (
	ChangeNone ChangeType = iota
	ChangeUnchanged
	ChangeRepoOnly
	ChangeLocalOnly
	ChangeModified
)

func (c ChangeType) String() string {
	switch c {
	case ChangeUnchanged:
		return "unchanged"
	case ChangeRepoOnly:
		return "repo-only"
	case ChangeLocalOnly:
		return "local-only"
	case ChangeModified:
		return "modified"
	default:
		return "none"
	}
}

// ParseChangeType accepts the names produced by String.
func ParseChangeType(s string) (ChangeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unchanged":
		return ChangeUnchanged, nil
	case "repo-only", "repoonly", "remote":
		return ChangeRepoOnly, nil
	case "local-only", "localonly", "local":
		return ChangeLocalOnly, nil
	case "modified":
		return ChangeModified, nil
	case "none", "":
		return ChangeNone, nil
	}
	return ChangeNone, fmt.Errorf("unknown change type %q", s)
}

// Mode selects the aggregation priority and checkability tables.
type Mode int8

const (
	ModeDownload Mode = iota
	ModeUpload
)

func (m Mode) String() string {
	if m == ModeUpload {
		return "upload"
	}
	return "download"
}

// ParseMode parses "download" or "upload".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "download", "pull", "":
		return ModeDownload, nil
	case "upload", "push":
		return ModeUpload, nil
	}
	return ModeDownload, fmt.Errorf("unknown mode %q", s)
}

// First match wins.
var priority = map[Mode][]ChangeType{
	ModeDownload: {ChangeModified, ChangeRepoOnly, ChangeUnchanged, ChangeLocalOnly, ChangeNone},
	ModeUpload:   {ChangeModified, ChangeLocalOnly, ChangeUnchanged, ChangeRepoOnly, ChangeNone},
}

var uncheckable = map[Mode]map[ChangeType]bool{
	ModeDownload: {ChangeUnchanged: true, ChangeLocalOnly: true},
	ModeUpload:   {ChangeUnchanged: true},
}

// ClassifyLeaf maps a hash pair to a change type. Identical for both modes.
func ClassifyLeaf(localHash, remoteHash string) ChangeType {
	switch {
	case localHash != "" && remoteHash != "":
		if localHash == remoteHash {
			return ChangeUnchanged
		}
		return ChangeModified
	case localHash != "":
		return ChangeLocalOnly
	case remoteHash != "":
		return ChangeRepoOnly
	}
	return ChangeNone
}

// Aggregate resolves the set of distinct child classifications of a
// directory. An empty set means the directory has no children.
func Aggregate(mode Mode, present map[ChangeType]bool) ChangeType {
	if len(present) == 0 {
		return ChangeUnchanged
	}
	for _, c := range priority[mode] {
		if present[c] {
			return c
		}
	}
	return ChangeNone
}

// CanCheck reports whether a node of the given type may be ticked in mode.
func CanCheck(mode Mode, c ChangeType) bool {
	return !uncheckable[mode][c]
}
