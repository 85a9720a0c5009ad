package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/glebarez/sqlite"

	"packsync/internal/synctree"
)

// FileMeta is one row of an index database. Path is absolute on the
// machine that produced it; Rel is slash separated and relative to the
// indexed root.
type FileMeta struct {
	Path    string
	Rel     string
	Size    int64
	ModTime int64 // unix nanoseconds
	Hash    string
	IsDir   bool
}

const schema = `CREATE TABLE IF NOT EXISTS files (
	path TEXT PRIMARY KEY,
	rel TEXT,
	size INTEGER,
	mod_time INTEGER,
	hash TEXT,
	is_dir INTEGER
)`

// SaveIndexDB replaces the content of the index database at dbPath with
// metas in one transaction.
func SaveIndexDB(dbPath string, metas []FileMeta) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open index DB: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM files`); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO files (path, rel, size, mod_time, hash, is_dir) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range metas {
		isDir := 0
		if m.IsDir {
			isDir = 1
		}
		if _, err := stmt.Exec(m.Path, m.Rel, m.Size, m.ModTime, m.Hash, isDir); err != nil {
			return fmt.Errorf("failed to insert %s: %w", m.Rel, err)
		}
	}
	return tx.Commit()
}

// LoadIndexDB reads every row of the index database at dbPath. Rows that
// fail to scan are skipped.
func LoadIndexDB(dbPath string) ([]FileMeta, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("index DB not available: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index DB: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT path, rel, size, mod_time, hash, is_dir FROM files ORDER BY rel`)
	if err != nil {
		return nil, fmt.Errorf("failed to query index DB: %w", err)
	}
	defer rows.Close()

	var out []FileMeta
	for rows.Next() {
		var m FileMeta
		var rel, hash sql.NullString
		var size, mod sql.NullInt64
		var isDir int
		if err := rows.Scan(&m.Path, &rel, &size, &mod, &hash, &isDir); err != nil {
			continue
		}
		m.Rel, m.Hash = rel.String, hash.String
		m.Size, m.ModTime = size.Int64, mod.Int64
		m.IsDir = isDir != 0
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read index DB: %w", err)
	}
	return out, nil
}

// RemoteEntries converts index rows into remote-side entries.
func RemoteEntries(metas []FileMeta) []synctree.Entry {
	return entries(metas, synctree.RemoteEntry)
}

// LocalEntries converts index rows into local-side entries.
func LocalEntries(metas []FileMeta) []synctree.Entry {
	return entries(metas, synctree.LocalEntry)
}

// entries drops rows with a blank relative path and anything under
// .sync_temp. A file indexed without a hash still counts as present, so it
// gets a stand-in derived from size and mtime.
func entries(metas []FileMeta, mk func(rel string, isDir bool, hash string) synctree.Entry) []synctree.Entry {
	out := make([]synctree.Entry, 0, len(metas))
	for _, m := range metas {
		rel := strings.Trim(filepath.ToSlash(m.Rel), "/")
		if rel == "" || rel == "." {
			continue
		}
		if rel == ".sync_temp" || strings.HasPrefix(rel, ".sync_temp/") || strings.Contains(rel, "/.sync_temp/") {
			continue
		}
		hash := m.Hash
		if !m.IsDir && hash == "" {
			hash = fmt.Sprintf("unhashed:%d:%d", m.Size, m.ModTime)
		}
		if m.IsDir {
			hash = ""
		}
		out = append(out, mk(rel, m.IsDir, hash))
	}
	return out
}
