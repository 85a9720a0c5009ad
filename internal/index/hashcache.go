package index

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// CachedHash is one row of the local hash cache.
type CachedHash struct {
	ID      uint   `gorm:"primarykey"`
	Path    string `gorm:"uniqueIndex;not null"`
	Hash    string `gorm:"not null"`
	Size    int64  `gorm:"not null"`
	ModTime int64  `gorm:"not null"` // unix nanoseconds
}

// HashCache remembers content hashes keyed by relative path so unchanged
// files (same size and mtime) are not read again.
type HashCache struct {
	db *gorm.DB
}

// OpenHashCache opens or creates the cache database at dbPath.
func OpenHashCache(dbPath string) (*HashCache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&CachedHash{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &HashCache{db: db}, nil
}

// Snapshot loads every row keyed by path.
func (hc *HashCache) Snapshot() (map[string]CachedHash, error) {
	var rows []CachedHash
	if err := hc.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read hash cache: %w", err)
	}
	out := make(map[string]CachedHash, len(rows))
	for _, r := range rows {
		out[r.Path] = r
	}
	return out, nil
}

// Store upserts rows by path.
func (hc *HashCache) Store(rows []CachedHash) error {
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		rows[i].ID = 0
	}
	err := hc.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"hash", "size", "mod_time"}),
	}).CreateInBatches(rows, 200).Error
	if err != nil {
		return fmt.Errorf("failed to update hash cache: %w", err)
	}
	return nil
}

// Forget removes the given paths.
func (hc *HashCache) Forget(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := hc.db.Where("path IN ?", paths).Delete(&CachedHash{}).Error; err != nil {
		return fmt.Errorf("failed to prune hash cache: %w", err)
	}
	return nil
}

// Reset clears all cached rows and returns how many were removed.
func (hc *HashCache) Reset() (int64, error) {
	result := hc.db.Unscoped().Where("1 = 1").Delete(&CachedHash{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to reset cache: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Stats returns the number of rows and the sum of their sizes.
func (hc *HashCache) Stats() (files int64, bytes int64, err error) {
	if err = hc.db.Model(&CachedHash{}).Count(&files).Error; err != nil {
		return 0, 0, err
	}
	err = hc.db.Model(&CachedHash{}).Select("COALESCE(SUM(size), 0)").Scan(&bytes).Error
	return files, bytes, err
}

// Close closes the database connection.
func (hc *HashCache) Close() error {
	sqlDB, err := hc.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
