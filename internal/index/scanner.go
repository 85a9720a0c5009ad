// Package index lists a directory tree with content hashes and reads and
// writes the index database both sides of a sync exchange.
package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"packsync/internal/logging"
	"packsync/internal/synctree"
)

var ErrEmptyRoot = errors.New("index: root path is empty")

// Scanner walks Root and hashes every file that is not ignored.
type Scanner struct {
	Root    string
	Ignore  *IgnoreCache // optional
	Cache   *HashCache   // optional
	Workers int
	Logger  *zap.Logger
}

// NewScanner returns a scanner for root with an IgnoreCache that also
// applies extra patterns.
func NewScanner(root string, extra []string, cache *HashCache, log *zap.Logger) (*Scanner, error) {
	if strings.TrimSpace(root) == "" {
		return nil, ErrEmptyRoot
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	return &Scanner{
		Root:   abs,
		Ignore: NewIgnoreCache(abs, extra...),
		Cache:  cache,
		Logger: log,
	}, nil
}

// Scan returns local entries for every non-ignored file and directory.
func (s *Scanner) Scan(ctx context.Context) ([]synctree.Entry, error) {
	metas, err := s.ScanMeta(ctx)
	if err != nil {
		return nil, err
	}
	return LocalEntries(metas), nil
}

// ScanMeta walks Root and returns index rows sorted by relative path.
func (s *Scanner) ScanMeta(ctx context.Context) ([]FileMeta, error) {
	if strings.TrimSpace(s.Root) == "" {
		return nil, ErrEmptyRoot
	}
	log := logging.OrNop(s.Logger).Named("index")
	root := filepath.Clean(s.Root)

	var metas []FileMeta
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			log.Debug("walk error", zap.String("path", p), zap.Error(err))
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p == root {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if s.Ignore != nil && s.Ignore.Match(p, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		metas = append(metas, FileMeta{
			Path:    p,
			Rel:     filepath.ToSlash(rel),
			Size:    info.Size(),
			ModTime: info.ModTime().UnixNano(),
			IsDir:   d.IsDir(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	if err := s.hashAll(ctx, metas); err != nil {
		return nil, err
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].Rel < metas[j].Rel })
	log.Debug("scan finished", zap.String("root", root), zap.Int("entries", len(metas)))
	return metas, nil
}

func (s *Scanner) hashAll(ctx context.Context, metas []FileMeta) error {
	var cached map[string]CachedHash
	if s.Cache != nil {
		var err error
		if cached, err = s.Cache.Snapshot(); err != nil {
			logging.OrNop(s.Logger).Warn("hash cache unavailable", zap.Error(err))
			cached = nil
		}
	}

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	fresh := make([]bool, len(metas))
	for i := range metas {
		m := &metas[i]
		if m.IsDir {
			continue
		}
		if c, ok := cached[m.Rel]; ok && c.Size == m.Size && c.ModTime == m.ModTime && c.Hash != "" {
			m.Hash = c.Hash
			continue
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			h, err := HashFile(m.Path)
			if err != nil {
				// Vanished or unreadable files are kept with the stand-in hash.
				return nil
			}
			m.Hash = h
			fresh[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("hashing interrupted: %w", err)
	}

	if s.Cache == nil {
		return nil
	}
	var rows []CachedHash
	for i, m := range metas {
		if fresh[i] {
			rows = append(rows, CachedHash{Path: m.Rel, Hash: m.Hash, Size: m.Size, ModTime: m.ModTime})
		}
	}
	if err := s.Cache.Store(rows); err != nil {
		logging.OrNop(s.Logger).Warn("hash cache not updated", zap.Error(err))
	}
	return nil
}

// HashFile returns the xxHash of the file content as hex.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
