package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"packsync/internal/config"
	"packsync/internal/index"
	"packsync/internal/logging"
	"packsync/internal/refresh"
	"packsync/internal/remote"
	"packsync/internal/synctree"
)

// hashCacheName is the hash cache database under .sync_temp.
const hashCacheName = "hash_cache.db"

// session is the loaded project every listing command works on.
type session struct {
	cfg     *config.Config
	log     *zap.Logger
	cache   *index.HashCache
	scanner *index.Scanner
	fetcher refresh.Fetcher // nil without a remote
	// remoteErr is the fetch failure buildOnce tolerated, if any.
	remoteErr error
}

// openSession loads the config, starts logging and prepares both listing
// sources. remoteDB, when set, replaces the SSH remote with an index
// database on disk.
func openSession(opts *rootOptions, remoteDB string) (*session, error) {
	dir, err := projectDir(opts)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	log, err := logging.Init(logging.Config{Level: level, Format: cfg.Log.Format, File: cfg.LogFile()})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	log = log.With(zap.String("project", cfg.ProjectName))

	s := &session{cfg: cfg, log: log}
	cache, err := index.OpenHashCache(filepath.Join(cfg.SyncTemp(), hashCacheName))
	if err != nil {
		log.Warn("hash cache unavailable, hashing everything", zap.Error(err))
	} else {
		s.cache = cache
	}
	if s.scanner, err = index.NewScanner(cfg.AbsLocalPath(), cfg.Ignores, s.cache, log); err != nil {
		s.Close()
		return nil, err
	}

	switch {
	case remoteDB != "":
		s.fetcher = remote.FileFetcher{Path: remoteDB}
	case cfg.RemoteConfigured():
		s.fetcher = remote.NewSSHFetcher(cfg, log)
	default:
		log.Warn("no remote configured, the remote listing stays empty")
	}
	return s, nil
}

func (s *session) Close() {
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.log.Warn("failed to close hash cache", zap.Error(err))
		}
	}
	_ = s.log.Sync()
}

// options returns orchestrator options for this project. The caller fills
// in the dispatcher and the owning-context callbacks.
func (s *session) options(mode synctree.Mode, filter synctree.Filter) refresh.Options {
	return refresh.Options{
		Mode:         mode,
		Filter:       filter,
		Debounce:     s.cfg.Debounce(),
		FetchTimeout: s.cfg.FetchTimeout(),
		Local:        s.scanner,
		Remote:       s.fetcher,
		Logger:       s.log,
	}
}

// buildOnce scans, fetches and returns the tabs of the resulting swap. The
// orchestrator runs on a private loop that is closed before returning, so
// the tabs belong to the caller afterwards. A failed fetch leaves the remote
// side empty unless strictRemote is set.
func (s *session) buildOnce(ctx context.Context, mode synctree.Mode, filter synctree.Filter, strictRemote bool) ([]synctree.Tab, error) {
	loop := refresh.NewLoop()
	defer loop.Close()

	applied := make(chan refresh.Applied, 4)
	opts := s.options(mode, filter)
	opts.Dispatcher = loop
	opts.OnApplied = func(a refresh.Applied) {
		select {
		case applied <- a:
		default:
		}
	}
	o, err := refresh.New(opts)
	if err != nil {
		return nil, err
	}
	defer o.Close()

	gen := o.LocalGen()
	local, err := s.scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("local scan failed: %w", err)
	}
	o.SetLocalAt(gen, local)
	if s.fetcher != nil {
		if err := o.Refetch(ctx); err != nil {
			if strictRemote || ctx.Err() != nil {
				return nil, err
			}
			s.log.Warn("continuing without a remote listing", zap.Error(err))
			s.remoteErr = err
		}
	}

	want := o.Version()
	for {
		select {
		case a := <-applied:
			if a.Version == want {
				return a.Tabs, nil
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// modeAndFilter applies --mode and --filter overrides to the config values.
func (s *session) modeAndFilter(mode string, filter []string) (synctree.Mode, synctree.Filter, error) {
	m := s.cfg.SyncMode()
	if mode != "" {
		var err error
		if m, err = synctree.ParseMode(mode); err != nil {
			return m, nil, err
		}
	}
	f := s.cfg.ActiveFilter()
	if len(filter) > 0 {
		var err error
		if f, err = synctree.ParseFilter(filter); err != nil {
			return m, nil, err
		}
	}
	return m, f, nil
}
