// Package remote fetches the remote side's listing: the index database the
// server keeps, downloaded over SSH or read from disk.
package remote

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"packsync/internal/config"
	"packsync/internal/index"
	"packsync/internal/logging"
	"packsync/internal/synctree"
)

// Fetcher returns a fresh remote listing.
type Fetcher interface {
	Fetch(ctx context.Context) ([]synctree.Entry, error)
}

// FileFetcher reads an index database that is already on disk.
type FileFetcher struct {
	Path string
}

func (f FileFetcher) Fetch(ctx context.Context) ([]synctree.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	metas, err := index.LoadIndexDB(f.Path)
	if err != nil {
		return nil, err
	}
	return index.RemoteEntries(metas), nil
}

// Dialer opens a connected client.
type Dialer func(ctx context.Context) (*SSHClient, error)

// SSHFetcher downloads the remote index database into LocalCopy and loads
// it. Each fetch uses its own connection. When IndexCommand is set it runs
// on the server first so the database is rebuilt before the download.
type SSHFetcher struct {
	Dial         Dialer
	IndexCommand string
	RemoteIndex  string
	LocalCopy    string
	Logger       *zap.Logger
}

// NewSSHFetcher builds a fetcher from the remote block of cfg.
func NewSSHFetcher(cfg *config.Config, log *zap.Logger) *SSHFetcher {
	r := cfg.Remote
	return &SSHFetcher{
		Dial: func(ctx context.Context) (*SSHClient, error) {
			c, err := NewSSHClient(r.Username, r.PrivateKey, r.Host, r.Port)
			if err != nil {
				return nil, err
			}
			if err := c.Connect(ctx); err != nil {
				return nil, err
			}
			return c, nil
		},
		IndexCommand: r.IndexCommand,
		RemoteIndex:  cfg.RemoteIndexPath(),
		LocalCopy:    filepath.Join(cfg.SyncTemp(), "remote_index.db"),
		Logger:       log,
	}
}

func (f *SSHFetcher) Fetch(ctx context.Context) ([]synctree.Entry, error) {
	log := logging.OrNop(f.Logger).Named("remote")

	client, err := f.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("ssh connect failed: %w", err)
	}
	defer client.Close()

	done := make(chan error, 1)
	go func() { done <- f.indexAndDownload(client, log) }()
	select {
	case <-ctx.Done():
		client.Close()
		<-done
		return nil, ctx.Err()
	case err := <-done:
		if err != nil {
			return nil, err
		}
	}
	log.Debug("downloaded index DB", zap.String("remote", f.RemoteIndex), zap.String("local", f.LocalCopy))

	return FileFetcher{Path: f.LocalCopy}.Fetch(ctx)
}

func (f *SSHFetcher) indexAndDownload(client *SSHClient, log *zap.Logger) error {
	if f.IndexCommand != "" {
		out, err := client.RunCommandWithOutput(f.IndexCommand)
		if err != nil {
			return fmt.Errorf("remote indexing failed: %w", err)
		}
		log.Debug("remote index rebuilt", zap.String("command", f.IndexCommand), zap.String("output", strings.TrimSpace(out)))
	}
	if err := client.DownloadFile(f.LocalCopy, f.RemoteIndex); err != nil {
		return fmt.Errorf("failed to download index DB: %w", err)
	}
	return nil
}
