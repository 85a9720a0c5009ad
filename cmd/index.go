package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"packsync/internal/config"
	"packsync/internal/index"
	"packsync/internal/logging"
	"packsync/internal/util"
)

func newIndexCmd(opts *rootOptions) *cobra.Command {
	var out string
	var noCache bool
	cmd := &cobra.Command{
		Use:   "index [dir]",
		Short: "Write the index database of a directory",
		Long: `Scan a directory and write its index database. Run it on the server so
the client can fetch <remote_path>/.sync_temp/indexing_files.db.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := util.NewPrinter(cmd.OutOrStdout())
			dir := opts.dir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				dir = "."
			}
			root, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(root, config.SyncTempDir, config.RemoteIndexName)
			}

			level := "info"
			if opts.logLevel != "" {
				level = opts.logLevel
			}
			log, err := logging.Init(logging.Config{Level: level, File: filepath.Join(root, config.SyncTempDir, "logs", "packsync.log")})
			if err != nil {
				return err
			}
			defer log.Sync()

			var cache *index.HashCache
			if !noCache {
				if cache, err = index.OpenHashCache(filepath.Join(root, config.SyncTempDir, hashCacheName)); err != nil {
					log.Warn("hash cache unavailable", zap.Error(err))
				} else {
					defer cache.Close()
				}
			}

			s, err := index.NewScanner(root, nil, cache, log)
			if err != nil {
				return err
			}
			metas, err := s.ScanMeta(cmd.Context())
			if err != nil {
				return err
			}
			if err := index.SaveIndexDB(out, metas); err != nil {
				return err
			}
			log.Info("index written", zap.String("root", root), zap.String("out", out), zap.Int("entries", len(metas)))
			p.Printf("Indexed %d entries into %s\n", len(metas), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output database (default: <dir>/.sync_temp/indexing_files.db)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "hash every file instead of reusing cached hashes")
	return cmd
}

func newCacheCmd(opts *rootOptions) *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Show or reset the local hash cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := util.NewPrinter(cmd.OutOrStdout())
			dir := opts.dir
			if dir == "" {
				dir = "."
			}
			path := filepath.Join(dir, config.SyncTempDir, hashCacheName)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				p.Println("No hash cache yet.")
				return nil
			}
			cache, err := index.OpenHashCache(path)
			if err != nil {
				return err
			}
			defer cache.Close()

			if reset {
				n, err := cache.Reset()
				if err != nil {
					return err
				}
				p.Printf("Removed %d cached hashes\n", n)
				return nil
			}
			files, size, err := cache.Stats()
			if err != nil {
				return err
			}
			p.Printf("%d files cached, %d bytes hashed\n", files, size)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "drop every cached hash")
	return cmd
}
