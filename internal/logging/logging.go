// Package logging provides structured logging with zap.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultFile is where the CLI writes its log when nothing else is
// configured. The terminal belongs to the tree view.
var DefaultFile = filepath.Join(".sync_temp", "logs", "packsync.log")

// Config holds logging configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	File   string // stdout, stderr, or file path
}

var (
	mu        sync.Mutex
	globalLog *zap.Logger
)

// New builds a logger from cfg. File paths get their parent directory
// created.
func New(cfg Config) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	out := cfg.File
	if out == "" {
		out = DefaultFile
	}
	if out != "stdout" && out != "stderr" {
		if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	zc.OutputPaths = []string{out}
	zc.ErrorOutputPaths = []string{out}

	return zc.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}

// Init builds a logger from cfg and installs it as the global logger.
func Init(cfg Config) (*zap.Logger, error) {
	l, err := New(cfg)
	if err != nil {
		return nil, err
	}
	mu.Lock()
	globalLog = l
	mu.Unlock()
	return l, nil
}

// L returns the global logger, a no-op logger before Init.
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if globalLog == nil {
		return zap.NewNop()
	}
	return globalLog
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger { return zap.NewNop() }

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// Sync flushes any buffered log entries.
func Sync() error {
	mu.Lock()
	l := globalLog
	mu.Unlock()
	if l != nil {
		return l.Sync()
	}
	return nil
}
