package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"packsync/internal/synctree"
)

const ConfigFileName = "packsync.yaml"

// SyncTempDir holds everything packsync writes next to the instance.
const SyncTempDir = ".sync_temp"

// RemoteIndexName is the index database the server side keeps under its
// .sync_temp directory.
const RemoteIndexName = "indexing_files.db"

var ErrConfigNotFound = errors.New(ConfigFileName + " not found. Please run 'packsync init' first")

type Config struct {
	ProjectName string   `yaml:"project_name"`
	LocalPath   string   `yaml:"local_path"`
	Mode        string   `yaml:"mode"`
	Remote      Remote   `yaml:"remote"`
	Refresh     Refresh  `yaml:"refresh"`
	Filter      []string `yaml:"filter,omitempty"`
	Ignores     []string `yaml:"ignores,omitempty"`
	Log         Log      `yaml:"log"`

	dir string
}

type Remote struct {
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	Username   string `yaml:"username"`
	PrivateKey string `yaml:"privateKey"`
	RemotePath string `yaml:"remote_path"`
	IndexPath  string `yaml:"index_path,omitempty"`
	// IndexCommand runs on the server before each fetch, typically
	// "packsync index <remote_path>".
	IndexCommand string `yaml:"index_command,omitempty"`
}

type Refresh struct {
	DebounceMS    int `yaml:"debounce_ms"`
	FetchTimeoutS int `yaml:"fetch_timeout_s"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file,omitempty"`
}

// Default returns a config with every optional field filled in.
func Default() Config {
	return Config{
		LocalPath: ".",
		Mode:      synctree.ModeDownload.String(),
		Remote:    Remote{Port: "22"},
		Refresh:   Refresh{DebounceMS: 500, FetchTimeoutS: 30},
		Log:       Log{Level: "info", Format: "json"},
	}
}

func (c *Config) applyDefaults() {
	d := Default()
	if strings.TrimSpace(c.LocalPath) == "" {
		c.LocalPath = d.LocalPath
	}
	if strings.TrimSpace(c.Mode) == "" {
		c.Mode = d.Mode
	}
	if strings.TrimSpace(c.Remote.Port) == "" {
		c.Remote.Port = d.Remote.Port
	}
	if c.Refresh.DebounceMS == 0 {
		c.Refresh.DebounceMS = d.Refresh.DebounceMS
	}
	if c.Refresh.FetchTimeoutS == 0 {
		c.Refresh.FetchTimeoutS = d.Refresh.FetchTimeoutS
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// ValidateConfig validates the configuration for required fields and file
// paths. Every problem is reported, one per line.
func ValidateConfig(cfg *Config) error {
	var validationErrors []string

	if strings.TrimSpace(cfg.ProjectName) == "" {
		validationErrors = append(validationErrors, "project_name cannot be empty")
	}

	if _, err := synctree.ParseMode(cfg.Mode); err != nil {
		validationErrors = append(validationErrors, "mode must be download or upload")
	}

	if _, err := synctree.ParseFilter(cfg.Filter); err != nil {
		validationErrors = append(validationErrors, fmt.Sprintf("filter: %v", err))
	}

	if cfg.Refresh.DebounceMS < 200 {
		validationErrors = append(validationErrors, "refresh.debounce_ms must be at least 200")
	}
	if cfg.Refresh.FetchTimeoutS < 0 {
		validationErrors = append(validationErrors, "refresh.fetch_timeout_s cannot be negative")
	}

	if local := cfg.AbsLocalPath(); local != "" {
		if _, err := os.Stat(local); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("local path does not exist: %s", cfg.LocalPath))
		}
	}

	// The remote block is optional; a command may read a local index instead.
	if cfg.RemoteConfigured() {
		r := cfg.Remote
		if strings.TrimSpace(r.Username) == "" {
			validationErrors = append(validationErrors, "remote.username cannot be empty")
		}
		if port, err := strconv.Atoi(r.Port); err != nil || port <= 0 || port > 65535 {
			validationErrors = append(validationErrors, "remote.port must be a valid number between 1-65535")
		}
		if strings.TrimSpace(r.RemotePath) == "" && strings.TrimSpace(r.IndexPath) == "" {
			validationErrors = append(validationErrors, "remote.remote_path cannot be empty")
		}
		if strings.TrimSpace(r.PrivateKey) == "" {
			validationErrors = append(validationErrors, "remote.privateKey cannot be empty")
		} else if _, err := os.Stat(r.PrivateKey); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("private key file does not exist: %s", r.PrivateKey))
		}
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}
	return nil
}

// Load reads dir/packsync.yaml, expands ${VAR} references and validates the
// result.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	dotenv, err := LoadDotEnv(filepath.Join(dir, ".env"))
	if err != nil {
		return nil, err
	}

	cfg, err := Parse([]byte(ExpandEnv(string(data), dotenv)))
	if err != nil {
		return nil, err
	}
	cfg.dir = dir

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML text and fills in defaults. It does not validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadAndValidateConfig loads the config from the working directory.
func LoadAndValidateConfig() (*Config, error) {
	return Load(".")
}

// Dir is the directory the config was loaded from.
func (c *Config) Dir() string {
	if c.dir == "" {
		return "."
	}
	return c.dir
}

// AbsLocalPath resolves local_path against the config directory.
func (c *Config) AbsLocalPath() string {
	p := c.LocalPath
	if p == "" {
		p = "."
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.Dir(), p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

// SyncTemp is the .sync_temp directory of the instance.
func (c *Config) SyncTemp() string {
	return filepath.Join(c.AbsLocalPath(), SyncTempDir)
}

// RemoteConfigured reports whether an SSH remote is set up.
func (c *Config) RemoteConfigured() bool {
	return strings.TrimSpace(c.Remote.Host) != ""
}

// RemoteIndexPath is the server side path of the index database.
func (c *Config) RemoteIndexPath() string {
	if c.Remote.IndexPath != "" {
		return c.Remote.IndexPath
	}
	return strings.TrimSuffix(c.Remote.RemotePath, "/") + "/" + SyncTempDir + "/" + RemoteIndexName
}

// SyncMode parses Mode. Validation guarantees it succeeds on loaded configs.
func (c *Config) SyncMode() synctree.Mode {
	m, _ := synctree.ParseMode(c.Mode)
	return m
}

// ActiveFilter parses Filter.
func (c *Config) ActiveFilter() synctree.Filter {
	f, err := synctree.ParseFilter(c.Filter)
	if err != nil {
		return synctree.AllChanges()
	}
	return f
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Refresh.DebounceMS) * time.Millisecond
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Refresh.FetchTimeoutS) * time.Second
}

// LogFile is the configured log destination, defaulting into .sync_temp.
func (c *Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(c.SyncTemp(), "logs", "packsync.log")
}

func ConfigExists() bool {
	_, err := os.Stat(ConfigFileName)
	return !os.IsNotExist(err)
}

func GetConfigPath() string {
	cwd, _ := os.Getwd()
	return filepath.Join(cwd, ConfigFileName)
}
