package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSyncIgnore is written by packsync init.
const DefaultSyncIgnore = `# Development files
.git
.DS_Store
Thumbs.db

# Game runtime output
logs
crash-reports
saves
screenshots

# Log files
*.log

# Temporary files
*.tmp
*.swp
*.bak
`

// WriteTemplate writes a starter packsync.yaml and .sync_ignore into dir.
// Existing files are left untouched; the returned slice names the files
// that were created.
func WriteTemplate(dir, projectName, mode string) ([]string, error) {
	cfg := Default()
	cfg.ProjectName = projectName
	if mode != "" {
		cfg.Mode = mode
	}
	cfg.Remote = Remote{
		Host:       "${PACKSYNC_HOST}",
		Port:       "22",
		Username:   "${PACKSYNC_USER}",
		PrivateKey: "${HOME}/.ssh/id_ed25519",
		RemotePath: "/srv/minecraft",
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return nil, fmt.Errorf("error generating config: %w", err)
	}

	var created []string
	files := []struct {
		name string
		data []byte
	}{
		{ConfigFileName, data},
		{".sync_ignore", []byte(DefaultSyncIgnore)},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, f.data, 0644); err != nil {
			return created, fmt.Errorf("error writing %s: %w", f.name, err)
		}
		created = append(created, path)
	}
	return created, nil
}
