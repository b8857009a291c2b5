package app

import (
	"os"
	"path/filepath"
)

// Config holds everything the app reads from its environment.
type Config struct {
	// WorkspaceRoot is the stable root block paths are resolved against.
	WorkspaceRoot string
	// DiagramPath is the persisted document file, one per workspace.
	DiagramPath string
	// JournalPath is the sqlite snapshot journal.
	JournalPath string
	// BackupSpec is the cron schedule for document backups.
	BackupSpec string
}

// LoadConfig reads configuration from the environment with workable
// defaults: the current directory as workspace, codeMap.json at its root,
// and the journal tucked into a .codemap directory.
func LoadConfig() Config {
	root := envOr("CODEMAP_ROOT", ".")
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return Config{
		WorkspaceRoot: root,
		DiagramPath:   envOr("CODEMAP_FILE", filepath.Join(root, "codeMap.json")),
		JournalPath:   envOr("CODEMAP_JOURNAL", filepath.Join(root, ".codemap", "history.db")),
		BackupSpec:    envOr("CODEMAP_BACKUP_SPEC", "@every 5m"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
