package app_test

import (
	"path/filepath"
	"testing"

	"github.com/rany1024/CodeMapFree/internal/app"
)

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CODEMAP_ROOT", dir)
	t.Setenv("CODEMAP_FILE", "")
	t.Setenv("CODEMAP_JOURNAL", "")
	t.Setenv("CODEMAP_BACKUP_SPEC", "")

	cfg := app.LoadConfig()
	if cfg.WorkspaceRoot != dir {
		t.Errorf("root = %q", cfg.WorkspaceRoot)
	}
	if cfg.DiagramPath != filepath.Join(dir, "codeMap.json") {
		t.Errorf("diagram path = %q", cfg.DiagramPath)
	}
	if cfg.JournalPath != filepath.Join(dir, ".codemap", "history.db") {
		t.Errorf("journal path = %q", cfg.JournalPath)
	}
	if cfg.BackupSpec != "@every 5m" {
		t.Errorf("backup spec = %q", cfg.BackupSpec)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("CODEMAP_ROOT", t.TempDir())
	t.Setenv("CODEMAP_FILE", "/tmp/elsewhere/map.json")
	t.Setenv("CODEMAP_BACKUP_SPEC", "@hourly")

	cfg := app.LoadConfig()
	if cfg.DiagramPath != "/tmp/elsewhere/map.json" {
		t.Errorf("diagram path = %q", cfg.DiagramPath)
	}
	if cfg.BackupSpec != "@hourly" {
		t.Errorf("backup spec = %q", cfg.BackupSpec)
	}
}
