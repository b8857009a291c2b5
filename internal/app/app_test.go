package app_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rany1024/CodeMapFree/internal/app"
	"github.com/rany1024/CodeMapFree/internal/engine"
	"github.com/rany1024/CodeMapFree/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// App: persistence ordering across rapid edits
// ─────────────────────────────────────────────────────────────

func testConfig(t *testing.T) app.Config {
	t.Helper()
	root := t.TempDir()
	return app.Config{
		WorkspaceRoot: root,
		DiagramPath:   filepath.Join(root, "codeMap.json"),
		JournalPath:   filepath.Join(root, ".codemap", "history.db"),
		BackupSpec:    "@every 1h",
	}
}

// Edits can outpace the disk; the persist queue is latest-wins and Shutdown
// waits for the flush, so the file on disk always ends at the newest
// snapshot, never an older one that happened to finish writing last.
func TestApp_Shutdown_FlushesNewestSnapshot(t *testing.T) {
	cfg := testConfig(t)
	a := app.New(cfg, &engine.MockEmitter{})
	if err := a.Startup(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		a.Controller().SetPageName(ctx, fmt.Sprintf("revision %d", i))
	}
	a.Shutdown()

	doc, found, err := storage.NewDiagramFile(cfg.DiagramPath).Load()
	if err != nil || !found {
		t.Fatalf("load after shutdown: found=%v err=%v", found, err)
	}
	if doc.PageName != "revision 49" {
		t.Errorf("disk holds %q, want the newest snapshot", doc.PageName)
	}
}
