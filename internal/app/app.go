// Package app wires the diagram engine to its collaborators: the document
// file, the snapshot journal, the excerpt loader, the file watcher, and the
// backup schedule. It is the layer hosts talk to.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/rany1024/CodeMapFree/internal/content"
	"github.com/rany1024/CodeMapFree/internal/domain"
	"github.com/rany1024/CodeMapFree/internal/engine"
	"github.com/rany1024/CodeMapFree/internal/storage"
)

// App owns the engine and its infrastructure for one workspace.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg     Config
	emitter engine.EventEmitter

	store   *storage.DiagramFile
	journal *storage.HistoryLog
	watcher *storage.Watcher
	cron    *cron.Cron

	loader     *content.Loader
	controller *engine.Controller

	persistCh   chan domain.Document
	persistDone chan struct{}
}

// New creates an app; call Startup before use.
func New(cfg Config, emitter engine.EventEmitter) *App {
	return &App{cfg: cfg, emitter: emitter}
}

// Startup loads the diagram, seeds the engine and history, and starts the
// watcher, the fetch-result pump, and the backup schedule.
func (a *App) Startup(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)

	a.store = storage.NewDiagramFile(a.cfg.DiagramPath)
	doc, found, err := a.store.Load()
	if err != nil {
		return fmt.Errorf("load diagram: %w", err)
	}

	journal, err := storage.OpenHistoryLog(a.cfg.JournalPath)
	if err != nil {
		// The journal is durability, not correctness; run without it.
		log.Printf("app: history journal unavailable: %v", err)
	}
	a.journal = journal

	if !found && a.journal != nil {
		// No diagram file but a journal survives: recover the last
		// recorded state rather than starting empty.
		if snap, ok, err := a.journal.Latest(); err == nil && ok {
			var recovered domain.Document
			if json.Unmarshal([]byte(snap), &recovered) == nil {
				doc = recovered
				log.Printf("app: recovered diagram from history journal")
			}
		}
	}

	a.persistCh = make(chan domain.Document, 1)
	a.persistDone = make(chan struct{})
	go a.pumpPersists()

	a.loader = content.NewLoader(a.ctx, content.FileFetcher{Root: a.cfg.WorkspaceRoot})
	a.controller = engine.New(doc, a.loader, a.emitter, a.persist)

	// Fetch initial content for every loaded block.
	for _, b := range a.controller.Snapshot().Blocks {
		a.loader.Request(b)
	}
	go a.pumpResults()

	watcher, err := storage.NewWatcher(a.cfg.DiagramPath, a.onDiagramFileChanged)
	if err != nil {
		log.Printf("app: diagram watcher unavailable: %v", err)
	}
	a.watcher = watcher

	a.cron = cron.New()
	if _, err := a.cron.AddFunc(a.cfg.BackupSpec, a.backup); err != nil {
		log.Printf("app: invalid backup schedule %q: %v", a.cfg.BackupSpec, err)
	}
	a.cron.Start()

	return nil
}

// Shutdown stops background work, waiting for the persist worker to flush
// any snapshot still queued so the newest edit is on disk before exit.
func (a *App) Shutdown() {
	if a.cron != nil {
		a.cron.Stop()
	}
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.persistDone != nil {
		<-a.persistDone
	}
	if a.journal != nil {
		_ = a.journal.Close()
	}
}

// Controller exposes the engine to the host surface.
func (a *App) Controller() *engine.Controller { return a.controller }

// ── Host-facing operations ─────────────────────────────────

// AddBlock pins a new block for a host-supplied file range.
func (a *App) AddBlock(path string, startLine, endLine int) domain.Block {
	return a.controller.AddBlockForRange(a.ctx, path, startLine, endLine)
}

// RefreshDocument replaces the whole document, optionally flagging one
// block as newly created for auto-size handling.
func (a *App) RefreshDocument(d domain.Document, newBlockID string) {
	a.controller.RefreshDocument(a.ctx, d, newBlockID)
}

// OpenInEditor asks the host to navigate to a block's source range. Pure
// navigation, no state effect.
func (a *App) OpenInEditor(blockID string) bool {
	b := a.controller.Snapshot().Blocks[blockID]
	if b == nil {
		return false
	}
	a.emitter.Emit(a.ctx, engine.EventOpenInEditor, map[string]any{
		"path":      b.Path,
		"startLine": b.StartLine,
		"endLine":   b.EndLine,
	})
	return true
}

// ── Internals ──────────────────────────────────────────────

// persist hands a snapshot to the persist worker without blocking the
// engine. The queue holds one pending snapshot, latest wins: when edits
// outpace the disk, intermediate snapshots are dropped and only the newest
// is written, so the file can never regress to an older state.
func (a *App) persist(snap domain.Document) {
	for {
		select {
		case a.persistCh <- snap:
			return
		default:
		}
		select {
		case <-a.persistCh:
		default:
		}
	}
}

// pumpPersists is the single writer of the diagram file. It drains the
// persist queue until shutdown, then flushes whatever is still pending.
func (a *App) pumpPersists() {
	defer close(a.persistDone)
	for {
		select {
		case snap := <-a.persistCh:
			a.writeSnapshot(snap)
		case <-a.ctx.Done():
			select {
			case snap := <-a.persistCh:
				a.writeSnapshot(snap)
			default:
			}
			return
		}
	}
}

// writeSnapshot saves one snapshot. Failures surface as an event and a log
// line; in-memory state is kept so the next edit retries.
func (a *App) writeSnapshot(snap domain.Document) {
	if err := a.store.Save(snap); err != nil {
		log.Printf("app: save diagram: %v", err)
		a.emitter.Emit(a.ctx, engine.EventSaveError, map[string]string{"error": err.Error()})
		return
	}
	if a.journal != nil {
		data, err := json.Marshal(snap)
		if err == nil {
			if err := a.journal.Append("edit", string(data)); err != nil {
				log.Printf("app: journal append: %v", err)
			}
		}
	}
}

// pumpResults feeds fetch completions into the engine in arrival order.
func (a *App) pumpResults() {
	for {
		select {
		case r := <-a.loader.Results():
			a.controller.ApplyResult(a.ctx, r)
		case <-a.ctx.Done():
			return
		}
	}
}

// onDiagramFileChanged reloads the document after an external edit. Our own
// atomic saves are fingerprinted and skipped.
func (a *App) onDiagramFileChanged() {
	doc, changed, err := a.store.LoadIfChanged()
	if err != nil {
		log.Printf("app: reload after external change: %v", err)
		return
	}
	if !changed {
		return
	}
	log.Printf("app: diagram file changed externally, refreshing")
	a.RefreshDocument(doc, "")
}

func (a *App) backup() {
	if err := a.store.Backup(); err != nil {
		log.Printf("app: backup: %v", err)
	}
}
