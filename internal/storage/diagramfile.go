// Package storage persists the diagram: the JSON document file that is the
// unit of persistence, a sqlite journal of recorded snapshots, and a
// watcher that notices external edits to the document file.
package storage

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rany1024/CodeMapFree/internal/domain"
)

// DiagramFile reads and writes the persisted diagram document — one JSON
// file per workspace. Writes are atomic (temp file + rename) and
// fingerprinted so the file watcher can tell our own saves apart from
// external edits.
type DiagramFile struct {
	path string

	mu      sync.Mutex
	lastSum [sha256.Size]byte
	haveSum bool
}

// NewDiagramFile creates a store for the document at path.
func NewDiagramFile(path string) *DiagramFile {
	return &DiagramFile{path: path}
}

// Path returns the document file path.
func (f *DiagramFile) Path() string { return f.path }

// Load reads the document. found is false when no file exists yet; the
// caller starts from an empty document.
func (f *DiagramFile) Load() (doc domain.Document, found bool, err error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return domain.NewDocument(), false, nil
	}
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("read diagram: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Document{}, false, fmt.Errorf("parse diagram: %w", err)
	}
	f.mu.Lock()
	f.lastSum = sha256.Sum256(data)
	f.haveSum = true
	f.mu.Unlock()
	return doc, true, nil
}

// Save writes the document atomically. The whole write is serialized: all
// saves share one temp path, and the fingerprint must always match the
// bytes that actually won the rename.
func (f *DiagramFile) Save(doc domain.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal diagram: %w", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("create diagram directory: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write diagram: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace diagram: %w", err)
	}
	f.lastSum = sha256.Sum256(data)
	f.haveSum = true
	return nil
}

// LoadIfChanged reads the document only when the file's bytes differ from
// what this process last read or wrote, so watcher events caused by our own
// atomic saves are ignored.
func (f *DiagramFile) LoadIfChanged() (doc domain.Document, changed bool, err error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return domain.Document{}, false, nil
	}
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("read diagram: %w", err)
	}
	sum := sha256.Sum256(data)
	f.mu.Lock()
	if f.haveSum && sum == f.lastSum {
		f.mu.Unlock()
		return domain.Document{}, false, nil
	}
	f.lastSum = sum
	f.haveSum = true
	f.mu.Unlock()
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Document{}, false, fmt.Errorf("parse diagram: %w", err)
	}
	return doc, true, nil
}

// Backup copies the current document file to a .bak sibling. Missing
// documents are not an error; there is simply nothing to back up yet.
func (f *DiagramFile) Backup() error {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read for backup: %w", err)
	}
	if err := os.WriteFile(f.path+".bak", data, 0644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}
