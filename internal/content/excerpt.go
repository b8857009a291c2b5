// Package content fetches and renders the source excerpts shown inside
// blocks. Fetches are fire-and-forget and correlated by block id plus a
// per-request token, so responses that arrive after the block was deleted
// or re-fetched are dropped.
package content

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Fetcher retrieves the raw text of a line range from a source file.
type Fetcher interface {
	FetchExcerpt(ctx context.Context, path string, startLine, endLine int) (string, error)
}

// FileFetcher reads excerpts from files resolved against a workspace root.
// Block paths are workspace-relative and may contain parent-directory
// segments.
type FileFetcher struct {
	Root string
}

// FetchExcerpt returns lines startLine..endLine (1-based, inclusive) of the
// file at path. Out-of-range bounds are clamped to the file.
func (f FileFetcher) FetchExcerpt(ctx context.Context, path string, startLine, endLine int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full := filepath.Join(f.Root, filepath.FromSlash(path))
	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if startLine < 1 {
		startLine = 1
	}
	if endLine > len(lines) {
		endLine = len(lines)
	}
	if startLine > endLine {
		return "", fmt.Errorf("range %d..%d outside %s (%d lines)", startLine, endLine, path, len(lines))
	}
	return strings.Join(lines[startLine-1:endLine], "\n"), nil
}

// Placeholder builds the single comment line a block renders when its
// excerpt could not be read, using a comment leader matching the file type.
func Placeholder(path string, err error) string {
	leader := "//"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".rb", ".sh", ".yml", ".yaml", ".toml":
		leader = "#"
	case ".sql", ".lua":
		leader = "--"
	case ".lisp", ".el", ".clj":
		leader = ";"
	}
	return fmt.Sprintf("%s unable to load %s: %v", leader, path, err)
}
