package content_test

import (
	"context"
	"testing"
	"time"

	"github.com/rany1024/CodeMapFree/internal/content"
	"github.com/rany1024/CodeMapFree/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Loader: token correlation across supersede, delete, renumber
// ─────────────────────────────────────────────────────────────

// blockingFetcher holds every fetch until released, so tests control the
// order in which responses land.
type blockingFetcher struct {
	release chan struct{}
}

func (f *blockingFetcher) FetchExcerpt(ctx context.Context, path string, startLine, endLine int) (string, error) {
	select {
	case <-f.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return "content of " + path, nil
}

func collect(t *testing.T, l *content.Loader, n int) []content.Result {
	t.Helper()
	out := make([]content.Result, 0, n)
	for i := 0; i < n; i++ {
		select {
		case r := <-l.Results():
			out = append(out, r)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for result %d of %d", i+1, n)
		}
	}
	return out
}

func TestLoader_AcceptDelivery(t *testing.T) {
	f := &blockingFetcher{release: make(chan struct{})}
	l := content.NewLoader(context.Background(), f)
	b := &domain.Block{ID: "1", Path: "a.go", StartLine: 1, EndLine: 5}

	l.Request(b)
	close(f.release)

	r := collect(t, l, 1)[0]
	id, ok := l.Accept(r)
	if !ok || id != "1" {
		t.Fatalf("accept: id=%q ok=%v", id, ok)
	}
	if r.Text != "content of a.go" {
		t.Errorf("text = %q", r.Text)
	}

	// A token is spent once.
	if _, ok := l.Accept(r); ok {
		t.Error("second accept of the same result should fail")
	}
}

// A newer request for the same block retires the older token, so the older
// response is dropped even if it arrives later.
func TestLoader_SupersededRequestDropped(t *testing.T) {
	f := &blockingFetcher{release: make(chan struct{})}
	l := content.NewLoader(context.Background(), f)
	b := &domain.Block{ID: "1", Path: "a.go", StartLine: 1, EndLine: 5}

	l.Request(b)
	b.StartLine, b.EndLine = 10, 20
	l.Request(b)
	close(f.release)

	rs := collect(t, l, 2)
	accepted := 0
	for _, r := range rs {
		if _, ok := l.Accept(r); ok {
			accepted++
		}
	}
	if accepted != 1 {
		t.Errorf("accepted %d results, want exactly the newest one", accepted)
	}
}

func TestLoader_CancelDropsResponse(t *testing.T) {
	f := &blockingFetcher{release: make(chan struct{})}
	l := content.NewLoader(context.Background(), f)
	b := &domain.Block{ID: "1", Path: "a.go", StartLine: 1, EndLine: 5}

	l.Request(b)
	l.Cancel("1")
	close(f.release)

	r := collect(t, l, 1)[0]
	if _, ok := l.Accept(r); ok {
		t.Error("response for a cancelled block should be dropped")
	}
}

// A renumber while a fetch is in flight: the response must land on the
// block's new id, not the old one.
func TestLoader_RemapFollowsRenumber(t *testing.T) {
	f := &blockingFetcher{release: make(chan struct{})}
	l := content.NewLoader(context.Background(), f)
	b := &domain.Block{ID: "3", Path: "a.go", StartLine: 1, EndLine: 5}

	l.Request(b)
	l.RemapBlockIDs(map[string]string{"3": "7", "4": "3", "7": "4"})
	close(f.release)

	r := collect(t, l, 1)[0]
	id, ok := l.Accept(r)
	if !ok || id != "7" {
		t.Errorf("accept after remap: id=%q ok=%v, want 7", id, ok)
	}
}
