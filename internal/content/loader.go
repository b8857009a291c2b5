package content

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/rany1024/CodeMapFree/internal/domain"
)

// Result carries one fetched excerpt back to the engine. Err is set when
// the excerpt could not be read; the block then renders a placeholder line.
type Result struct {
	Token uuid.UUID
	Text  string
	Err   error
}

// Loader issues fire-and-forget excerpt fetches and funnels their results
// into a single channel, in arrival order. Each request gets a fresh token
// and only the newest token per block stays live, so a response racing a
// delete or a re-fetch is simply dropped. Renumbering moves live tokens to
// the block's new id, keeping in-flight responses correlated. Fetches are
// never cancelled, only forgotten.
type Loader struct {
	ctx     context.Context
	fetcher Fetcher

	mu      sync.Mutex
	newest  map[string]uuid.UUID // block id → newest outstanding token
	inFly   map[uuid.UUID]string // live token → current block id
	results chan Result
}

// NewLoader creates a loader over the given fetcher. Fetches run under ctx,
// the loader's lifetime, not the lifetime of whatever operation asked for
// them — a block re-fetch must outlive the request that triggered it.
func NewLoader(ctx context.Context, fetcher Fetcher) *Loader {
	return &Loader{
		ctx:     ctx,
		fetcher: fetcher,
		newest:  make(map[string]uuid.UUID),
		inFly:   make(map[uuid.UUID]string),
		results: make(chan Result, 16),
	}
}

// Results is the stream of fetch completions, stale ones included; pass
// each through Accept before applying.
func (l *Loader) Results() <-chan Result { return l.results }

// Request starts an asynchronous fetch for the block's excerpt. A newer
// request for the same block supersedes any outstanding one.
func (l *Loader) Request(b *domain.Block) {
	token := uuid.New()
	l.mu.Lock()
	if old, ok := l.newest[b.ID]; ok {
		delete(l.inFly, old)
	}
	l.newest[b.ID] = token
	l.inFly[token] = b.ID
	l.mu.Unlock()

	path, start, end := b.Path, b.StartLine, b.EndLine
	go func() {
		text, err := l.fetcher.FetchExcerpt(l.ctx, path, start, end)
		select {
		case l.results <- Result{Token: token, Text: text, Err: err}:
		case <-l.ctx.Done():
		}
	}()
}

// Accept resolves a result to the block it belongs to now. It reports false
// for stale results: a superseded request, or a block deleted while the
// fetch was in flight.
func (l *Loader) Accept(r Result) (blockID string, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	blockID, ok = l.inFly[r.Token]
	if !ok {
		return "", false
	}
	delete(l.inFly, r.Token)
	delete(l.newest, blockID)
	return blockID, true
}

// Cancel forgets any outstanding request for a deleted block; its response
// will fail Accept when it lands.
func (l *Loader) Cancel(blockID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if tok, ok := l.newest[blockID]; ok {
		delete(l.inFly, tok)
		delete(l.newest, blockID)
	}
}

// RemapBlockIDs follows a renumbering: outstanding tokens move with their
// blocks so in-flight responses still land on the right block.
func (l *Loader) RemapBlockIDs(remap map[string]string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	movedNewest := make(map[string]uuid.UUID, len(remap))
	for oldID, newID := range remap {
		if tok, ok := l.newest[oldID]; ok {
			movedNewest[newID] = tok
			l.inFly[tok] = newID
			delete(l.newest, oldID)
		}
	}
	for id, tok := range movedNewest {
		l.newest[id] = tok
	}
}
