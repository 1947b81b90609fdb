package retrieval

import (
	"context"
	"errors"
	"sync"

	"correspondence/corpus"
)

// ErrSuperseded is returned when a newer request from the same client
// started before this one finished.
var ErrSuperseded = errors.New("request superseded by a newer one")

// Latest tracks the most recent in-flight request per client key. Starting a
// request cancels the previous one for that key, so only the latest request
// for a client can deliver results.
type Latest struct {
	mu       sync.Mutex
	seq      uint64
	inflight map[string]*inflight
}

type inflight struct {
	seq    uint64
	cancel context.CancelFunc
}

// NewLatest returns an empty tracker.
func NewLatest() *Latest {
	return &Latest{inflight: make(map[string]*inflight)}
}

// Token identifies one started request.
type Token struct {
	l   *Latest
	key string
	seq uint64
}

// Begin registers a new request for key, cancelling any earlier one. The
// returned context is cancelled when a newer request begins or when Done
// is called.
func (l *Latest) Begin(ctx context.Context, key string) (context.Context, Token) {
	ctx, cancel := context.WithCancel(ctx)

	l.mu.Lock()
	l.seq++
	seq := l.seq
	if prev, ok := l.inflight[key]; ok {
		prev.cancel()
	}
	l.inflight[key] = &inflight{seq: seq, cancel: cancel}
	l.mu.Unlock()

	return ctx, Token{l: l, key: key, seq: seq}
}

// Current reports whether no newer request for the same key has begun.
func (t Token) Current() bool {
	t.l.mu.Lock()
	defer t.l.mu.Unlock()
	cur, ok := t.l.inflight[t.key]
	return ok && cur.seq == t.seq
}

// Done releases the request. It is safe to call more than once.
func (t Token) Done() {
	t.l.mu.Lock()
	defer t.l.mu.Unlock()
	cur, ok := t.l.inflight[t.key]
	if ok && cur.seq == t.seq {
		cur.cancel()
		delete(t.l.inflight, t.key)
	}
}

// Pending returns the number of keys with a request in flight.
func (l *Latest) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.inflight)
}

// SearchLatest runs e.Search for q under key. If a newer search for the
// same key starts before this one finishes, the result is discarded and
// ErrSuperseded returned.
func (e *Engine) SearchLatest(ctx context.Context, l *Latest, key string, q corpus.Query) (*Response, error) {
	searchCtx, tok := l.Begin(ctx, key)
	defer tok.Done()

	resp, err := e.Search(searchCtx, q)
	if !tok.Current() {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}
