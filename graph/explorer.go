package graph

import (
	"context"
	"time"

	"correspondence/corpus"
	apperrors "correspondence/errors"
	"correspondence/lexicon"

	"go.uber.org/zap"
)

// Explorer answers graph, island and timeline requests against a store.
// Every call fetches afresh; nothing is cached between calls.
type Explorer struct {
	store   corpus.Store
	lex     *lexicon.Lexicon
	logger  *zap.Logger
	opts    Options
	timeout time.Duration
}

// NewExplorer creates an explorer. timeout bounds each store call; zero
// leaves calls bounded only by the caller's context.
func NewExplorer(store corpus.Store, lex *lexicon.Lexicon, opts Options, timeout time.Duration, logger *zap.Logger) *Explorer {
	if lex == nil {
		lex = lexicon.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Explorer{store: store, lex: lex, logger: logger, opts: opts, timeout: timeout}
}

// IslandTimeline is the timeline of the island around Seed.
type IslandTimeline struct {
	Seed string `json:"seed"`
	Timeline
}

func (x *Explorer) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if x.timeout > 0 {
		return context.WithTimeout(ctx, x.timeout)
	}
	return context.WithCancel(ctx)
}

// Graph builds the citation graph of the whole corpus.
func (x *Explorer) Graph(ctx context.Context) (*Graph, error) {
	ctx, cancel := x.storeContext(ctx)
	defer cancel()

	docs, err := x.store.Relations(ctx)
	if err != nil {
		return nil, apperrors.WrapError(err, "failed to fetch relations")
	}
	g := Build(docs)
	x.logger.Debug("Built reference graph",
		zap.Int("documents", len(docs)),
		zap.Int("nodes", g.Len()),
		zap.Int("edges", len(g.edges)))
	return g, nil
}

// Island returns the island around seed.
func (x *Explorer) Island(ctx context.Context, seed string) (*Island, error) {
	g, err := x.Graph(ctx)
	if err != nil {
		return nil, err
	}
	island, err := Extract(g, seed)
	if err != nil {
		return nil, err
	}
	x.logger.Debug("Extracted island",
		zap.String("seed", island.Seed),
		zap.Int("nodes", len(island.Nodes)),
		zap.Int("edges", len(island.Edges)))
	return island, nil
}

// Timeline returns the island around seed ordered by letter date. Dangling
// nodes have no rows and do not appear.
func (x *Explorer) Timeline(ctx context.Context, seed string) (*IslandTimeline, error) {
	island, err := x.Island(ctx, seed)
	if err != nil {
		return nil, err
	}

	fetchCtx, cancel := x.storeContext(ctx)
	defer cancel()
	docs, err := x.store.FindByLetterNos(fetchCtx, island.IDs())
	if err != nil {
		return nil, apperrors.WrapError(err, "failed to fetch island documents")
	}

	t := Assemble(docs, x.lex, x.opts)
	x.logger.Debug("Assembled timeline",
		zap.String("seed", island.Seed),
		zap.Int("entries", len(t.Entries)),
		zap.Int("gaps", len(t.Gaps)),
		zap.Int("undated", t.Undated))
	return &IslandTimeline{Seed: island.Seed, Timeline: t}, nil
}
