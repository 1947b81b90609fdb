// Package retrieval ranks the document corpus for a free-text query.
//
// Search runs an ordered chain of strategies and stops at the first one that
// yields results: vector-assisted hybrid search (only when some document has
// a stored embedding), semantic-keyword text search, then plain substring
// search. Errors from one stage are logged and the chain moves on.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"correspondence/config"
	"correspondence/corpus"
	apperrors "correspondence/errors"
	"correspondence/lexicon"

	"go.uber.org/zap"
)

const (
	defaultLimit           = 50
	defaultCandidateFactor = 4
	defaultThreshold       = 0.1
	defaultVectorWeight    = 0.35
	defaultTextWeight      = 0.65
)

// Stage names reported in a Response.
const (
	StageNone       = "none"
	StageHybrid     = "hybrid"
	StageVector     = "vector"
	StageText       = "text"
	StagePlain      = "plain"
	StageFilterOnly = "filter"
)

// QueryEmbedder produces a query vector and never fails.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) []float32
}

// Strategy is one stage of the retrieval chain. Attempt returns no results
// and a nil error when the stage simply found nothing.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, q corpus.Query) ([]corpus.ScoredResult, error)
}

// Options tune the engine. Zero values fall back to defaults.
type Options struct {
	SimilarityThreshold float64
	VectorWeight        float64
	TextWeight          float64
	DefaultLimit        int
	CandidateFactor     int
	StoreTimeout        time.Duration
	RecencyWindow       time.Duration
}

// OptionsFromConfig maps configuration onto engine options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SimilarityThreshold: cfg.SimilarityThreshold,
		VectorWeight:        cfg.VectorWeight,
		TextWeight:          cfg.TextWeight,
		DefaultLimit:        cfg.SearchLimit,
		CandidateFactor:     cfg.TextCandidateFactor,
		StoreTimeout:        cfg.StoreQueryTimeout,
		RecencyWindow:       time.Duration(cfg.RecencyWindowDays) * 24 * time.Hour,
	}
}

func (o Options) withDefaults() Options {
	if o.SimilarityThreshold <= 0 || o.SimilarityThreshold >= 1 {
		o.SimilarityThreshold = defaultThreshold
	}
	if o.VectorWeight < 0 {
		o.VectorWeight = defaultVectorWeight
	}
	if o.TextWeight < 0 {
		o.TextWeight = defaultTextWeight
	}
	if o.VectorWeight == 0 && o.TextWeight == 0 {
		o.VectorWeight, o.TextWeight = defaultVectorWeight, defaultTextWeight
	}
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = defaultLimit
	}
	if o.DefaultLimit > corpus.MaxLimit {
		o.DefaultLimit = corpus.MaxLimit
	}
	if o.CandidateFactor <= 0 {
		o.CandidateFactor = defaultCandidateFactor
	}
	return o
}

// Response is the outcome of a search.
type Response struct {
	Results []corpus.ScoredResult `json:"results"`
	Stage   string                `json:"stage"`
}

// Engine orchestrates the retrieval chain.
type Engine struct {
	store    corpus.Store
	embedder QueryEmbedder
	lex      *lexicon.Lexicon
	scorer   *Scorer
	opts     Options
	logger   *zap.Logger
}

// NewEngine builds an engine over store. embedder may be nil, which
// disables the vector stages.
func NewEngine(store corpus.Store, embedder QueryEmbedder, lex *lexicon.Lexicon, opts Options, logger *zap.Logger) *Engine {
	if lex == nil {
		lex = lexicon.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()
	return &Engine{
		store:    store,
		embedder: embedder,
		lex:      lex,
		scorer:   NewScorer(lex, opts.RecencyWindow),
		opts:     opts,
		logger:   logger,
	}
}

// Scorer exposes the engine's lexical scorer.
func (e *Engine) Scorer() *Scorer {
	return e.scorer
}

// Search validates q and runs the chain selected by q.Mode.
//
// Whitespace-only text never matches everything: without filters it returns
// no results, with filters it lists the filtered documents newest first
// without semantic expansion.
func (e *Engine) Search(ctx context.Context, q corpus.Query) (*Response, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if q.Limit == 0 {
		q.Limit = e.opts.DefaultLimit
	}
	if q.Mode == "" {
		q.Mode = corpus.ModeAuto
	}

	if strings.TrimSpace(q.Text) == "" {
		if q.Filters.IsZero() {
			e.logger.Debug("Empty query without filters, returning no results")
			return &Response{Results: []corpus.ScoredResult{}, Stage: StageNone}, nil
		}
		return e.run(ctx, q, []Strategy{&filterStrategy{e: e}})
	}

	return e.run(ctx, q, e.chain(ctx, q.Mode))
}

// chain returns the ordered strategies for mode.
func (e *Engine) chain(ctx context.Context, mode corpus.Mode) []Strategy {
	text := &textStrategy{e: e}
	plain := &plainStrategy{e: e}

	switch mode {
	case corpus.ModeText:
		return []Strategy{text, plain}
	case corpus.ModeHybrid:
		return []Strategy{e.hybrid(corpus.SourceHybrid)}
	case corpus.ModeVector:
		return []Strategy{e.hybrid(corpus.SourceVector)}
	}

	if e.embedder == nil {
		e.logger.Debug("No query embedder, skipping hybrid stage")
		return []Strategy{text, plain}
	}
	if !e.probeEmbeddings(ctx) {
		e.logger.Debug("No stored embeddings, skipping hybrid stage")
		return []Strategy{text, plain}
	}
	return []Strategy{e.hybrid(corpus.SourceHybrid), text, plain}
}

// Run iterates strategies until one yields results. It is exported so the
// chain policy can be exercised with arbitrary strategies.
func (e *Engine) Run(ctx context.Context, q corpus.Query, strategies []Strategy) (*Response, error) {
	return e.run(ctx, q, strategies)
}

func (e *Engine) run(ctx context.Context, q corpus.Query, strategies []Strategy) (*Response, error) {
	var lastErr error
	failures := 0

	for _, s := range strategies {
		results, err := s.Attempt(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failures++
			lastErr = err
			e.logger.Warn("Retrieval stage failed, falling back",
				zap.String("stage", s.Name()),
				zap.Error(err))
			continue
		}
		if len(results) == 0 {
			e.logger.Debug("Retrieval stage returned no results", zap.String("stage", s.Name()))
			continue
		}
		e.logger.Debug("Retrieval stage succeeded",
			zap.String("stage", s.Name()),
			zap.Int("results", len(results)))
		return &Response{Results: results, Stage: s.Name()}, nil
	}

	if len(strategies) > 0 && failures == len(strategies) {
		return nil, fmt.Errorf("%w: all retrieval stages failed: %v", apperrors.ErrServiceUnavailable, lastErr)
	}
	return &Response{Results: []corpus.ScoredResult{}, Stage: StageNone}, nil
}

func (e *Engine) probeEmbeddings(ctx context.Context) bool {
	ctx, cancel := e.storeContext(ctx)
	defer cancel()
	ok, err := e.store.HasEmbeddings(ctx)
	if err != nil {
		e.logger.Warn("Embedding probe failed, treating vectors as unavailable", zap.Error(err))
		return false
	}
	return ok
}

// storeContext bounds one store call by the configured timeout.
func (e *Engine) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.opts.StoreTimeout > 0 {
		return context.WithTimeout(ctx, e.opts.StoreTimeout)
	}
	return context.WithCancel(ctx)
}

// predicate translates structured filters into a store predicate.
func (e *Engine) predicate(f corpus.Filters) corpus.Predicate {
	p := corpus.Predicate{
		DateFrom: f.DateFrom,
		DateTo:   f.DateTo,
		Type:     strings.TrimSpace(f.Type),
		Keywords: f.Keywords,
		LetterNo: strings.TrimSpace(f.LetterNo),
	}
	if f.Severity != corpus.SeverityUnknown {
		p.SeverityTokens = e.lex.SeverityTokens(f.Severity)
		if band, ok := e.lex.SeverityBand(f.Severity); ok {
			p.SeverityBand = &band
			p.SeverityExclude = e.lex.AllSeverityTokens()
		}
	}
	if f.Direction != corpus.DirectionUnknown {
		p.DirectionTokens = e.lex.DirectionTokens(f.Direction)
	}
	return p
}

// IsCanceled reports whether err is a context cancellation or deadline.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
