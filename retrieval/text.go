package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"correspondence/corpus"
)

// textStrategy searches every text field for any expanded keyword, applies
// the structured filters and re-ranks the rows with the lexical scorer.
type textStrategy struct {
	e *Engine
}

func (t *textStrategy) Name() string { return StageText }

func (t *textStrategy) Attempt(ctx context.Context, q corpus.Query) ([]corpus.ScoredResult, error) {
	e := t.e
	expanded := Expand(q.Text, e.lex)
	if len(expanded) == 0 {
		return nil, nil
	}

	p := e.predicate(q.Filters)
	p.Terms = expanded
	p.Fields = corpus.TextFields
	p.Limit = q.Limit * e.opts.CandidateFactor

	storeCtx, cancel := e.storeContext(ctx)
	defer cancel()
	docs, err := e.store.Find(storeCtx, p)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	results := make([]corpus.ScoredResult, len(docs))
	for i, doc := range docs {
		results[i] = corpus.ScoredResult{
			Document: doc,
			Score:    e.scorer.Score(doc, q.Text, expanded),
			Source:   corpus.SourceText,
		}
	}
	// Stable so equal scores keep the store's newest-first order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

// plainStrategy is the last resort: the raw query split on whitespace, no
// expansion. A single keyword searches all text fields; several keywords
// search short_desc only. Rows keep the store order (newest first).
type plainStrategy struct {
	e *Engine
}

func (p *plainStrategy) Name() string { return StagePlain }

func (p *plainStrategy) Attempt(ctx context.Context, q corpus.Query) ([]corpus.ScoredResult, error) {
	e := p.e
	terms := strings.Fields(q.Text)
	if len(terms) == 0 {
		return nil, nil
	}

	pred := e.predicate(q.Filters)
	pred.Terms = terms
	pred.Fields = PlainFields(terms)
	pred.Limit = q.Limit

	storeCtx, cancel := e.storeContext(ctx)
	defer cancel()
	docs, err := e.store.Find(storeCtx, pred)
	if err != nil {
		return nil, fmt.Errorf("plain search: %w", err)
	}
	return unscored(docs), nil
}

// PlainFields returns the fields the plain stage searches for terms.
func PlainFields(terms []string) []corpus.Field {
	if len(terms) == 1 {
		return corpus.TextFields
	}
	return []corpus.Field{corpus.FieldShortDesc}
}

// filterStrategy lists documents matching only the structured filters.
type filterStrategy struct {
	e *Engine
}

func (f *filterStrategy) Name() string { return StageFilterOnly }

func (f *filterStrategy) Attempt(ctx context.Context, q corpus.Query) ([]corpus.ScoredResult, error) {
	e := f.e
	pred := e.predicate(q.Filters)
	pred.Limit = q.Limit

	storeCtx, cancel := e.storeContext(ctx)
	defer cancel()
	docs, err := e.store.Find(storeCtx, pred)
	if err != nil {
		return nil, fmt.Errorf("filter listing: %w", err)
	}
	return unscored(docs), nil
}

func unscored(docs []corpus.Document) []corpus.ScoredResult {
	if len(docs) == 0 {
		return nil
	}
	results := make([]corpus.ScoredResult, len(docs))
	for i, doc := range docs {
		results[i] = corpus.ScoredResult{Document: doc, Source: corpus.SourceText}
	}
	return results
}
