package retrieval

import (
	"context"
	"fmt"
	"sort"

	"correspondence/corpus"

	"go.uber.org/zap"
)

// Weights of the hybrid combination. They are not required to sum to 1.
type Weights struct {
	Vector float64
	Text   float64
}

// Combine is the hybrid score of a document with cosine similarity sim and
// lexical score lexical.
func Combine(w Weights, sim, lexical float64) float64 {
	return w.Vector*sim + w.Text*lexical
}

type hybridCandidate struct {
	Document   corpus.Document
	Similarity float64
	Lexical    float64
	Score      float64
}

// hybridStrategy embeds the query, fetches documents above the similarity
// threshold and re-ranks them by the weighted combination of similarity and
// lexical score. With source == SourceVector the text weight is zero.
type hybridStrategy struct {
	e       *Engine
	source  corpus.Provenance
	weights Weights
}

func (e *Engine) hybrid(source corpus.Provenance) *hybridStrategy {
	w := Weights{Vector: e.opts.VectorWeight, Text: e.opts.TextWeight}
	if source == corpus.SourceVector {
		w = Weights{Vector: 1, Text: 0}
	}
	return &hybridStrategy{e: e, source: source, weights: w}
}

func (h *hybridStrategy) Name() string {
	if h.source == corpus.SourceVector {
		return StageVector
	}
	return StageHybrid
}

func (h *hybridStrategy) Attempt(ctx context.Context, q corpus.Query) ([]corpus.ScoredResult, error) {
	e := h.e
	if e.embedder == nil {
		return nil, fmt.Errorf("no query embedder configured")
	}

	vec := e.embedder.Embed(ctx, q.Text)
	candidateLimit := q.Limit * e.opts.CandidateFactor

	storeCtx, cancel := e.storeContext(ctx)
	defer cancel()
	hits, err := e.store.NearestByEmbedding(storeCtx, vec, e.opts.SimilarityThreshold, candidateLimit, e.predicate(q.Filters))
	if err != nil {
		return nil, fmt.Errorf("vector lookup: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	expanded := Expand(q.Text, e.lex)
	candidates := make([]hybridCandidate, 0, len(hits))
	for _, hit := range hits {
		cand := hybridCandidate{Document: hit.Document, Similarity: hit.Similarity}
		if h.weights.Text != 0 {
			cand.Lexical = e.scorer.Score(hit.Document, q.Text, expanded)
		}
		cand.Score = Combine(h.weights, cand.Similarity, cand.Lexical)
		candidates = append(candidates, cand)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score == candidates[j].Score {
			return candidates[i].Document.LetterNo < candidates[j].Document.LetterNo
		}
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > q.Limit {
		candidates = candidates[:q.Limit]
	}

	results := make([]corpus.ScoredResult, len(candidates))
	for i, c := range candidates {
		doc := c.Document
		doc.Embedding = nil
		results[i] = corpus.ScoredResult{Document: doc, Score: c.Score, Source: h.source}
	}

	e.logger.Debug("Hybrid candidates ranked",
		zap.Int("hits", len(hits)),
		zap.Int("returned", len(results)),
		zap.Float64("top_score", results[0].Score))
	return results, nil
}
