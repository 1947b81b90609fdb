package embedding

import (
	"context"
	"fmt"

	"correspondence/config"
	"correspondence/lexicon"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Provider always produces a vector. It prefers the remote embedder and
// degrades to the synthetic one when the remote is absent or fails; errors
// never reach the caller.
//
// Returned slices may be shared between callers and must not be modified.
type Provider struct {
	remote    Embedder
	synthetic *Synthetic
	cache     *lru.Cache
	group     singleflight.Group
	logger    *zap.Logger
}

// NewProvider combines remote (may be nil) with synthetic. cacheSize <= 0
// disables caching.
func NewProvider(remote Embedder, synthetic *Synthetic, cacheSize int, logger *zap.Logger) (*Provider, error) {
	if synthetic == nil {
		return nil, fmt.Errorf("synthetic embedder is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if remote != nil && remote.Dimension() != synthetic.Dimension() {
		return nil, fmt.Errorf("remote embedder dimension %d does not match synthetic dimension %d",
			remote.Dimension(), synthetic.Dimension())
	}

	p := &Provider{remote: remote, synthetic: synthetic, logger: logger}
	if cacheSize > 0 {
		cache, err := lru.New(cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create embedding cache: %w", err)
		}
		p.cache = cache
	}
	return p, nil
}

// NewProviderFromConfig wires the API embedder when cfg has an endpoint and
// key, and the synthetic embedder over lex in every case.
func NewProviderFromConfig(cfg *config.Config, lex *lexicon.Lexicon, logger *zap.Logger) (*Provider, error) {
	synthetic := NewSynthetic(cfg.EmbeddingDimension, lex)
	var remote Embedder
	if cfg.EmbeddingAPIEnabled() {
		remote = NewAPIEmbedder(cfg, logger)
	} else if logger != nil {
		logger.Info("No embedding API key configured, using synthetic embeddings")
	}
	return NewProvider(remote, synthetic, cfg.EmbeddingCacheSize, logger)
}

func (p *Provider) Dimension() int {
	return p.synthetic.Dimension()
}

// Remote reports whether a remote embedder is configured.
func (p *Provider) Remote() bool {
	return p.remote != nil
}

// Embed returns the vector for text. Concurrent calls for the same text
// share one remote request.
func (p *Provider) Embed(ctx context.Context, text string) []float32 {
	if p.cache != nil {
		if v, ok := p.cache.Get(text); ok {
			return v.([]float32)
		}
	}

	v, _, _ := p.group.Do(text, func() (interface{}, error) {
		vec, cacheable := p.embed(ctx, text)
		if cacheable && p.cache != nil {
			p.cache.Add(text, vec)
		}
		return vec, nil
	})
	return v.([]float32)
}

// embed reports whether the vector is safe to cache: synthetic vectors
// produced only because the remote failed are not.
func (p *Provider) embed(ctx context.Context, text string) ([]float32, bool) {
	if p.remote == nil {
		return p.synthetic.Vector(text), true
	}
	vec, err := p.remote.Embed(ctx, text)
	if err != nil {
		p.logger.Warn("Embedding API failed, using synthetic embedding", zap.Error(err))
		return p.synthetic.Vector(text), false
	}
	return vec, true
}
