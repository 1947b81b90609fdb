package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"correspondence/config"
	"correspondence/corpus"
	apperrors "correspondence/errors"
	"correspondence/lexicon"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestSyntheticDeterministic(t *testing.T) {
	s := NewSynthetic(256, lexicon.Default())
	a := s.Vector("Cam cephe montajı için onay talebi")
	b := s.Vector("Cam cephe montajı için onay talebi")
	assert.Equal(t, a, b)
	assert.Len(t, a, 256)
	assert.InDelta(t, 1.0, magnitude(a), 1e-5)
}

func TestSyntheticEmptyText(t *testing.T) {
	s := NewSynthetic(DefaultDimension, nil)
	for _, text := range []string{"", "   ", "ve ile bu", "a b c"} {
		v := s.Vector(text)
		require.Len(t, v, DefaultDimension, text)
		for _, x := range v {
			assert.False(t, math.IsNaN(float64(x)) || math.IsInf(float64(x), 0))
			assert.Zero(t, x)
		}
	}
}

func TestSyntheticSynonymSensitivity(t *testing.T) {
	s := NewSynthetic(512, lexicon.Default())
	query := s.Vector("cam")
	related := s.Vector("pencere kristal")
	unrelated := s.Vector("hakediş ödemesi")

	assert.Greater(t,
		corpus.CosineSimilarity(query, related),
		corpus.CosineSimilarity(query, unrelated))
}

func TestSyntheticIgnoresPunctuationAndCase(t *testing.T) {
	s := NewSynthetic(128, lexicon.Default())
	assert.Equal(t, s.Vector("Beton, dökümü!"), s.Vector("beton dökümü"))
}

func testConfig(url string) *config.Config {
	return &config.Config{
		EmbeddingAPIURL:    url,
		EmbeddingAPIKey:    "secret",
		EmbeddingModel:     "test-model",
		EmbeddingDimension: 4,
		EmbeddingTimeout:   time.Second,
		MaxRetries:         2,
		RetryDelaySeconds:  time.Millisecond,
	}
}

func TestAPIEmbedder(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			var req embeddingRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "hello", req.Text)
			assert.Equal(t, "test-model", req.Model)
			json.NewEncoder(w).Encode(embeddingResponse{Vector: []float32{1, 0, 0, 0}})
		}))
		defer srv.Close()

		e := NewAPIEmbedder(testConfig(srv.URL), zap.NewNop())
		v, err := e.Embed(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 0, 0, 0}, v)
	})

	t.Run("retries when busy", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			json.NewEncoder(w).Encode(embeddingResponse{Vector: []float32{0, 1, 0, 0}})
		}))
		defer srv.Close()

		e := NewAPIEmbedder(testConfig(srv.URL), zap.NewNop())
		v, err := e.Embed(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, []float32{0, 1, 0, 0}, v)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	failures := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"wrong dimension", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(embeddingResponse{Vector: []float32{1, 2}})
		}},
		{"empty vector", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"vector":[]}`))
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			e := NewAPIEmbedder(testConfig(srv.URL), zap.NewNop())
			_, err := e.Embed(context.Background(), "hello")
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrEmbedding))
		})
	}
}

type stubEmbedder struct {
	dim   int
	vec   []float32
	err   error
	calls int32
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.vec, s.err
}

func (s *stubEmbedder) Dimension() int { return s.dim }

func TestProvider(t *testing.T) {
	ctx := context.Background()
	synthetic := NewSynthetic(4, lexicon.Default())

	t.Run("no remote uses synthetic", func(t *testing.T) {
		p, err := NewProvider(nil, synthetic, 8, zap.NewNop())
		require.NoError(t, err)
		assert.False(t, p.Remote())
		assert.Equal(t, synthetic.Vector("beton"), p.Embed(ctx, "beton"))
	})

	t.Run("remote success is cached", func(t *testing.T) {
		remote := &stubEmbedder{dim: 4, vec: []float32{0, 0, 1, 0}}
		p, err := NewProvider(remote, synthetic, 8, zap.NewNop())
		require.NoError(t, err)

		assert.Equal(t, remote.vec, p.Embed(ctx, "beton"))
		assert.Equal(t, remote.vec, p.Embed(ctx, "beton"))
		assert.Equal(t, int32(1), atomic.LoadInt32(&remote.calls))
	})

	t.Run("remote failure degrades and is not cached", func(t *testing.T) {
		remote := &stubEmbedder{dim: 4, err: errors.New("network down")}
		p, err := NewProvider(remote, synthetic, 8, zap.NewNop())
		require.NoError(t, err)

		assert.Equal(t, synthetic.Vector("beton"), p.Embed(ctx, "beton"))
		p.Embed(ctx, "beton")
		assert.Equal(t, int32(2), atomic.LoadInt32(&remote.calls))
	})

	t.Run("dimension mismatch rejected", func(t *testing.T) {
		_, err := NewProvider(&stubEmbedder{dim: 8}, synthetic, 0, nil)
		assert.Error(t, err)
	})
}

func TestDocumentText(t *testing.T) {
	doc := corpus.Document{ShortDesc: " Cam onayı ", Keywords: "", Content: "Cephe camları"}
	assert.Equal(t, "Cam onayı\nCephe camları", DocumentText(doc))
	assert.Empty(t, DocumentText(corpus.Document{LetterNo: "X"}))
}

func TestEmbedDocuments(t *testing.T) {
	synthetic := NewSynthetic(4, lexicon.Default())
	p, err := NewProvider(nil, synthetic, 8, zap.NewNop())
	require.NoError(t, err)

	existing := []float32{1, 0, 0, 0}
	docs := []corpus.Document{
		{LetterNo: "A", ShortDesc: "beton"},
		{LetterNo: "B", ShortDesc: "cam", Embedding: existing},
		{LetterNo: "C"},
	}
	n, err := p.EmbedDocuments(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, synthetic.Vector("beton"), docs[0].Embedding)
	assert.Equal(t, existing, docs[1].Embedding)
	assert.Nil(t, docs[2].Embedding)
}
