package retrieval

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"correspondence/corpus"
	apperrors "correspondence/errors"
	"correspondence/lexicon"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) *time.Time {
	t, err := time.Parse(corpus.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

type stubEmbedder struct {
	vec []float32
}

func (s stubEmbedder) Embed(context.Context, string) []float32 { return s.vec }

// failingStore errors on every call.
type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) HasEmbeddings(context.Context) (bool, error) { return false, errStoreDown }
func (failingStore) Find(context.Context, corpus.Predicate) ([]corpus.Document, error) {
	return nil, errStoreDown
}
func (failingStore) FindByLetterNos(context.Context, []string) ([]corpus.Document, error) {
	return nil, errStoreDown
}
func (failingStore) NearestByEmbedding(context.Context, []float32, float64, int, corpus.Predicate) ([]corpus.Similar, error) {
	return nil, errStoreDown
}
func (failingStore) Relations(context.Context) ([]corpus.Document, error) { return nil, errStoreDown }

type fixedStrategy struct {
	name    string
	results []corpus.ScoredResult
	err     error
	calls   int
}

func (f *fixedStrategy) Name() string { return f.name }

func (f *fixedStrategy) Attempt(context.Context, corpus.Query) ([]corpus.ScoredResult, error) {
	f.calls++
	return f.results, f.err
}

func camCorpus() []corpus.Document {
	return []corpus.Document{
		{LetterNo: "L-1", ShortDesc: "Cam duvar onayı"},
		{LetterNo: "L-2", Content: "Kurşun geçirmez panel"},
	}
}

func TestExpand(t *testing.T) {
	lex := lexicon.Default()

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, Expand("   ", lex))
	})

	t.Run("raw query first with synonyms", func(t *testing.T) {
		got := Expand("Cam", lex)
		require.NotEmpty(t, got)
		assert.Equal(t, "cam", got[0])
		assert.Contains(t, got, "pencere")
		assert.Contains(t, got, "kristal")
	})

	t.Run("root of inflected token", func(t *testing.T) {
		got := Expand("onayı", lex)
		assert.Contains(t, got, "onayı")
		assert.Contains(t, got, "onay")
		assert.Contains(t, got, "tasdik")
	})

	t.Run("no duplicates", func(t *testing.T) {
		got := Expand("cam pencere cam", lex)
		seen := map[string]bool{}
		for _, k := range got {
			assert.False(t, seen[k], "duplicate %q", k)
			seen[k] = true
		}
	})

	t.Run("edge punctuation trimmed", func(t *testing.T) {
		got := Expand("(cam),", lex)
		assert.Contains(t, got, "cam")
		assert.Contains(t, got, "vitrin")
	})
}

func TestScorerCamScenario(t *testing.T) {
	lex := lexicon.Default()
	s := NewScorer(lex, 0)
	docs := camCorpus()
	expanded := Expand("cam", lex)

	first := s.Score(docs[0], "cam", expanded)
	second := s.Score(docs[1], "cam", expanded)

	assert.Greater(t, first, second)
	assert.GreaterOrEqual(t, first, ExactMatchBonus)
	assert.Zero(t, second)
}

func TestScorerFieldWeights(t *testing.T) {
	lex := lexicon.Default()
	s := NewScorer(lex, 0)
	expanded := []string{"xyz", "pencere"}
	scale := lengthScale("pencere")

	tests := []struct {
		name string
		doc  corpus.Document
		want float64
	}{
		{"short_desc", corpus.Document{ShortDesc: "Pencere değişimi"}, ShortDescWeight * scale},
		{"keywords", corpus.Document{Keywords: "pencere, cephe"}, KeywordsWeight * scale},
		{"content", corpus.Document{Content: "yeni pencere"}, ContentWeight * scale},
		{"all fields", corpus.Document{ShortDesc: "pencere", Keywords: "pencere", Content: "pencere"},
			(ShortDescWeight + KeywordsWeight + ContentWeight) * scale},
		{"no match", corpus.Document{Content: "beton"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.Score(tt.doc, "xyz", expanded), 1e-9)
		})
	}
}

func TestScorerRecencyAndSeverity(t *testing.T) {
	lex := lexicon.Default()
	now := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	s := NewScorer(lex, 0)
	s.now = func() time.Time { return now }

	at := func(d time.Duration) *time.Time {
		v := now.Add(-d)
		return &v
	}

	tests := []struct {
		name string
		doc  corpus.Document
		want float64
	}{
		{"undated", corpus.Document{}, 0},
		{"today", corpus.Document{LetterDate: at(0)}, RecencyBonus},
		{"half window", corpus.Document{LetterDate: at(15 * 24 * time.Hour)}, RecencyBonus / 2},
		{"outside window", corpus.Document{LetterDate: at(40 * 24 * time.Hour)}, 0},
		{"future clamps", corpus.Document{LetterDate: at(-48 * time.Hour)}, RecencyBonus},
		{"high severity", corpus.Document{SeverityRate: "Kritik"}, SeverityHighBonus},
		{"numeric medium", corpus.Document{SeverityRate: "3"}, SeverityMediumBonus},
		{"low severity", corpus.Document{SeverityRate: "low"}, SeverityLowBonus},
		{"unknown severity", corpus.Document{SeverityRate: "?"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.Score(tt.doc, "zzz", nil), 1e-9)
		})
	}
}

func TestCombineMonotonic(t *testing.T) {
	w := Weights{Vector: 0.35, Text: 0.65}
	assert.Greater(t, Combine(w, 0.9, 10), Combine(w, 0.5, 10))
	assert.Greater(t, Combine(w, 0.5, 20), Combine(w, 0.5, 10))
	assert.Equal(t, Combine(Weights{Vector: 1}, 0.7, 500), 0.7)
}

func TestPlainFields(t *testing.T) {
	assert.Equal(t, corpus.TextFields, PlainFields([]string{"cam"}))
	assert.Equal(t, []corpus.Field{corpus.FieldShortDesc}, PlainFields([]string{"cam", "duvar"}))
}

func TestEngineTextStage(t *testing.T) {
	store := corpus.NewMemoryStore(camCorpus())
	e := NewEngine(store, nil, nil, Options{}, nil)

	resp, err := e.Search(context.Background(), corpus.Query{Text: "cam"})
	require.NoError(t, err)
	assert.Equal(t, StageText, resp.Stage)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "L-1", resp.Results[0].Document.LetterNo)
	assert.Equal(t, corpus.SourceText, resp.Results[0].Source)
}

func TestEngineSynonymMatch(t *testing.T) {
	store := corpus.NewMemoryStore([]corpus.Document{
		{LetterNo: "W-1", ShortDesc: "Pencere montajı"},
		{LetterNo: "W-2", ShortDesc: "Beton dökümü"},
	})
	e := NewEngine(store, nil, nil, Options{}, nil)

	resp, err := e.Search(context.Background(), corpus.Query{Text: "cam"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "W-1", resp.Results[0].Document.LetterNo)
}

func TestEnginePlainFallback(t *testing.T) {
	docs := []corpus.Document{{LetterNo: "P-1", ShortDesc: "alpha"}}
	store := corpus.NewMemoryStore(docs)
	e := NewEngine(store, nil, nil, Options{}, nil)

	text := &fixedStrategy{name: StageText}
	plain := &plainStrategy{e: e}
	resp, err := e.Run(context.Background(), corpus.Query{Text: "alpha", Limit: 10}, []Strategy{text, plain})
	require.NoError(t, err)
	assert.Equal(t, StagePlain, resp.Stage)
	assert.Equal(t, 1, text.calls)
	require.Len(t, resp.Results, 1)
}

func TestEngineHybridStage(t *testing.T) {
	docs := []corpus.Document{
		{LetterNo: "H-1", ShortDesc: "Cam cephe", Embedding: []float32{1, 0}},
		{LetterNo: "H-2", ShortDesc: "Beton", Embedding: []float32{0, 1}},
		{LetterNo: "H-3", ShortDesc: "Kapı", Embedding: []float32{0.8, 0.6}},
	}
	store := corpus.NewMemoryStore(docs)
	e := NewEngine(store, stubEmbedder{vec: []float32{1, 0}}, nil, Options{}, nil)

	t.Run("auto uses hybrid when embeddings exist", func(t *testing.T) {
		resp, err := e.Search(context.Background(), corpus.Query{Text: "cam"})
		require.NoError(t, err)
		assert.Equal(t, StageHybrid, resp.Stage)
		require.Len(t, resp.Results, 2)
		assert.Equal(t, "H-1", resp.Results[0].Document.LetterNo)
		assert.Equal(t, "H-3", resp.Results[1].Document.LetterNo)
		assert.Equal(t, corpus.SourceHybrid, resp.Results[0].Source)
		assert.Nil(t, resp.Results[0].Document.Embedding)
	})

	t.Run("vector mode ignores lexical score", func(t *testing.T) {
		resp, err := e.Search(context.Background(), corpus.Query{Text: "cam", Mode: corpus.ModeVector})
		require.NoError(t, err)
		assert.Equal(t, StageVector, resp.Stage)
		require.Len(t, resp.Results, 2)
		assert.InDelta(t, 1.0, resp.Results[0].Score, 1e-6)
		assert.InDelta(t, 0.8, resp.Results[1].Score, 1e-6)
		assert.Equal(t, corpus.SourceVector, resp.Results[1].Source)
	})

	t.Run("text mode skips vectors", func(t *testing.T) {
		resp, err := e.Search(context.Background(), corpus.Query{Text: "cam", Mode: corpus.ModeText})
		require.NoError(t, err)
		assert.Equal(t, StageText, resp.Stage)
	})
}

func TestEngineEmptyQuery(t *testing.T) {
	docs := []corpus.Document{
		{LetterNo: "D-1", LetterDate: day("2024-01-05")},
		{LetterNo: "D-2", LetterDate: day("2024-02-10")},
		{LetterNo: "D-3", LetterDate: day("2023-12-01")},
		{LetterNo: "D-4"},
	}
	e := NewEngine(corpus.NewMemoryStore(docs), nil, nil, Options{}, nil)

	t.Run("no filters returns nothing", func(t *testing.T) {
		resp, err := e.Search(context.Background(), corpus.Query{Text: "  "})
		require.NoError(t, err)
		assert.Empty(t, resp.Results)
		assert.Equal(t, StageNone, resp.Stage)
	})

	t.Run("date filter lists newest first", func(t *testing.T) {
		resp, err := e.Search(context.Background(), corpus.Query{
			Filters: corpus.Filters{DateFrom: day("2024-01-01")},
		})
		require.NoError(t, err)
		assert.Equal(t, StageFilterOnly, resp.Stage)
		require.Len(t, resp.Results, 2)
		assert.Equal(t, "D-2", resp.Results[0].Document.LetterNo)
		assert.Equal(t, "D-1", resp.Results[1].Document.LetterNo)
	})
}

func TestEngineFilters(t *testing.T) {
	docs := []corpus.Document{
		{LetterNo: "F-1", ShortDesc: "cam", IncOut: "gelen", SeverityRate: "yüksek"},
		{LetterNo: "F-2", ShortDesc: "cam", IncOut: "giden", SeverityRate: "low"},
	}
	e := NewEngine(corpus.NewMemoryStore(docs), nil, nil, Options{}, nil)

	resp, err := e.Search(context.Background(), corpus.Query{
		Text:    "cam",
		Filters: corpus.Filters{Direction: corpus.DirectionInbound},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "F-1", resp.Results[0].Document.LetterNo)

	resp, err = e.Search(context.Background(), corpus.Query{
		Text:    "cam",
		Filters: corpus.Filters{Severity: corpus.SeverityLow},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "F-2", resp.Results[0].Document.LetterNo)
}

func TestSeverityFilterAgreesWithScorer(t *testing.T) {
	e := NewEngine(corpus.NewMemoryStore(nil), nil, nil, Options{}, nil)
	raws := []string{"yüksek", "HIGH", "9", "4.5", " 4,5 ", "4", "3", "3,5", "orta", "2.9", "0.5", "1", "0", "-2", "1e5", "n/a", ""}
	levels := []corpus.Severity{corpus.SeverityLow, corpus.SeverityMedium, corpus.SeverityHigh}

	for _, raw := range raws {
		for _, level := range levels {
			p := e.predicate(corpus.Filters{Severity: level})
			want := e.lex.Severity(raw) == level
			assert.Equal(t, want, p.Matches(corpus.Document{SeverityRate: raw}), "raw %q level %s", raw, level)
		}
	}
}

func TestEngineNumericSeverityFilter(t *testing.T) {
	docs := []corpus.Document{
		{LetterNo: "S-1", ShortDesc: "cam", SeverityRate: "9"},
		{LetterNo: "S-2", ShortDesc: "cam", SeverityRate: "4.5"},
		{LetterNo: "S-3", ShortDesc: "cam", SeverityRate: "3,5"},
		{LetterNo: "S-4", ShortDesc: "cam", SeverityRate: "kritik"},
	}
	e := NewEngine(corpus.NewMemoryStore(docs), nil, nil, Options{}, nil)

	resp, err := e.Search(context.Background(), corpus.Query{
		Text:    "cam",
		Filters: corpus.Filters{Severity: corpus.SeverityHigh},
	})
	require.NoError(t, err)
	var got []string
	for _, r := range resp.Results {
		got = append(got, r.Document.LetterNo)
	}
	assert.ElementsMatch(t, []string{"S-1", "S-2", "S-4"}, got)
}

func TestEngineLimit(t *testing.T) {
	var docs []corpus.Document
	for _, n := range []string{"a", "b", "c", "d"} {
		docs = append(docs, corpus.Document{LetterNo: n, Content: "cam"})
	}
	e := NewEngine(corpus.NewMemoryStore(docs), nil, nil, Options{}, nil)

	resp, err := e.Search(context.Background(), corpus.Query{Text: "cam", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
}

func TestEngineInvalidQuery(t *testing.T) {
	e := NewEngine(corpus.NewMemoryStore(nil), nil, nil, Options{}, nil)
	_, err := e.Search(context.Background(), corpus.Query{Text: "cam", Limit: -1})
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestEngineLimitOutOfRange(t *testing.T) {
	// A store call would surface as ErrServiceUnavailable.
	e := NewEngine(failingStore{}, nil, nil, Options{}, nil)
	for _, limit := range []int{corpus.MaxLimit + 1, math.MaxInt} {
		_, err := e.Search(context.Background(), corpus.Query{Text: "cam", Limit: limit})
		assert.True(t, apperrors.IsInvalidInput(err), "limit %d", limit)
	}

	e = NewEngine(corpus.NewMemoryStore(nil), nil, nil, Options{DefaultLimit: math.MaxInt}, nil)
	assert.Equal(t, corpus.MaxLimit, e.opts.DefaultLimit)
}

func TestEngineAllStagesFail(t *testing.T) {
	e := NewEngine(failingStore{}, stubEmbedder{vec: []float32{1}}, nil, Options{}, nil)
	_, err := e.Search(context.Background(), corpus.Query{Text: "cam"})
	require.Error(t, err)
	assert.True(t, apperrors.IsServiceUnavailable(err))
}

func TestEngineRunFallback(t *testing.T) {
	e := NewEngine(corpus.NewMemoryStore(nil), nil, nil, Options{}, nil)
	want := []corpus.ScoredResult{{Document: corpus.Document{LetterNo: "X"}}}

	broken := &fixedStrategy{name: "broken", err: errors.New("boom")}
	empty := &fixedStrategy{name: "empty"}
	good := &fixedStrategy{name: "good", results: want}
	never := &fixedStrategy{name: "never", results: want}

	resp, err := e.Run(context.Background(), corpus.Query{Text: "x"}, []Strategy{broken, empty, good, never})
	require.NoError(t, err)
	assert.Equal(t, "good", resp.Stage)
	assert.Equal(t, want, resp.Results)
	assert.Zero(t, never.calls)

	resp, err = e.Run(context.Background(), corpus.Query{Text: "x"}, []Strategy{empty, broken})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, StageNone, resp.Stage)
}

func TestLatest(t *testing.T) {
	l := NewLatest()

	ctx1, tok1 := l.Begin(context.Background(), "client")
	assert.True(t, tok1.Current())

	ctx2, tok2 := l.Begin(context.Background(), "client")
	assert.False(t, tok1.Current())
	assert.True(t, tok2.Current())
	assert.ErrorIs(t, ctx1.Err(), context.Canceled)
	assert.NoError(t, ctx2.Err())

	_, other := l.Begin(context.Background(), "someone-else")
	assert.True(t, other.Current())
	assert.Equal(t, 2, l.Pending())

	tok1.Done()
	assert.Equal(t, 2, l.Pending())
	tok2.Done()
	tok2.Done()
	other.Done()
	assert.Zero(t, l.Pending())
	assert.ErrorIs(t, ctx2.Err(), context.Canceled)
}

// blockingStore blocks Find until its context is cancelled or release is
// closed.
type blockingStore struct {
	*corpus.MemoryStore
	started chan struct{}
	release chan struct{}
}

func (b *blockingStore) Find(ctx context.Context, p corpus.Predicate) ([]corpus.Document, error) {
	close(b.started)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.release:
	}
	return b.MemoryStore.Find(ctx, p)
}

func TestSearchLatestSuperseded(t *testing.T) {
	blocking := &blockingStore{
		MemoryStore: corpus.NewMemoryStore(camCorpus()),
		started:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	slow := NewEngine(blocking, nil, nil, Options{}, nil)
	fast := NewEngine(corpus.NewMemoryStore(camCorpus()), nil, nil, Options{}, nil)
	l := NewLatest()

	errc := make(chan error, 1)
	go func() {
		_, err := slow.SearchLatest(context.Background(), l, "client", corpus.Query{Text: "cam"})
		errc <- err
	}()
	<-blocking.started

	resp, err := fast.SearchLatest(context.Background(), l, "client", corpus.Query{Text: "cam"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Results)

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded search did not return")
	}
}
