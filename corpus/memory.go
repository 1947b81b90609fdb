package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
)

// MemoryStore is a Store over an in-memory slice of documents. It backs the
// offline --corpus mode and tests.
type MemoryStore struct {
	docs []Document
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore copies docs into a new store.
func NewMemoryStore(docs []Document) *MemoryStore {
	cp := make([]Document, len(docs))
	copy(cp, docs)
	return &MemoryStore{docs: cp}
}

// LoadDocuments reads a JSON array of documents from path.
func LoadDocuments(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}
	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decode corpus file %s: %w", path, err)
	}
	return docs, nil
}

// LoadMemoryStore reads a JSON array of documents from path.
func LoadMemoryStore(path string) (*MemoryStore, error) {
	docs, err := LoadDocuments(path)
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(docs), nil
}

// Len returns the number of documents held.
func (m *MemoryStore) Len() int {
	return len(m.docs)
}

func (m *MemoryStore) HasEmbeddings(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	for _, d := range m.docs {
		if len(d.Embedding) > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) Find(ctx context.Context, p Predicate) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Document
	for _, d := range m.docs {
		if p.Matches(d) {
			out = append(out, d)
		}
	}
	SortByDateDesc(out)
	return paginate(out, p.Offset, p.Limit), nil
}

func (m *MemoryStore) FindByLetterNos(ctx context.Context, ids []string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[NormalizeID(id)] = struct{}{}
	}
	var out []Document
	for _, d := range m.docs {
		if _, ok := want[NormalizeID(d.LetterNo)]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MemoryStore) NearestByEmbedding(ctx context.Context, vec []float32, threshold float64, limit int, p Predicate) ([]Similar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Similar
	for _, d := range m.docs {
		if len(d.Embedding) == 0 || len(d.Embedding) != len(vec) {
			continue
		}
		if !p.Matches(d) {
			continue
		}
		sim := CosineSimilarity(vec, d.Embedding)
		if sim > threshold {
			out = append(out, Similar{Document: d, Similarity: sim})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Relations(ctx context.Context) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Document, len(m.docs))
	for i, d := range m.docs {
		d.Embedding = nil
		out[i] = d
	}
	return out, nil
}

// SortByDateDesc orders documents newest first; undated documents go last.
func SortByDateDesc(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if !a.HasDate() || !b.HasDate() {
			return a.HasDate() && !b.HasDate()
		}
		return a.LetterDate.After(*b.LetterDate)
	})
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either is a zero vector or their lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func paginate(docs []Document, offset, limit int) []Document {
	if offset > 0 {
		if offset >= len(docs) {
			return nil
		}
		docs = docs[offset:]
	}
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs
}
