package embedding

import (
	"context"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"correspondence/lexicon"
)

const (
	domainTermIDF   = 2.5
	synonymWeight   = 0.5
	maxSynonyms     = 3
	positionalRunes = 8
	positionalScale = 0.25
	hashMultiplier  = 31
)

// hashSalts seed the independent rolling hashes scattered per token.
var hashSalts = [...]uint32{0, 0x9e3779b9, 0x85ebca6b}

// Synthetic is a deterministic, corpus-independent pseudo-embedding. It
// approximates topical similarity through hashed term weights and lexicon
// synonyms; it is not a learned embedding.
type Synthetic struct {
	dimension int
	lex       *lexicon.Lexicon
}

var _ Embedder = (*Synthetic)(nil)

// NewSynthetic returns a synthetic embedder producing dimension-length
// vectors. A nil lexicon uses the defaults.
func NewSynthetic(dimension int, lex *lexicon.Lexicon) *Synthetic {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Synthetic{dimension: dimension, lex: lex}
}

func (s *Synthetic) Dimension() int {
	return s.dimension
}

// Embed never fails.
func (s *Synthetic) Embed(_ context.Context, text string) ([]float32, error) {
	return s.Vector(text), nil
}

// Vector computes the synthetic embedding of text. Empty or all-stop-word
// text yields the zero vector.
func (s *Synthetic) Vector(text string) []float32 {
	acc := make([]float64, s.dimension)

	tokens := s.tokenize(text)
	if len(tokens) > 0 {
		counts := make(map[string]int, len(tokens))
		order := make([]string, 0, len(tokens))
		for _, tok := range tokens {
			if counts[tok] == 0 {
				order = append(order, tok)
			}
			counts[tok]++
		}

		total := float64(len(tokens))
		for _, tok := range order {
			weight := float64(counts[tok]) / total * s.idf(tok)
			s.scatter(acc, tok, weight)

			syns := s.lex.Synonyms(tok)
			if len(syns) > maxSynonyms {
				syns = syns[:maxSynonyms]
			}
			for _, syn := range syns {
				for _, st := range s.tokenize(syn) {
					s.scatter(acc, st, weight*synonymWeight)
				}
			}
		}
	}

	return normalize(acc)
}

// tokenize lowercases, replaces punctuation with spaces, splits on
// whitespace and drops single-rune tokens and stop words.
func (s *Synthetic) tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)

	fields := strings.Fields(cleaned)
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) < 2 || s.lex.IsStopWord(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// idf is a static approximation: domain vocabulary gets a high constant,
// everything else scales with token length.
func (s *Synthetic) idf(token string) float64 {
	if s.lex.IsDomainTerm(token) {
		return domainTermIDF
	}
	n := utf8.RuneCountInString(token)
	if n > 10 {
		n = 10
	}
	return 1 + float64(n)/10
}

func (s *Synthetic) scatter(acc []float64, token string, weight float64) {
	dim := uint32(len(acc))
	for _, salt := range hashSalts {
		h := rollingHash(token, salt)
		sign := 1.0
		if h&0x80000000 != 0 {
			sign = -1.0
		}
		acc[h%dim] += sign * weight

		j := 0
		for _, r := range token {
			if j >= positionalRunes {
				break
			}
			idx := (h + uint32(r)*uint32(j+1)) % dim
			acc[idx] += sign * weight * positionalScale / float64(j+1)
			j++
		}
	}
}

func rollingHash(token string, salt uint32) uint32 {
	h := salt
	for _, r := range token {
		h = h*hashMultiplier + uint32(r) + salt
	}
	return h
}

func normalize(acc []float64) []float32 {
	var sum float64
	for _, v := range acc {
		sum += v * v
	}
	out := make([]float32, len(acc))
	if sum == 0 {
		return out
	}
	mag := math.Sqrt(sum)
	for i, v := range acc {
		out[i] = float32(v / mag)
	}
	return out
}
