package retrieval

import (
	"strings"
	"time"
	"unicode/utf8"

	"correspondence/corpus"
	"correspondence/lexicon"
)

// Weights of the lexical score components.
const (
	ExactMatchBonus = 100.0
	ShortDescWeight = 20.0
	KeywordsWeight  = 15.0
	ContentWeight   = 10.0
	RecencyBonus    = 10.0

	SeverityHighBonus   = 15.0
	SeverityMediumBonus = 8.0
	SeverityLowBonus    = 3.0

	DefaultRecencyWindow = 30 * 24 * time.Hour
)

// Scorer computes an unbounded relevance score of a document for a query.
// Scores are only comparable within one query.
type Scorer struct {
	lex           *lexicon.Lexicon
	recencyWindow time.Duration
	now           func() time.Time
}

// NewScorer returns a scorer using lex for severity buckets. A window <= 0
// uses DefaultRecencyWindow.
func NewScorer(lex *lexicon.Lexicon, recencyWindow time.Duration) *Scorer {
	if recencyWindow <= 0 {
		recencyWindow = DefaultRecencyWindow
	}
	return &Scorer{lex: lex, recencyWindow: recencyWindow, now: time.Now}
}

// Score sums the exact-match bonus, per-field keyword hits, recency and
// severity bonuses. expanded is the output of Expand for query.
func (s *Scorer) Score(doc corpus.Document, query string, expanded []string) float64 {
	q := fold(strings.TrimSpace(query))
	content := fold(doc.Content)
	shortDesc := fold(doc.ShortDesc)
	keywords := fold(doc.Keywords)

	var score float64
	if q != "" && (strings.Contains(content, q) || strings.Contains(shortDesc, q) || strings.Contains(keywords, q)) {
		score += ExactMatchBonus
	}

	for _, kw := range expanded {
		k := fold(kw)
		if k == "" || k == q {
			continue
		}
		scale := lengthScale(k)
		if strings.Contains(shortDesc, k) {
			score += ShortDescWeight * scale
		}
		if strings.Contains(keywords, k) {
			score += KeywordsWeight * scale
		}
		if strings.Contains(content, k) {
			score += ContentWeight * scale
		}
	}

	score += s.recency(doc)
	score += s.severity(doc)
	return score
}

// lengthScale damps short keywords: n/(n+1) for a keyword of n runes.
func lengthScale(k string) float64 {
	n := float64(utf8.RuneCountInString(k))
	return n / (n + 1)
}

func (s *Scorer) recency(doc corpus.Document) float64 {
	if !doc.HasDate() {
		return 0
	}
	age := s.now().Sub(*doc.LetterDate)
	if age < 0 {
		age = 0
	}
	if age > s.recencyWindow {
		return 0
	}
	return RecencyBonus * (1 - float64(age)/float64(s.recencyWindow))
}

func (s *Scorer) severity(doc corpus.Document) float64 {
	switch s.lex.Severity(doc.SeverityRate) {
	case corpus.SeverityHigh:
		return SeverityHighBonus
	case corpus.SeverityMedium:
		return SeverityMediumBonus
	case corpus.SeverityLow:
		return SeverityLowBonus
	default:
		return 0
	}
}
