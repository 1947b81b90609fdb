package corpus

import (
	"context"
	"strings"
	"time"
)

// Field names a searchable text column of a document.
type Field string

const (
	FieldContent    Field = "content"
	FieldShortDesc  Field = "short_desc"
	FieldKeywords   Field = "keywords"
	FieldLetterNo   Field = "letter_no"
	FieldInternalNo Field = "internal_no"
)

// TextFields are all fields a term may match.
var TextFields = []Field{FieldContent, FieldShortDesc, FieldKeywords, FieldLetterNo, FieldInternalNo}

// Value returns the document's value for the field.
func (f Field) Value(d Document) string {
	switch f {
	case FieldContent:
		return d.Content
	case FieldShortDesc:
		return d.ShortDesc
	case FieldKeywords:
		return d.Keywords
	case FieldLetterNo:
		return d.LetterNo
	case FieldInternalNo:
		return d.InternalNo
	default:
		return ""
	}
}

// Predicate describes a filtered fetch. Terms are OR'ed substring matches
// over Fields; every other member is AND'ed. Token lists are compared
// case-insensitively against the trimmed column value.
type Predicate struct {
	Terms           []string
	Fields          []Field
	DateFrom        *time.Time
	DateTo          *time.Time
	Type            string
	SeverityTokens  []string
	// SeverityBand, when set, also admits numeric severity_rate values in
	// the band unless the value is one of SeverityExclude.
	SeverityBand    *SeverityBand
	SeverityExclude []string
	DirectionTokens []string
	Keywords        []string
	LetterNo        string
	Limit           int
	Offset          int
}

// HasTerms reports whether the predicate carries a term disjunction.
func (p Predicate) HasTerms() bool {
	return len(p.Terms) > 0 && len(p.Fields) > 0
}

// Similar is a document returned by a vector lookup.
type Similar struct {
	Document   Document
	Similarity float64
}

// Store is the backing store the core reads from. Implementations must be
// safe for concurrent use.
type Store interface {
	// HasEmbeddings reports whether any document has a stored embedding.
	HasEmbeddings(ctx context.Context) (bool, error)

	// Find returns documents matching p, newest first.
	Find(ctx context.Context, p Predicate) ([]Document, error)

	// FindByLetterNos returns documents whose letter_no matches one of ids,
	// ignoring case and whitespace, in the same order Relations uses.
	FindByLetterNos(ctx context.Context, ids []string) ([]Document, error)

	// NearestByEmbedding returns documents whose embedding has cosine
	// similarity above threshold with vec, most similar first.
	NearestByEmbedding(ctx context.Context, vec []float32, threshold float64, limit int, p Predicate) ([]Similar, error)

	// Relations returns the projection used to build the reference graph.
	Relations(ctx context.Context) ([]Document, error)
}

// Matches evaluates p against d in memory, with the same semantics the SQL
// store applies.
func (p Predicate) Matches(d Document) bool {
	if p.HasTerms() && !p.matchesTerms(d) {
		return false
	}
	if p.DateFrom != nil || p.DateTo != nil {
		if !d.HasDate() {
			return false
		}
		if p.DateFrom != nil && d.LetterDate.Before(*p.DateFrom) {
			return false
		}
		if p.DateTo != nil && d.LetterDate.After(*p.DateTo) {
			return false
		}
	}
	if t := strings.TrimSpace(p.Type); t != "" && !strings.EqualFold(strings.TrimSpace(d.LetterType), t) {
		return false
	}
	if (len(p.SeverityTokens) > 0 || p.SeverityBand != nil) && !p.matchesSeverity(d.SeverityRate) {
		return false
	}
	if len(p.DirectionTokens) > 0 && !inTokens(d.IncOut, p.DirectionTokens) {
		return false
	}
	keywords := strings.ToLower(d.Keywords)
	for _, kw := range p.Keywords {
		if !strings.Contains(keywords, strings.ToLower(kw)) {
			return false
		}
	}
	if n := strings.TrimSpace(p.LetterNo); n != "" && !containsFold(d.LetterNo, n) {
		return false
	}
	return true
}

func (p Predicate) matchesTerms(d Document) bool {
	for _, f := range p.Fields {
		v := f.Value(d)
		if v == "" {
			continue
		}
		for _, t := range p.Terms {
			if containsFold(v, t) {
				return true
			}
		}
	}
	return false
}

func (p Predicate) matchesSeverity(raw string) bool {
	if inTokens(raw, p.SeverityTokens) {
		return true
	}
	if p.SeverityBand == nil || inTokens(raw, p.SeverityExclude) {
		return false
	}
	n, ok := ParseSeverityNumber(raw)
	return ok && p.SeverityBand.Contains(n)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func inTokens(value string, tokens []string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, t := range tokens {
		if v == strings.ToLower(t) {
			return true
		}
	}
	return false
}
