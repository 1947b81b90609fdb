// Package corpus holds the correspondence document model shared by retrieval
// and graph code, the Store port they read through, and an in-memory Store.
package corpus

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// DateLayout is the calendar layout used for letter dates on the wire.
const DateLayout = "2006-01-02"

// Document is one correspondence item. The core never mutates it.
type Document struct {
	ID           uuid.UUID  `json:"id"`
	LetterNo     string     `json:"letter_no"`
	InternalNo   string     `json:"internal_no,omitempty"`
	LetterDate   *time.Time `json:"letter_date,omitempty"`
	LetterType   string     `json:"letter_type,omitempty"`
	ShortDesc    string     `json:"short_desc,omitempty"`
	Content      string     `json:"content,omitempty"`
	Keywords     string     `json:"keywords,omitempty"`
	RefLetters   string     `json:"ref_letters,omitempty"`
	IncOut       string     `json:"inc_out,omitempty"`
	SeverityRate string     `json:"severity_rate,omitempty"`
	Embedding    []float32  `json:"embedding,omitempty"`
}

// HasDate reports whether the document carries a usable letter date.
func (d Document) HasDate() bool {
	return d.LetterDate != nil && !d.LetterDate.IsZero()
}

// References returns the trimmed, non-empty entries of RefLetters.
func (d Document) References() []string {
	return SplitList(d.RefLetters)
}

// KeywordList returns the trimmed, non-empty entries of Keywords.
func (d Document) KeywordList() []string {
	return SplitList(d.Keywords)
}

// SplitList splits a comma or semicolon separated field, trimming each entry
// and dropping empties.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NormalizeID is the key used to match letter numbers: lowercase with all
// whitespace removed.
func NormalizeID(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ParseDate parses a letter date in DateLayout or RFC 3339 form.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
