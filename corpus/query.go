package corpus

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "correspondence/errors"
)

// Mode selects which retrieval stages run.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeVector Mode = "vector"
	ModeHybrid Mode = "hybrid"
	ModeText   Mode = "text"
)

// ParseMode converts a string to a Mode, returning an error for invalid values.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "vector", "semantic":
		return ModeVector, nil
	case "hybrid":
		return ModeHybrid, nil
	case "text", "keyword":
		return ModeText, nil
	default:
		return "", fmt.Errorf("invalid search mode %q (valid: auto, vector, hybrid, text)", s)
	}
}

// Provenance tags which stage produced a result.
type Provenance string

const (
	SourceVector Provenance = "vector"
	SourceHybrid Provenance = "hybrid"
	SourceText   Provenance = "text"
)

// Filters are the structured constraints of a query. Zero values mean "no
// constraint".
type Filters struct {
	DateFrom  *time.Time `json:"date_from,omitempty"`
	DateTo    *time.Time `json:"date_to,omitempty"`
	Type      string     `json:"type,omitempty"`
	Severity  Severity   `json:"severity,omitempty"`
	Direction Direction  `json:"direction,omitempty"`
	Keywords  []string   `json:"keywords,omitempty"`
	LetterNo  string     `json:"letter_no,omitempty"`
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f.DateFrom == nil && f.DateTo == nil &&
		strings.TrimSpace(f.Type) == "" &&
		f.Severity == SeverityUnknown &&
		f.Direction == DirectionUnknown &&
		len(f.Keywords) == 0 &&
		strings.TrimSpace(f.LetterNo) == ""
}

// MaxLimit bounds the number of results a single query may request.
const MaxLimit = 1000

// Query is one retrieval request.
type Query struct {
	Text    string  `json:"text"`
	Filters Filters `json:"filters"`
	Mode    Mode    `json:"mode"`
	Limit   int     `json:"limit"`
}

// Validate rejects malformed queries before any fetch is made.
func (q Query) Validate() error {
	if q.Limit < 0 {
		return apperrors.InvalidInputf("limit must not be negative, got %d", q.Limit)
	}
	if q.Limit > MaxLimit {
		return apperrors.InvalidInputf("limit must be at most %d, got %d", MaxLimit, q.Limit)
	}
	if q.Mode != "" {
		if _, err := ParseMode(string(q.Mode)); err != nil {
			return apperrors.InvalidInputf("%v", err)
		}
	}
	f := q.Filters
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return apperrors.InvalidInputf("date_from %s is after date_to %s",
			f.DateFrom.Format(DateLayout), f.DateTo.Format(DateLayout))
	}
	return nil
}

// RawFilters carries filter values as received from HTTP or CLI input.
type RawFilters struct {
	DateFrom  string
	DateTo    string
	Type      string
	Severity  string
	Direction string
	Keywords  string
	LetterNo  string
	Mode      string
	Limit     string
}

// ParseQuery builds a validated Query from text and raw filter strings.
func ParseQuery(text string, raw RawFilters) (Query, error) {
	q := Query{Text: text}

	mode, err := ParseMode(raw.Mode)
	if err != nil {
		return Query{}, apperrors.InvalidInputf("%v", err)
	}
	q.Mode = mode

	if s := strings.TrimSpace(raw.Limit); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Query{}, apperrors.InvalidInputf("limit %q is not a number", raw.Limit)
		}
		q.Limit = n
	}
	if s := strings.TrimSpace(raw.DateFrom); s != "" {
		t, err := ParseDate(s)
		if err != nil {
			return Query{}, apperrors.InvalidInputf("date_from %q is not a date", raw.DateFrom)
		}
		q.Filters.DateFrom = &t
	}
	if s := strings.TrimSpace(raw.DateTo); s != "" {
		t, err := ParseDate(s)
		if err != nil {
			return Query{}, apperrors.InvalidInputf("date_to %q is not a date", raw.DateTo)
		}
		q.Filters.DateTo = &t
	}
	if q.Filters.Severity, err = ParseSeverity(raw.Severity); err != nil {
		return Query{}, apperrors.InvalidInputf("%v", err)
	}
	if q.Filters.Direction, err = ParseDirection(raw.Direction); err != nil {
		return Query{}, apperrors.InvalidInputf("%v", err)
	}
	q.Filters.Type = strings.TrimSpace(raw.Type)
	q.Filters.Keywords = SplitList(raw.Keywords)
	q.Filters.LetterNo = strings.TrimSpace(raw.LetterNo)

	if err := q.Validate(); err != nil {
		return Query{}, err
	}
	return q, nil
}

// ScoredResult is a ranked document. It is never persisted.
type ScoredResult struct {
	Document Document   `json:"document"`
	Score    float64    `json:"score"`
	Source   Provenance `json:"source"`
}
