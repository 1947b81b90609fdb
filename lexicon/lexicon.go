// Package lexicon holds the vocabulary tables the scorer, the synthetic
// embedder and the field classifiers read: synonyms, stop words, domain
// terms, suffixes and the direction and severity token sets.
//
// A Lexicon is immutable after construction and safe for concurrent use.
// Tables can be loaded from YAML to extend or replace the defaults.
package lexicon

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"correspondence/corpus"

	"github.com/goccy/go-yaml"
)

// minRootRunes is the shortest root a suffix may be stripped down to.
const minRootRunes = 3

// Tables is the serialized form of a lexicon.
type Tables struct {
	Synonyms    map[string][]string `yaml:"synonyms"`
	StopWords   []string            `yaml:"stop_words"`
	DomainTerms []string            `yaml:"domain_terms"`
	Suffixes    []string            `yaml:"suffixes"`
	Inbound     []string            `yaml:"inbound"`
	Outbound    []string            `yaml:"outbound"`
	Severity    SeverityTables      `yaml:"severity"`
}

// SeverityTables lists the raw severity_rate values for each bucket.
type SeverityTables struct {
	High   []string `yaml:"high"`
	Medium []string `yaml:"medium"`
	Low    []string `yaml:"low"`
}

// Lexicon is a compiled, read-only view of Tables.
type Lexicon struct {
	synonyms    map[string][]string
	stopWords   map[string]struct{}
	domainTerms map[string]struct{}
	suffixes    []string
	directions  map[string]corpus.Direction
	severities  map[string]corpus.Severity
	tables      Tables
}

// New compiles tables into a Lexicon. Keys and tokens are lowercased.
func New(t Tables) *Lexicon {
	l := &Lexicon{
		synonyms:    make(map[string][]string, len(t.Synonyms)),
		stopWords:   toSet(t.StopWords),
		domainTerms: toSet(t.DomainTerms),
		directions:  make(map[string]corpus.Direction),
		severities:  make(map[string]corpus.Severity),
		tables:      t,
	}
	for k, syns := range t.Synonyms {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		for _, s := range syns {
			s = strings.ToLower(strings.TrimSpace(s))
			if s != "" && s != key {
				l.synonyms[key] = append(l.synonyms[key], s)
			}
		}
	}

	for _, s := range t.Suffixes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			l.suffixes = append(l.suffixes, s)
		}
	}
	// Longest suffix first so "ları" wins over "ı".
	sort.SliceStable(l.suffixes, func(i, j int) bool {
		return utf8.RuneCountInString(l.suffixes[i]) > utf8.RuneCountInString(l.suffixes[j])
	})

	for _, tok := range t.Inbound {
		l.directions[normToken(tok)] = corpus.DirectionInbound
	}
	for _, tok := range t.Outbound {
		l.directions[normToken(tok)] = corpus.DirectionOutbound
	}
	for _, tok := range t.Severity.Low {
		l.severities[normToken(tok)] = corpus.SeverityLow
	}
	for _, tok := range t.Severity.Medium {
		l.severities[normToken(tok)] = corpus.SeverityMedium
	}
	for _, tok := range t.Severity.High {
		l.severities[normToken(tok)] = corpus.SeverityHigh
	}
	delete(l.directions, "")
	delete(l.severities, "")
	return l
}

// Load reads YAML tables from path and overlays them on the defaults: every
// section present in the file replaces the default section.
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon file: %w", err)
	}
	var file Tables
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode lexicon file %s: %w", path, err)
	}

	t := DefaultTables()
	if file.Synonyms != nil {
		t.Synonyms = file.Synonyms
	}
	if file.StopWords != nil {
		t.StopWords = file.StopWords
	}
	if file.DomainTerms != nil {
		t.DomainTerms = file.DomainTerms
	}
	if file.Suffixes != nil {
		t.Suffixes = file.Suffixes
	}
	if file.Inbound != nil {
		t.Inbound = file.Inbound
	}
	if file.Outbound != nil {
		t.Outbound = file.Outbound
	}
	if file.Severity.High != nil || file.Severity.Medium != nil || file.Severity.Low != nil {
		t.Severity = file.Severity
	}
	return New(t), nil
}

// Tables returns the tables the lexicon was compiled from.
func (l *Lexicon) Tables() Tables {
	return l.tables
}

// Synonyms returns the listed synonyms for token, or nil.
func (l *Lexicon) Synonyms(token string) []string {
	return l.synonyms[strings.ToLower(token)]
}

// HasSynonyms reports whether token is a key of the synonym table.
func (l *Lexicon) HasSynonyms(token string) bool {
	_, ok := l.synonyms[strings.ToLower(token)]
	return ok
}

// IsStopWord reports whether token is in the stop-word set.
func (l *Lexicon) IsStopWord(token string) bool {
	_, ok := l.stopWords[strings.ToLower(token)]
	return ok
}

// IsDomainTerm reports whether token is in the domain vocabulary.
func (l *Lexicon) IsDomainTerm(token string) bool {
	_, ok := l.domainTerms[strings.ToLower(token)]
	return ok
}

// Root strips a suffix from token, keeping at least three runes. A root that
// is a synonym key wins; otherwise the longest strippable suffix is removed.
// Tokens without a matching suffix are returned unchanged.
func (l *Lexicon) Root(token string) string {
	token = strings.ToLower(token)
	n := utf8.RuneCountInString(token)
	fallback := ""
	for _, suf := range l.suffixes {
		if !strings.HasSuffix(token, suf) || n-utf8.RuneCountInString(suf) < minRootRunes {
			continue
		}
		root := strings.TrimSuffix(token, suf)
		if _, ok := l.synonyms[root]; ok {
			return root
		}
		if fallback == "" {
			fallback = root
		}
	}
	if fallback != "" {
		return fallback
	}
	return token
}

// Direction classifies a raw inc_out value. Unrecognized values are Unknown.
func (l *Lexicon) Direction(raw string) corpus.Direction {
	return l.directions[normToken(raw)]
}

// DirectionTokens returns every raw token that classifies as d.
func (l *Lexicon) DirectionTokens(d corpus.Direction) []string {
	return tokensFor(l.directions, d)
}

var severityBands = []struct {
	level corpus.Severity
	band  corpus.SeverityBand
}{
	{corpus.SeverityHigh, corpus.SeverityBand{Min: 4}},
	{corpus.SeverityMedium, corpus.SeverityBand{Min: 3, Max: 4}},
	{corpus.SeverityLow, corpus.SeverityBand{Min: 0, MinOpen: true, Max: 3}},
}

// Severity classifies a raw severity_rate value. Token table entries win;
// other numeric values map 4+ to high, 3 to medium and below to low.
func (l *Lexicon) Severity(raw string) corpus.Severity {
	key := normToken(raw)
	if s, ok := l.severities[key]; ok {
		return s
	}
	n, ok := corpus.ParseSeverityNumber(key)
	if !ok {
		return corpus.SeverityUnknown
	}
	for _, b := range severityBands {
		if b.band.Contains(n) {
			return b.level
		}
	}
	return corpus.SeverityUnknown
}

// SeverityBand returns the numeric range classified as s by Severity when
// the value is not in the token table.
func (l *Lexicon) SeverityBand(s corpus.Severity) (corpus.SeverityBand, bool) {
	for _, b := range severityBands {
		if b.level == s {
			return b.band, true
		}
	}
	return corpus.SeverityBand{}, false
}

// AllSeverityTokens returns every token in the severity table.
func (l *Lexicon) AllSeverityTokens() []string {
	out := make([]string, 0, len(l.severities))
	for tok := range l.severities {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// SeverityTokens returns every raw token listed for s.
func (l *Lexicon) SeverityTokens(s corpus.Severity) []string {
	return tokensFor(l.severities, s)
}

func tokensFor[T comparable](m map[string]T, want T) []string {
	var out []string
	for tok, v := range m {
		if v == want {
			out = append(out, tok)
		}
	}
	sort.Strings(out)
	return out
}

func normToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		it = normToken(it)
		if it != "" {
			set[it] = struct{}{}
		}
	}
	return set
}
