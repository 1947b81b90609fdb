package graph

import (
	"sort"
	"time"

	"correspondence/corpus"
	"correspondence/lexicon"
)

// DefaultGapDays is the day difference above which consecutive timeline
// entries are annotated as a gap.
const DefaultGapDays = 10

// Options configure timeline assembly.
type Options struct {
	// GapDays <= 0 uses DefaultGapDays.
	GapDays int
}

// Entry is one dated document in a timeline.
type Entry struct {
	Document  corpus.Document  `json:"document"`
	Direction corpus.Direction `json:"direction"`
}

// Gap marks a pair of consecutive entries further apart than the threshold.
// Index is the position of the later entry in Timeline.Entries.
type Gap struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Days  int    `json:"days"`
	Index int    `json:"index"`
}

// Timeline is an island ordered by letter date.
type Timeline struct {
	Entries  []Entry `json:"entries"`
	Inbound  []Entry `json:"inbound"`
	Outbound []Entry `json:"outbound"`
	Gaps     []Gap   `json:"gaps"`
	Undated  int     `json:"undated"`
}

// Assemble keeps the first row per normalized letter_no, drops undated
// documents, sorts the rest by date ascending (ties
// by letter_no), classifies direction from inc_out and then letter_type, and
// annotates gaps strictly longer than the configured number of days.
func Assemble(docs []corpus.Document, lex *lexicon.Lexicon, opts Options) Timeline {
	if lex == nil {
		lex = lexicon.Default()
	}
	gapDays := opts.GapDays
	if gapDays <= 0 {
		gapDays = DefaultGapDays
	}

	t := Timeline{
		Entries:  []Entry{},
		Inbound:  []Entry{},
		Outbound: []Entry{},
		Gaps:     []Gap{},
	}

	seen := make(map[string]struct{}, len(docs))
	dated := make([]corpus.Document, 0, len(docs))
	for _, d := range docs {
		if key := corpus.NormalizeID(d.LetterNo); key != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		if !d.HasDate() {
			t.Undated++
			continue
		}
		d.Embedding = nil
		dated = append(dated, d)
	}
	sort.SliceStable(dated, func(i, j int) bool {
		a, b := dated[i].LetterDate, dated[j].LetterDate
		if a.Equal(*b) {
			return dated[i].LetterNo < dated[j].LetterNo
		}
		return a.Before(*b)
	})

	for i, d := range dated {
		e := Entry{Document: d, Direction: classify(lex, d)}
		t.Entries = append(t.Entries, e)
		switch e.Direction {
		case corpus.DirectionInbound:
			t.Inbound = append(t.Inbound, e)
		case corpus.DirectionOutbound:
			t.Outbound = append(t.Outbound, e)
		}

		if i == 0 {
			continue
		}
		prev := dated[i-1]
		if days := DaysBetween(*prev.LetterDate, *d.LetterDate); days > gapDays {
			t.Gaps = append(t.Gaps, Gap{From: prev.LetterNo, To: d.LetterNo, Days: days, Index: i})
		}
	}
	return t
}

func classify(lex *lexicon.Lexicon, d corpus.Document) corpus.Direction {
	for _, raw := range []string{d.IncOut, d.LetterType} {
		if dir := lex.Direction(raw); dir != corpus.DirectionUnknown {
			return dir
		}
	}
	return corpus.DirectionUnknown
}

// DaysBetween counts calendar days from a to b in UTC.
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.UTC().Year(), a.UTC().Month(), a.UTC().Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.UTC().Year(), b.UTC().Month(), b.UTC().Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
