package database

import (
	"fmt"
	"strings"

	"correspondence/corpus"

	"github.com/lib/pq"
)

const documentColumns = `id, letter_no, internal_no, letter_date, letter_type, short_desc,
        content, keywords, ref_letters, inc_out, severity_rate`

const orderByDateDesc = ` ORDER BY letter_date DESC NULLS LAST, letter_no ASC`

// columnFor maps a searchable field to its column expression.
var columnFor = map[corpus.Field]string{
	corpus.FieldContent:    "content",
	corpus.FieldShortDesc:  "short_desc",
	corpus.FieldKeywords:   "keywords",
	corpus.FieldLetterNo:   "letter_no",
	corpus.FieldInternalNo: "internal_no",
}

// queryBuilder accumulates WHERE conditions and positional arguments.
type queryBuilder struct {
	conds []string
	args  []any
}

func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *queryBuilder) where(cond string) {
	b.conds = append(b.conds, cond)
}

func (b *queryBuilder) clause() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// likePattern escapes LIKE metacharacters and wraps s for a contains match.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	return out
}

// applyPredicate adds p's conditions, except limit and offset, to b.
func (b *queryBuilder) applyPredicate(p corpus.Predicate) {
	if p.HasTerms() {
		patterns := make([]string, 0, len(p.Terms))
		for _, t := range p.Terms {
			if strings.TrimSpace(t) == "" {
				continue
			}
			patterns = append(patterns, likePattern(t))
		}
		if len(patterns) > 0 {
			ph := b.arg(pq.Array(patterns))
			var ors []string
			for _, f := range p.Fields {
				col, ok := columnFor[f]
				if !ok {
					continue
				}
				ors = append(ors, fmt.Sprintf("%s ILIKE ANY(%s::text[])", col, ph))
			}
			if len(ors) > 0 {
				b.where("(" + strings.Join(ors, " OR ") + ")")
			}
		}
	}
	if p.DateFrom != nil {
		b.where("letter_date >= " + b.arg(*p.DateFrom))
	}
	if p.DateTo != nil {
		b.where("letter_date <= " + b.arg(*p.DateTo))
	}
	if t := strings.TrimSpace(p.Type); t != "" {
		b.where("lower(trim(letter_type)) = " + b.arg(strings.ToLower(t)))
	}
	if len(p.SeverityTokens) > 0 || p.SeverityBand != nil {
		var ors []string
		if len(p.SeverityTokens) > 0 {
			ors = append(ors, fmt.Sprintf("lower(trim(severity_rate)) = ANY(%s::text[])", b.arg(pq.Array(lowerAll(p.SeverityTokens)))))
		}
		if p.SeverityBand != nil {
			ors = append(ors, b.severityBand(*p.SeverityBand, p.SeverityExclude))
		}
		b.where("(" + strings.Join(ors, " OR ") + ")")
	}
	if len(p.DirectionTokens) > 0 {
		b.where(fmt.Sprintf("lower(trim(inc_out)) = ANY(%s::text[])", b.arg(pq.Array(lowerAll(p.DirectionTokens)))))
	}
	for _, kw := range p.Keywords {
		if strings.TrimSpace(kw) == "" {
			continue
		}
		b.where("keywords ILIKE " + b.arg(likePattern(kw)))
	}
	if n := strings.TrimSpace(p.LetterNo); n != "" {
		b.where("letter_no ILIKE " + b.arg(likePattern(n)))
	}
}

// severityNumeric casts severity_rate to numeric only when it looks like a
// number; CASE keeps the cast from running on other values.
var severityNumeric = fmt.Sprintf(
	"(CASE WHEN trim(severity_rate) ~ '%s' THEN replace(trim(severity_rate), ',', '.')::numeric END)",
	corpus.SeverityNumberPattern)

func (b *queryBuilder) severityBand(band corpus.SeverityBand, exclude []string) string {
	op := ">="
	if band.MinOpen {
		op = ">"
	}
	conds := []string{fmt.Sprintf("%s %s %s", severityNumeric, op, b.arg(band.Min))}
	if band.Max > 0 {
		conds = append(conds, fmt.Sprintf("%s < %s", severityNumeric, b.arg(band.Max)))
	}
	if len(exclude) > 0 {
		conds = append(conds, fmt.Sprintf("lower(trim(severity_rate)) <> ALL(%s::text[])", b.arg(pq.Array(lowerAll(exclude)))))
	}
	return "(" + strings.Join(conds, " AND ") + ")"
}

func (b *queryBuilder) page(limit, offset int) string {
	var s string
	if limit > 0 {
		s += " LIMIT " + b.arg(limit)
	}
	if offset > 0 {
		s += " OFFSET " + b.arg(offset)
	}
	return s
}

// buildFindQuery renders the filtered fetch for p, newest first.
func buildFindQuery(p corpus.Predicate) (string, []any) {
	b := &queryBuilder{}
	b.applyPredicate(p)
	q := "SELECT " + documentColumns + " FROM documents" + b.clause() + orderByDateDesc + b.page(p.Limit, p.Offset)
	return q, b.args
}

// buildNearestQuery renders the cosine similarity lookup. The query vector
// is always $1.
func buildNearestQuery(vec any, threshold float64, limit int, p corpus.Predicate) (string, []any) {
	b := &queryBuilder{}
	vph := b.arg(vec)
	b.where("embedding IS NOT NULL")
	b.where(fmt.Sprintf("1 - (embedding <=> %s::vector) > %s", vph, b.arg(threshold)))
	b.applyPredicate(p)
	q := "SELECT " + documentColumns + fmt.Sprintf(", 1 - (embedding <=> %s::vector) AS similarity", vph) +
		" FROM documents" + b.clause() +
		fmt.Sprintf(" ORDER BY embedding <=> %s::vector ASC, letter_no ASC", vph) +
		b.page(limit, 0)
	return q, b.args
}

// buildLetterNoQuery renders the in-list fetch matched on normalized
// letter_no.
func buildLetterNoQuery(ids []string) (string, []any) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if k := corpus.NormalizeID(id); k != "" {
			keys = append(keys, k)
		}
	}
	b := &queryBuilder{}
	b.where(fmt.Sprintf(`lower(regexp_replace(letter_no, '\s', '', 'g')) = ANY(%s::text[])`, b.arg(pq.Array(keys))))
	return "SELECT " + documentColumns + " FROM documents" + b.clause() + orderByDateDesc, b.args
}
