package database

import (
	"strings"
	"testing"
	"time"

	"correspondence/corpus"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikePattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"cam", "%cam%"},
		{"50%", `%50\%%`},
		{"a_b", `%a\_b%`},
		{`c:\x`, `%c:\\x%`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, likePattern(tt.in))
		})
	}
}

func TestBuildFindQueryEmpty(t *testing.T) {
	q, args := buildFindQuery(corpus.Predicate{})
	assert.NotContains(t, q, "WHERE")
	assert.NotContains(t, q, "LIMIT")
	assert.True(t, strings.HasSuffix(q, orderByDateDesc))
	assert.Empty(t, args)
}

func TestBuildFindQueryTerms(t *testing.T) {
	q, args := buildFindQuery(corpus.Predicate{
		Terms:  []string{"cam", " ", "50%"},
		Fields: []corpus.Field{corpus.FieldShortDesc, corpus.FieldContent},
		Limit:  10,
		Offset: 20,
	})

	assert.Contains(t, q, "WHERE (short_desc ILIKE ANY($1::text[]) OR content ILIKE ANY($1::text[]))")
	assert.Contains(t, q, "LIMIT $2 OFFSET $3")
	require.Len(t, args, 3)
	assert.Equal(t, pq.Array([]string{"%cam%", `%50\%%`}), args[0])
	assert.Equal(t, 10, args[1])
	assert.Equal(t, 20, args[2])
}

func TestBuildFindQueryFilters(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	q, args := buildFindQuery(corpus.Predicate{
		DateFrom:        &from,
		DateTo:          &to,
		Type:            " Dilekçe ",
		SeverityTokens:  []string{"High", "4"},
		DirectionTokens: []string{"GELEN"},
		Keywords:        []string{"cam", ""},
		LetterNo:        "A-1",
	})

	for _, want := range []string{
		"letter_date >= $1",
		"letter_date <= $2",
		"lower(trim(letter_type)) = $3",
		"lower(trim(severity_rate)) = ANY($4::text[])",
		"lower(trim(inc_out)) = ANY($5::text[])",
		"keywords ILIKE $6",
		"letter_no ILIKE $7",
	} {
		assert.Contains(t, q, want)
	}
	assert.Equal(t, 7, strings.Count(q, "$"))
	require.Len(t, args, 7)
	assert.Equal(t, from, args[0])
	assert.Equal(t, "dilekçe", args[2])
	assert.Equal(t, pq.Array([]string{"high", "4"}), args[3])
	assert.Equal(t, pq.Array([]string{"gelen"}), args[4])
	assert.Equal(t, "%cam%", args[5])
	assert.Equal(t, "%A-1%", args[6])
}

func TestBuildFindQuerySeverityBand(t *testing.T) {
	q, args := buildFindQuery(corpus.Predicate{
		SeverityTokens:  []string{"Orta"},
		SeverityBand:    &corpus.SeverityBand{Min: 3, Max: 4},
		SeverityExclude: []string{"Orta", "5"},
	})

	assert.Contains(t, q, "(lower(trim(severity_rate)) = ANY($1::text[]) OR (")
	assert.Contains(t, q, severityNumeric+" >= $2")
	assert.Contains(t, q, severityNumeric+" < $3")
	assert.Contains(t, q, "lower(trim(severity_rate)) <> ALL($4::text[])")
	require.Len(t, args, 4)
	assert.Equal(t, 3.0, args[1])
	assert.Equal(t, 4.0, args[2])
	assert.Equal(t, pq.Array([]string{"orta", "5"}), args[3])

	q, args = buildFindQuery(corpus.Predicate{SeverityBand: &corpus.SeverityBand{Min: 0, MinOpen: true}})
	assert.Contains(t, q, severityNumeric+" > $1")
	assert.NotContains(t, q, " < $")
	assert.Len(t, args, 1)
}

func TestBuildNearestQuery(t *testing.T) {
	q, args := buildNearestQuery("[1,0]", 0.1, 5, corpus.Predicate{Type: "x"})

	assert.Contains(t, q, "embedding IS NOT NULL")
	assert.Contains(t, q, "1 - (embedding <=> $1::vector) > $2")
	assert.Contains(t, q, "1 - (embedding <=> $1::vector) AS similarity")
	assert.Contains(t, q, "lower(trim(letter_type)) = $3")
	assert.Contains(t, q, "ORDER BY embedding <=> $1::vector ASC")
	assert.Contains(t, q, "LIMIT $4")
	assert.Equal(t, []any{"[1,0]", 0.1, "x", 5}, args)
}

func TestBuildLetterNoQuery(t *testing.T) {
	q, args := buildLetterNoQuery([]string{"A -1", "", "b-2"})

	assert.Contains(t, q, `lower(regexp_replace(letter_no, '\s', '', 'g')) = ANY($1::text[])`)
	require.Len(t, args, 1)
	assert.Equal(t, pq.Array([]string{"a-1", "b-2"}), args[0])
}

func TestSchemaStatements(t *testing.T) {
	stmts := schemaStatements(384)
	require.NotEmpty(t, stmts)
	assert.Equal(t, "CREATE EXTENSION IF NOT EXISTS vector", stmts[0])
	assert.Contains(t, stmts[1], "embedding vector(384)")
}
