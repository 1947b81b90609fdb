package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"correspondence/corpus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirection(t *testing.T) {
	lex := Default()
	tests := []struct {
		raw  string
		want corpus.Direction
	}{
		{"INC", corpus.DirectionInbound},
		{" Incoming ", corpus.DirectionInbound},
		{"gelen", corpus.DirectionInbound},
		{"OUT", corpus.DirectionOutbound},
		{"ex", corpus.DirectionOutbound},
		{"Giden", corpus.DirectionOutbound},
		{"", corpus.DirectionUnknown},
		{"internal memo", corpus.DirectionUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, lex.Direction(tt.raw))
		})
	}
}

func TestSeverity(t *testing.T) {
	lex := Default()
	tests := []struct {
		raw  string
		want corpus.Severity
	}{
		{"Yüksek", corpus.SeverityHigh},
		{"5", corpus.SeverityHigh},
		{"4,5", corpus.SeverityHigh},
		{"orta", corpus.SeverityMedium},
		{"3.2", corpus.SeverityMedium},
		{"1", corpus.SeverityLow},
		{"0", corpus.SeverityUnknown},
		{"n/a", corpus.SeverityUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, lex.Severity(tt.raw))
		})
	}
}

func TestRoot(t *testing.T) {
	lex := Default()
	assert.Equal(t, "onay", lex.Root("onayı"))
	assert.Equal(t, "kamera", lex.Root("kameraları"))
	assert.Equal(t, "cam", lex.Root("cam"))
	// Never strip below three runes.
	assert.Equal(t, "adı", lex.Root("adı"))
}

func TestTokensRoundTrip(t *testing.T) {
	lex := Default()
	for _, tok := range lex.DirectionTokens(corpus.DirectionInbound) {
		assert.Equal(t, corpus.DirectionInbound, lex.Direction(tok), tok)
	}
	for _, tok := range lex.SeverityTokens(corpus.SeverityHigh) {
		assert.Equal(t, corpus.SeverityHigh, lex.Severity(tok), tok)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := `synonyms:
  Parapet: [korkuluk, "guard rail"]
inbound: [received]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	lex, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"korkuluk", "guard rail"}, lex.Synonyms("parapet"))
	assert.False(t, lex.HasSynonyms("cam"), "file section replaces default synonyms")
	assert.Equal(t, corpus.DirectionInbound, lex.Direction("Received"))
	assert.Equal(t, corpus.DirectionUnknown, lex.Direction("inc"))
	assert.Equal(t, corpus.DirectionOutbound, lex.Direction("out"), "outbound defaults kept")
	assert.True(t, lex.IsStopWord("ve"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
