package retrieval

import (
	"strings"
	"unicode"

	"correspondence/lexicon"

	"golang.org/x/text/unicode/norm"
)

// Expand augments the raw query with its whitespace tokens, their lexicon
// synonyms and suffix-stripped roots. The raw query comes first; the result
// is lowercased and free of duplicates. An empty query expands to nil.
func Expand(query string, lex *lexicon.Lexicon) []string {
	raw := fold(strings.TrimSpace(query))
	if raw == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	add(raw)
	for _, tok := range strings.Fields(raw) {
		tok = strings.TrimFunc(tok, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if tok == "" {
			continue
		}
		add(tok)
		for _, syn := range lex.Synonyms(tok) {
			add(syn)
		}

		root := lex.Root(tok)
		if root == tok {
			continue
		}
		switch {
		case lex.HasSynonyms(tok):
			add(root)
		case lex.HasSynonyms(root):
			add(root)
			for _, syn := range lex.Synonyms(root) {
				add(syn)
			}
		}
	}
	return out
}

// fold is the comparison form of text: NFC-normalized and lowercased.
func fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}
