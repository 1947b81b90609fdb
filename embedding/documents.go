package embedding

import (
	"context"
	"strings"

	"correspondence/corpus"
)

// DocumentText is the text embedded for a stored document: short
// description, keywords and content, in that order.
func DocumentText(d corpus.Document) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{d.ShortDesc, d.Keywords, d.Content} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// EmbedDocuments fills in the embedding of every document that has none and
// some text to embed. It returns how many documents were embedded.
func (p *Provider) EmbedDocuments(ctx context.Context, docs []corpus.Document) (int, error) {
	n := 0
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if len(docs[i].Embedding) > 0 {
			continue
		}
		text := DocumentText(docs[i])
		if text == "" {
			continue
		}
		docs[i].Embedding = p.Embed(ctx, text)
		n++
	}
	return n, nil
}
