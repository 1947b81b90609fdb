package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"correspondence/corpus"
	"correspondence/graph"
	"correspondence/retrieval"

	"github.com/goccy/go-yaml"
)

// render writes v as JSON or YAML, or calls text for the text format.
func render(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		// Round-trip through JSON so field names follow the json tags.
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		out, err := yaml.JSONToYAML(data)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	case "", "text":
		return text(w)
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

func formatDate(d corpus.Document) string {
	if !d.HasDate() {
		return "-"
	}
	return d.LetterDate.Format(corpus.DateLayout)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func writeSearchText(w io.Writer, resp *retrieval.Response) error {
	fmt.Fprintf(w, "stage: %s, %d result(s)\n", resp.Stage, len(resp.Results))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tLETTER\tDATE\tSOURCE\tDESCRIPTION")
	for _, r := range resp.Results {
		fmt.Fprintf(tw, "%.2f\t%s\t%s\t%s\t%s\n",
			r.Score, r.Document.LetterNo, formatDate(r.Document), r.Source, truncate(r.Document.ShortDesc, 60))
	}
	return tw.Flush()
}

func writeIslandText(w io.Writer, island *graph.Island) error {
	fmt.Fprintf(w, "island of %s: %d node(s), %d edge(s)\n", island.Seed, len(island.Nodes), len(island.Edges))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LETTER\tDATE\tDESCRIPTION")
	for _, n := range island.Nodes {
		if n.Dangling {
			fmt.Fprintf(tw, "%s\t-\t(not in corpus)\n", n.ID)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", n.ID, formatDate(*n.Document), truncate(n.Document.ShortDesc, 60))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, e := range island.Edges {
		fmt.Fprintf(w, "  %s -- %s\n", e.From, e.To)
	}
	return nil
}

func writeGraphText(w io.Writer, g *graph.Graph) error {
	nodes, edges := g.Nodes(), g.Edges()
	dangling := 0
	for _, n := range nodes {
		if n.Dangling {
			dangling++
		}
	}
	fmt.Fprintf(w, "%d node(s), %d dangling, %d edge(s)\n", len(nodes), dangling, len(edges))
	for _, e := range edges {
		fmt.Fprintf(w, "  %s -- %s\n", e.From, e.To)
	}
	return nil
}

func writeTimelineText(w io.Writer, tl *graph.IslandTimeline) error {
	fmt.Fprintf(w, "timeline of %s: %d dated, %d undated, %d inbound, %d outbound\n",
		tl.Seed, len(tl.Entries), tl.Undated, len(tl.Inbound), len(tl.Outbound))

	gapAt := make(map[int]graph.Gap, len(tl.Gaps))
	for _, g := range tl.Gaps {
		gapAt[g.Index] = g
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tLETTER\tDIRECTION\tDESCRIPTION")
	for i, e := range tl.Entries {
		if g, ok := gapAt[i]; ok {
			fmt.Fprintf(tw, "\t... %d days ...\t\t\n", g.Days)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			formatDate(e.Document), e.Document.LetterNo, e.Direction, truncate(e.Document.ShortDesc, 60))
	}
	return tw.Flush()
}
