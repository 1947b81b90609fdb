package cli

import (
	"io"
	"strings"

	"correspondence/corpus"

	"github.com/spf13/cobra"
)

var searchFlags corpus.RawFilters

var searchCmd = &cobra.Command{
	Use:   "search [text...]",
	Short: "Rank documents for a query",
	Long: `Rank documents by relevance.

With vectors stored, search combines vector similarity with a lexical score;
otherwise it falls back to semantic keyword search and then to plain
substring search. An empty query with filters lists the filtered documents
newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := corpus.ParseQuery(strings.Join(args, " "), searchFlags)
		if err != nil {
			return err
		}

		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		resp, err := a.engine().Search(cmd.Context(), q)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), outputFormat, resp, func(w io.Writer) error {
			return writeSearchText(w, resp)
		})
	},
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchFlags.DateFrom, "from", "", "earliest letter date (YYYY-MM-DD)")
	f.StringVar(&searchFlags.DateTo, "to", "", "latest letter date (YYYY-MM-DD)")
	f.StringVar(&searchFlags.Type, "type", "", "letter type")
	f.StringVar(&searchFlags.Severity, "severity", "", "low, medium or high")
	f.StringVar(&searchFlags.Direction, "direction", "", "inbound or outbound")
	f.StringVar(&searchFlags.Keywords, "keywords", "", "comma separated keywords that must all match")
	f.StringVar(&searchFlags.LetterNo, "letter-no", "", "letter number substring")
	f.StringVar(&searchFlags.Mode, "mode", "", "auto, vector, hybrid or text")
	f.StringVar(&searchFlags.Limit, "limit", "", "maximum results (default SEARCH_LIMIT)")
}
