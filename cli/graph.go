package cli

import (
	"io"

	"github.com/spf13/cobra"
)

var islandCmd = &cobra.Command{
	Use:   "island <letter-no>",
	Short: "Show the documents connected to a letter by citations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		island, err := a.explorer().Island(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), outputFormat, island, func(w io.Writer) error {
			return writeIslandText(w, island)
		})
	},
}

var timelineCmd = &cobra.Command{
	Use:   "timeline <letter-no>",
	Short: "Order a letter's island by date and flag long silences",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		tl, err := a.explorer().Timeline(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), outputFormat, tl, func(w io.Writer) error {
			return writeTimelineText(w, tl)
		})
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the citation graph of the whole corpus",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		g, err := a.explorer().Graph(cmd.Context())
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), outputFormat, g, func(w io.Writer) error {
			return writeGraphText(w, g)
		})
	},
}
