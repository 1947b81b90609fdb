// Package cli is the command line surface: an HTTP server plus one-shot
// search, island, timeline, schema and import commands.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	corpusPath   string
	logLevel     string
	outputFormat string
	embedOffline bool
)

var rootCmd = &cobra.Command{
	Use:   "correspondence",
	Short: "Search and explore a correspondence archive",
	Long: `correspondence - retrieval and citation-graph tools for a letter archive.

Documents are read from PostgreSQL (DATABASE_URL) or, with --corpus, from a
JSON file holding an array of documents.

Examples:
  # Ranked search with filters
  correspondence search "cam onayı" --from 2024-01-01 --direction inbound

  # Island and timeline around a letter
  correspondence island "A-12"
  correspondence timeline "A-12" -o yaml

  # Offline against a JSON export
  correspondence --corpus letters.json search cam

  # Serve the HTTP API
  correspondence serve`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&corpusPath, "corpus", "", "read documents from a JSON file instead of the database")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json or yaml")
	rootCmd.PersistentFlags().BoolVar(&embedOffline, "embed", false, "with --corpus, embed documents that carry no vector")

	rootCmd.AddCommand(serveCmd, searchCmd, islandCmd, timelineCmd, graphCmd, schemaCmd, importCmd)
}
