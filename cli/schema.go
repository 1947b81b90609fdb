package cli

import (
	"fmt"

	"correspondence/corpus"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the pgvector extension and documents table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if corpusPath != "" {
			return fmt.Errorf("schema needs a database; drop --corpus")
		}
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.pg.EnsureSchema(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema ready")
		return nil
	},
}

var importNoEmbed bool

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Load a JSON array of documents into the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if corpusPath != "" {
			return fmt.Errorf("import writes to the database; drop --corpus")
		}
		docs, err := corpus.LoadDocuments(args[0])
		if err != nil {
			return err
		}

		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.pg.EnsureSchema(cmd.Context()); err != nil {
			return err
		}
		if !importNoEmbed {
			n, err := a.provider.EmbedDocuments(cmd.Context(), docs)
			if err != nil {
				return err
			}
			a.logger.Info("Embedded documents", zap.Int("embedded", n), zap.Bool("remote", a.provider.Remote()))
		}
		n, err := a.pg.UpsertDocuments(cmd.Context(), docs)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d document(s)\n", n)
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importNoEmbed, "no-embed", false, "store documents without computing missing vectors")
}
