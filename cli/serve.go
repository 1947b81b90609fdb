package cli

import (
	"fmt"

	"correspondence/web"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search, island, timeline and graph HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		port := a.cfg.WebPort
		if servePort > 0 {
			port = servePort
		}

		server := web.NewServer(a.engine(), a.explorer(), a.logger, a.cfg)
		addr := fmt.Sprintf(":%d", port)
		a.logger.Info("Starting correspondence web server",
			zap.String("port", addr),
			zap.Bool("remote_embeddings", a.provider.Remote()))
		return server.Start(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default WEB_PORT)")
}
