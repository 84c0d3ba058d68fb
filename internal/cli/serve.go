package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"digitaltwin/internal/httpapi"
	"digitaltwin/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP chat API",
	Long: `Serve the chat API:
  GET  /api/chat   usage
  POST /api/chat   {"question": "..."}
  GET  /healthz    lifecycle state and retrieval mode`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := initLogger(appCfg, false); err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	twin, err := buildTwin(ctx, appCfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer twin.Close()

	addr := appCfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	router := httpapi.NewRouter(twin, httpapi.Options{
		Mode:       appCfg.Server.Mode,
		RatePerSec: appCfg.Server.RatePerSec,
		Burst:      appCfg.Server.Burst,
	})
	return httpapi.Serve(ctx, addr, router)
}
