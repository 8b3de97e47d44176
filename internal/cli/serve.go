package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/evidra/internal/server"
)

var (
	serveAddr       string
	shutdownTimeout time.Duration
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query API over HTTP",
	Long: `Serve exposes query processing over HTTP:

  POST /api/query   {"query": "..."}  -> query result
  GET  /api/files                     -> available documents
  GET  /healthz                       -> liveness

Example:
  evidra serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 15*time.Second, "graceful shutdown timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	var files server.FileLister
	if a.docs != nil {
		files = a.docs
	}

	a.logger.Info("starting evidra", zap.String("version", Version), zap.String("llm", providerName(a.provider)))
	return server.New(addr, a.engine, files, Version, a.logger).Run(ctx, shutdownTimeout)
}

