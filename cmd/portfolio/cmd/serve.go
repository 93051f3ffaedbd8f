package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"paper-trader/internal/httpapi"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes the portfolio over HTTP:

  POST /buy, /sell     symbol and quantity as query parameters or a JSON body
  POST /update         write today's P&L snapshot
  GET  /portfolio      cash and holdings
  GET  /summary        holdings valued at the latest prices
  GET  /pnl, /trades   recent snapshots and trades (?limit=N)
  GET  /debug, /health`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	port := a.cfg.Server.Port
	if servePort > 0 {
		port = servePort
	}

	srv := httpapi.NewServer(port, httpapi.NewAPIHandler(a.log, a.portfolio, a.store), a.log)
	errc := srv.Start()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("api server: %w", err)
		}
	case <-ctx.Done():
		a.log.Info("Shutdown signal received, gracefully shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	a.log.Info("Server has been shut down.")
	return nil
}
