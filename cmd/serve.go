package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/retile/internal/server"
	"github.com/kiesman99/retile/internal/tilestore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for slicing, rearranging and grid overlays",
	Long: `Start an HTTP server exposing the retile operations. Sliced tiles are kept
in --tile-dir so separate requests can slice and rearrange.

Examples:
  # Start server on default port 8080
  retile serve

  # Start server with custom bind address and tile directory
  retile serve --bind 0.0.0.0 --port 8080 --tile-dir /var/lib/retile`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server configuration
	serveCmd.Flags().StringP("bind", "b", "localhost", "bind address")
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().Duration("timeout", 30*time.Second, "request timeout")

	bindFlags(serveCmd.Flags().Lookup, "server.", "bind", "port", "timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	bind := viper.GetString("server.bind")
	port := viper.GetInt("server.port")
	timeout := viper.GetDuration("server.timeout")

	addr := fmt.Sprintf("%s:%d", bind, port)

	canvas, err := canvasOptions()
	if err != nil {
		return err
	}
	gridOpts, err := gridOptions()
	if err != nil {
		return err
	}

	store := tilestore.NewDir(viper.GetString("tile-dir"))
	apiServer := server.NewServer(Version, store, server.Options{
		Slice:  sliceOptions(),
		Canvas: canvas,
		Grid:   gridOpts,
	})

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.NewRouter(apiServer, timeout),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		fmt.Fprintf(cmd.ErrOrStderr(), "\nShutting down server...\n")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	fmt.Fprintf(cmd.ErrOrStderr(), "Starting retile server on %s\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Tile directory: %s\n", store.Root)
	fmt.Fprintf(cmd.ErrOrStderr(), "Health check: http://%s/api/v1/health\n", addr)

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %v", err)
	}

	return nil
}
