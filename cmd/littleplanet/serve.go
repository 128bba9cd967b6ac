package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gogpu/littleplanet"
	"github.com/gogpu/littleplanet/internal/server"
	"github.com/gogpu/littleplanet/raster"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP render API",
	Long: `Start an HTTP server exposing the little planet renderer.

Endpoints:
  GET  /api/v1/health   liveness check
  POST /api/v1/render   multipart panorama upload, returns the projection

Examples:
  # Start server on default port 8080
  littleplanet serve

  # Bind on all interfaces with parallel rendering
  littleplanet serve --bind 0.0.0.0 --port 8080 --workers 8`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("bind", "b", "localhost", "bind address")
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().Duration("timeout", 60*time.Second, "request timeout")
	serveCmd.Flags().IntP("workers", "w", 0, "parallel band workers per render (0 = serial)")

	viper.BindPFlag("server.bind", serveCmd.Flags().Lookup("bind"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.timeout", serveCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("server.workers", serveCmd.Flags().Lookup("workers"))
}

func runServe(cmd *cobra.Command, args []string) error {
	bind := viper.GetString("server.bind")
	port := viper.GetInt("server.port")
	timeout := viper.GetDuration("server.timeout")

	addr := fmt.Sprintf("%s:%d", bind, port)

	var opts []raster.Option
	if workers := viper.GetInt("server.workers"); workers > 0 {
		opts = append(opts, raster.WithWorkers(workers))
	}
	eval := raster.NewEvaluator(opts...)
	defer eval.Close()

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(timeout))

	apiServer := server.NewServer(version, eval)
	r.Route("/api/v1", func(r chi.Router) {
		apiServer.Mount(r)
	})

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		fmt.Fprintf(cmd.ErrOrStderr(), "\nShutting down server...\n")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			littleplanet.Logger().Error("server shutdown", "error", err)
		}
	}()

	fmt.Fprintf(cmd.ErrOrStderr(), "Starting littleplanet server on %s\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Health check:    http://%s/api/v1/health\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Render endpoint: http://%s/api/v1/render\n", addr)

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
