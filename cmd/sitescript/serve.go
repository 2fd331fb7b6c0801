package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/sitescript"
	"github.com/aretw0/sitescript/internal/presentation/tui"
	httpAdapter "github.com/aretw0/sitescript/pkg/adapters/http"
	"github.com/aretw0/sitescript/pkg/arbiter"
	"github.com/aretw0/sitescript/pkg/identity"
	"github.com/aretw0/sitescript/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP editing server",
	Long: `Starts the editing API over HTTP. Sessions keep structured and text edits in sync;
subscribers receive change events on /sessions/{id}/events. Site designs are served on
/designs; /scripts/{id}/export and /designs/{id}/export return deployment packages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.HTTP.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("metrics") {
			cfg.Metrics.Enabled, _ = cmd.Flags().GetBool("metrics")
		}

		streams := httpAdapter.NewStreamManager(logger)
		opts := []sitescript.Option{
			sitescript.WithSessionOptions(
				session.WithHooks(streams.Hooks),
				session.WithIdentities(func() identity.Generator { return identity.UUID{} }),
			),
		}

		var registry *prometheus.Registry
		if cfg.Metrics.Enabled {
			registry = prometheus.NewRegistry()
			registry.MustRegister(collectors.NewGoCollector())
			opts = append(opts, sitescript.WithMetrics(arbiter.NewMetrics(registry)))
		}

		ed, err := newEditor(opts...)
		if err != nil {
			return err
		}

		router := chi.NewRouter()
		if registry != nil {
			router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		}
		router.Mount("/", httpAdapter.NewHandler(ed.Sessions(),
			httpAdapter.WithLogger(logger),
			httpAdapter.WithStreams(streams),
			httpAdapter.WithDesigns(openDesigns(cfg.Store)),
		))

		srv := &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		tui.PrintBanner(cmd.ErrOrStderr())

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting sitescript server", "addr", srv.Addr, "backend", cfg.Store.Backend, "metrics", cfg.Metrics.Enabled)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("Start shutdown", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			for _, id := range ed.Sessions().Sessions() {
				_ = ed.Sessions().Close(ctx, id)
			}
			logger.Info("sitescript server stopped gracefully")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().Bool("metrics", false, "Expose Prometheus metrics on /metrics")
}
