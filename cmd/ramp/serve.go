package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/rampkit/ramp"
	"github.com/rampkit/ramp/internal/client"
	"github.com/rampkit/ramp/internal/logging"
	"github.com/rampkit/ramp/internal/metrics"
	httpadapter "github.com/rampkit/ramp/pkg/adapters/http"
	"github.com/rampkit/ramp/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the onboarding HTTP server",
	Long:  `Starts the onboarding engine in server mode, exposing a JSON session API over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			cfg.Listen = listen
		}

		logger := logging.New(cfg.LogLevel())

		backends, err := buildStores(cfg)
		if err != nil {
			fmt.Printf("Error building store: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			if err := backends.close(); err != nil {
				logger.Warn("store close failed", "error", err)
			}
		}()

		gateway := client.New(cfg.Gateway.BaseURL,
			client.WithLogger(logger),
			client.WithHTTPClient(&http.Client{Timeout: cfg.Gateway.Timeout.Std()}),
		)

		managerOpts := []session.Option{session.WithLogger(logger)}
		if backends.locker != nil {
			managerOpts = append(managerOpts, session.WithLocker(backends.locker))
		}
		sessions := session.NewManager(backends.states, managerOpts...)

		registry := prometheus.NewRegistry()
		server := httpadapter.NewServer(gateway, sessions,
			httpadapter.WithFragmentStore(backends.fragments),
			httpadapter.WithHooks(metrics.New(registry).Hooks()),
			httpadapter.WithMetricsRegistry(registry),
			httpadapter.WithLogger(logger),
		)

		srv := &http.Server{
			Addr:    cfg.Listen,
			Handler: server.Handler(),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("starting onboarding server",
				"addr", srv.Addr,
				"gateway", cfg.Gateway.BaseURL,
				"backend", cfg.Store.Backend,
				"version", ramp.Version,
			)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("starting shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "error", err)
				if err := srv.Close(); err != nil {
					logger.Error("error killing server", "error", err)
				}
			}

			// Let in-flight generation calls settle before dropping stores.
			server.Wait()
			logger.Info("onboarding server stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Listen address (overrides config)")
}
