package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thebestandgreatest/craftybroker/pkg/log"
	"github.com/Thebestandgreatest/craftybroker/pkg/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the broker as a long-lived process",
	Long: `Run the broker as a long-lived process.

Serve mode reconciles the configured servers, exposes Prometheus metrics and
health endpoints, and refreshes every server's remote status at a fixed
interval. Lifecycle commands still work against the same state database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, reg, bus, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()
		defer bus.Stop()

		metrics.SetVersion(Version)
		metrics.RegisterComponent("storage", true, "open")
		metrics.RegisterComponent("registry", true, fmt.Sprintf("%d servers", len(reg.Names())))

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.HandleFunc("/health", metrics.HealthHandler())
		mux.HandleFunc("/live", metrics.LivenessHandler())

		httpServer := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		errCh := make(chan error, 1)
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()

		// Log lifecycle events as they happen
		sub := bus.Subscribe()
		defer bus.Unsubscribe(sub)
		go func() {
			logger := log.WithComponent("events")
			for event := range sub {
				logger.Info().
					Str("event", string(event.Type)).
					Str("server", event.Server).
					Msg(event.Message)
			}
		}()

		ticker := time.NewTicker(cfg.RefreshInterval.Std())
		defer ticker.Stop()

		// Read statuses once immediately so metrics are populated at startup
		reg.RefreshStatuses(cmd.Context())

		fmt.Printf("Broker is running (metrics on %s). Press Ctrl+C to stop.\n", cfg.MetricsAddr)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		for {
			select {
			case <-ticker.C:
				reg.RefreshStatuses(cmd.Context())
			case err := <-errCh:
				return err
			case <-sigCh:
				fmt.Println("\nShutting down...")
				return httpServer.Close()
			case <-cmd.Context().Done():
				return httpServer.Close()
			}
		}
	},
}
