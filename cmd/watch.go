package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/giantswarm/connauth/pkg/logging"
)

var watchMetricsAddr string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the connections file and serve metrics",
	Long: `Watch the connections file, reloading it on change and clearing cached
tokens, and serve Prometheus metrics until interrupted.

Examples:
  connauth watch --metrics-addr :9090`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "127.0.0.1:9464", "Address for the /metrics endpoint")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := newApplication()
	if err != nil {
		return err
	}

	w, err := application.Watch(ctx)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(application.Services().Metrics.Registry(), promhttp.HandlerOpts{}))
	server := &http.Server{Addr: watchMetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %d connections, metrics on http://%s/metrics\n", w.Snapshot().Len(), watchMetricsAddr)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logging.Info("Watch", "Shutting down")
	return server.Shutdown(shutdownCtx)
}
