package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/sync/errgroup"

	"decaying/internal/config"
	"decaying/internal/decay"
	"decaying/internal/httpapi"
	"decaying/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

func NewServeCommand(conf *config.Config) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve a decaying key/value store over HTTP",
		Example: "decaying serve --address=:8080 --decay-lifespan=30s --decay-steps=10",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), conf)
		},
	}

	if err := conf.BindFlags(cmd.Flags(), config.ServerOptions); err != nil {
		return nil, err
	}

	return cmd, nil
}

// runServe owns the store, the metrics pipeline and the HTTP server, and
// tears all three down when ctx is cancelled.
func runServe(ctx context.Context, conf *config.Config) error {
	setupLogger(conf.ServerDebugEnabled())

	exporter, err := prometheus.New()
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			slog.Warn("meter provider shutdown", "error", err)
		}
	}()

	store, err := newStore(conf, provider)
	if err != nil {
		return err
	}
	defer store.Close()

	api := httpapi.NewServer(store)
	api.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              conf.ServerAddress(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newStore(conf *config.Config, provider *metric.MeterProvider) (*decay.Map[string, []byte], error) {
	rec, err := metrics.NewRecorder(provider, "keys")
	if err != nil {
		return nil, fmt.Errorf("failed to create recorder: %w", err)
	}

	opts := []decay.Option{
		decay.WithRecorder(rec),
		decay.WithLogger(slog.Default()),
	}
	if steps := conf.ServerDecaySteps(); steps != 0 {
		opts = append(opts, decay.WithSteps(steps))
	}

	store, err := decay.NewMap[string, []byte](conf.ServerDecayLifespan(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	store.Subscribe(func(d decay.Decayed[decay.Entry[string, []byte]]) {
		slog.Debug("key decayed", "key", d.Item.Key, "bytes", len(d.Item.Value))
	})

	slog.Info("store ready", "lifespan", store.Lifespan(), "steps", store.Steps())
	return store, nil
}
