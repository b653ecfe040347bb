package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shortontech/devprint/internal/detection"
	"github.com/shortontech/devprint/internal/event"
	httpx "github.com/shortontech/devprint/internal/http"
	"github.com/shortontech/devprint/internal/metrics"
	"github.com/shortontech/devprint/internal/sink"
	"github.com/shortontech/devprint/internal/store"
	"github.com/shortontech/devprint/pkg/config"
)

func newServeCmd(a *app) *cobra.Command {
	var testMode bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the capture API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a.cfg, testMode)
		},
	}
	f := cmd.Flags()
	f.String("server.addr", ":19890", "listen address")
	f.String("store.driver", "memory", "fingerprint store: memory, postgres, redis")
	f.StringSlice("sinks.outputs", []string{"log"}, "event sinks: log, kafka")
	f.Bool("metrics.enabled", false, "serve Prometheus metrics on metrics.addr")
	f.BoolVar(&testMode, "test-mode", false, "emit sample capture events to the sinks at startup")
	return cmd
}

// components is everything serve builds from config, torn down by close.
type components struct {
	env     httpx.Env
	fanout  *sink.Fanout
	store   store.Store
	metrics *metrics.Metrics
	close   func()
}

func buildComponents(ctx context.Context, cfg config.Config) (*components, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}

	sinks, err := sink.FromConfig(cfg.Sinks, m)
	if err != nil {
		st.Close()
		return nil, err
	}
	fanout := sink.NewFanout(m, sinks...)
	if err := fanout.Start(ctx); err != nil {
		st.Close()
		return nil, err
	}

	tracker, closeTracker := timingTracker(cfg.Store)

	var auth *httpx.HMACAuth
	if cfg.Server.HMACSecret != "" || cfg.Server.RequireHMAC {
		auth = httpx.NewHMACAuth(cfg.Server.HMACSecret, cfg.Server.RequireHMAC)
	}

	return &components{
		env: httpx.Env{
			Cfg:      cfg,
			Store:    st,
			Emit:     fanout.Emit,
			Metrics:  m,
			HMACAuth: auth,
			Analyzer: detection.NewAnalyzer(tracker),
		},
		fanout:  fanout,
		store:   st,
		metrics: m,
		close: func() {
			if err := fanout.Close(); err != nil {
				log.Error().Err(err).Msg("close sinks")
			}
			closeTracker()
			if err := st.Close(); err != nil {
				log.Error().Err(err).Msg("close store")
			}
		},
	}, nil
}

// timingTracker shares the redis server with the store when there is one,
// so request intervals survive restarts and span replicas.
func timingTracker(cfg config.StoreConfig) (detection.TimingTracker, func()) {
	if cfg.Driver != "redis" {
		return detection.NewMemoryTimingTracker(), func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	return detection.NewRedisTimingTracker(client, "", time.Hour), func() { _ = client.Close() }
}

func serve(ctx context.Context, cfg config.Config, testMode bool) error {
	c, err := buildComponents(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.close()

	metricsSrv := metrics.NewServer(cfg.Metrics.Addr, cfg.Metrics.Enabled, c.metrics)
	if err := metricsSrv.Start(ctx); err != nil {
		return err
	}

	srv := httpx.NewServer(cfg.Server, httpx.NewMux(c.env))
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("store", cfg.Store.Driver).Strs("sinks", cfg.Sinks.Outputs).Msg("devprint listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if testMode {
		runTestMode(ctx, cfg.Match, c.env.Emit)
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}

func runTestMode(ctx context.Context, match config.MatchConfig, emit func(context.Context, event.Event) error) {
	events := generateTestEvents(time.Now(), match)
	log.Info().Int("events", len(events)).Msg("test mode: emitting sample capture events")
	for i, e := range events {
		if err := emit(ctx, e); err != nil {
			log.Warn().Err(err).Int("n", i+1).Msg("test mode: emit failed")
		}
	}
	log.Info().Msg("test mode: done")
}
