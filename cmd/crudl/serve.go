package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/crudl"
	"github.com/syssam/crudl/config"
	"github.com/syssam/crudl/contrib/graphql"
	crudlmw "github.com/syssam/crudl/contrib/middleware"
	"github.com/syssam/crudl/internal/demo"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(cfgFile *string) *cobra.Command {
	var hotReload bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the GraphQL server",
		Long: `Start the GraphQL server of the demo models.

The server will:
  - Load configuration from --config and CRUDL_* environment variables
  - Open the configured document store
  - Serve GraphQL on server.route, GraphiQL on <route>/playground
  - Expose Prometheus metrics on /metrics

Identify the caller with the X-User-Id header.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, *cfgFile, hotReload, cmd.ErrOrStderr())
		},
	}
	cmd.Flags().BoolVar(&hotReload, "hot-reload", true, "reload the log level when the config file changes")
	return cmd
}

func runServe(ctx context.Context, cfgFile string, hotReload bool, w io.Writer) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	// Levels are filtered globally so that a reload applies to every logger.
	logger := cfg.Logging.Logger(w).Level(zerolog.TraceLevel)
	zerolog.SetGlobalLevel(cfg.Logging.LogLevel())

	holder, err := config.NewHolder(cfgFile, logger)
	if err != nil {
		return err
	}
	defer holder.Stop()
	holder.OnChange(func(c *config.Config) {
		zerolog.SetGlobalLevel(c.Logging.LogLevel())
	})
	if hotReload {
		if err := holder.WatchFile(); err != nil {
			return err
		}
		holder.WatchSignals()
	}

	store, closeStore, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	handler, err := newHandler(cfg.Server, store, logger, reg)
	if err != nil {
		return err
	}

	srv := newServer(cfg.Server, handler)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str("addr", cfg.Server.Addr).
			Str("route", cfg.Server.Route).
			Str("dialect", cfg.Store.Dialect).
			Msg("starting server")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newHandler builds the HTTP routes of the demo application.
func newHandler(cfg config.ServerConfig, store crudl.Store, logger zerolog.Logger, reg *prometheus.Registry) (http.Handler, error) {
	steps := []crudl.Step{crudlmw.Logger(logger)}
	if cfg.Metrics {
		steps = append(steps, crudlmw.NewMetrics(reg).Step())
	}
	steps = append(steps, crudlmw.Recover())

	app, err := demo.New(store, logger, steps...)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	opts := []graphql.Option{
		graphql.WithLogger(logger),
		graphql.WithCaller(demo.Caller),
	}
	if cfg.Playground {
		opts = append(opts, graphql.WithPlayground("crudl"))
	}
	if err := graphql.Mount(r, cfg.Route, app.Schema, opts...); err != nil {
		return nil, err
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}
	return r, nil
}

// newServer returns the HTTP server of cfg. The read timeout bounds both
// the request headers and the whole request.
func newServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
	}
}
