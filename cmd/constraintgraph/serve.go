package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hanpama/constraintgraph/internal/eventbus"
	"github.com/hanpama/constraintgraph/internal/fixture"
	"github.com/hanpama/constraintgraph/internal/otel"
	"github.com/hanpama/constraintgraph/internal/server"
)

func newServeCmd(loader *configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the schema over HTTP with fixture-backed resolvers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, loader.config(), logrus.StandardLogger())
		},
	}
	f := cmd.Flags()
	f.String("addr", ":8080", "HTTP listen address")
	f.String("path", "/graphql", "GraphQL endpoint path")
	f.Bool("pretty", false, "pretty-print JSON responses")
	f.Duration("timeout", 10*time.Second, "per-request timeout")
	f.Int64("max-body", 1<<20, "maximum request body size in bytes")
	f.StringSlice("cors-origin", nil, "allowed CORS origin (repeatable)")
	f.String("fixtures", "", "JSON fixture file answering fields")
	f.String("otel-endpoint", "", "OTLP gRPC collector endpoint")
	f.String("otel-service", "constraintgraph", "OpenTelemetry service name")
	return cmd
}

func newRouter(cfg ServerConfig, h http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/healthz"))
	r.Handle(cfg.Path, h)
	return r
}

func newHandler(cfg *Config, logger logrus.FieldLogger) (http.Handler, error) {
	s, err := loadSchema(cfg.Schema, logger)
	if err != nil {
		return nil, err
	}

	rt := fixture.New(nil)
	if cfg.Server.Fixtures != "" {
		if rt, err = fixture.Load(cfg.Server.Fixtures); err != nil {
			return nil, err
		}
	}

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithTimeout(cfg.Server.Timeout),
		server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
	}
	if cfg.Server.Pretty {
		opts = append(opts, server.WithPretty())
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		opts = append(opts, server.WithCORS(cfg.Server.CORSOrigins...))
	}
	h, err := server.New(rt, s, opts...)
	if err != nil {
		return nil, err
	}
	return newRouter(cfg.Server, h), nil
}

func serve(ctx context.Context, cfg *Config, logger *logrus.Logger) error {
	eventbus.Use(eventbus.New())
	shutdownTracing, err := otel.Setup(cfg.Otel.Endpoint, cfg.Otel.Service)
	if err != nil {
		return errors.Wrap(err, "otel setup")
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.WithError(err).Warn("otel shutdown")
		}
	}()

	h, err := newHandler(cfg, logger)
	if err != nil {
		return err
	}
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr": cfg.Server.Addr,
			"path": cfg.Server.Path,
		}).Info("serving GraphQL")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
