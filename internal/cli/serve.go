package cli

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gradlayer/pkg/config"
	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/observability/prom"
	"github.com/matzehuels/gradlayer/pkg/server"
	"github.com/matzehuels/gradlayer/pkg/store"
)

// shutdownTimeout bounds graceful shutdown after the context ends.
const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		storeKind string
		mongoURI  string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the layout HTTP API",
		Long: `Run the layout HTTP API.

Layouts are computed through the configured cache and saved to the layout
store: in memory by default, or MongoDB with --store mongo. Prometheus
metrics are served at /metrics unless disabled in the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config.Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("store") {
				cfg.Store = storeKind
			}
			if cmd.Flags().Changed("mongo-uri") {
				cfg.MongoURI = mongoURI
			}
			return c.runServe(cmd.Context(), cfg, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&storeKind, "store", config.StoreMemory, "layout store: memory, mongo")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB connection string (store mongo)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg config.Server, noCache bool) error {
	st, err := c.newStore(ctx, cfg)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		st.Close()
		return err
	}

	var metrics http.Handler
	if !cfg.MetricsDisabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		prom.New(reg).Install()
		metrics = prom.Handler(reg)
	}

	srv := server.New(server.Config{
		Runner:         runner,
		Store:          st,
		Logger:         c.Logger,
		Defaults:       c.Config.Layout,
		Metrics:        metrics,
		BodyLimit:      cfg.BodyLimit,
		RequestTimeout: cfg.ReadTimeout,
	})
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", cfg.Addr, "store", cfg.Store, "cache", c.Config.Cache.Backend, "metrics", metrics != nil)
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInternal, err, "listen on %s", cfg.Addr)
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "shutdown")
	}
	return nil
}

// newStore opens the configured layout store.
func (c *CLI) newStore(ctx context.Context, cfg config.Server) (store.Store, error) {
	switch cfg.Store {
	case config.StoreMongo:
		if cfg.MongoURI == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "store mongo requires a MongoDB URI (--mongo-uri or server.mongo_uri)")
		}
		return store.NewMongoStore(ctx, store.MongoOptions{URI: cfg.MongoURI, Database: cfg.MongoDatabase})
	case config.StoreMemory, "":
		return store.NewMemoryStore(), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown store %q (use memory or mongo)", cfg.Store)
	}
}
