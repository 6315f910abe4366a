package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/me/schedlab/internal/backend"
	"github.com/me/schedlab/internal/config"
	"github.com/me/schedlab/internal/logging"
	"github.com/me/schedlab/internal/server"
	"github.com/me/schedlab/internal/store"
	"github.com/me/schedlab/pkg/model"
)

func main() {
	cfg := config.DefaultServerConfig()

	configFile := flag.String("config", "", "Path to a YAML config file; flags override it")
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite run history path (empty disables history)")
	flag.StringVar(&cfg.BackendURL, "backend", cfg.BackendURL, "Scheduling service URL")
	flag.StringVar(&cfg.CatalogDir, "catalog", cfg.CatalogDir, "Directory of algorithm definition files (replaces the backend schema endpoints)")
	flag.DurationVar(&cfg.SchemaCacheTTL, "schema-cache-ttl", cfg.SchemaCacheTTL, "How long fetched schemas are cached (0 disables)")
	flag.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "Timeout for one algorithm execution")
	flag.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "Idle time before a form session is dropped")
	flag.DurationVar(&cfg.RunRetention, "run-retention", cfg.RunRetention, "Age after which recorded runs are pruned (0 keeps them)")
	flag.IntVar(&cfg.ControllerMax, "controller-max", cfg.ControllerMax, "Upper bound for matrix controller fields")
	flag.IntVar(&cfg.MaxDimension, "max-dimension", cfg.MaxDimension, "Upper bound for any resolved matrix dimension")
	secure := flag.Bool("secure-cookies", false, "Mark session cookies Secure (serve behind TLS)")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")
	flag.Parse()

	// The file is the base layer; flags given explicitly win over it.
	if *configFile != "" {
		fileCfg := config.DefaultServerConfig()
		if err := config.LoadFile(*configFile, &fileCfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		flagCfg := cfg
		cfg = fileCfg
		flag.Visit(func(f *flag.Flag) { applyFlag(&cfg, &flagCfg, f.Name) })
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := backend.NewHTTPClient(backend.DefaultConfig(cfg.BackendURL), logger)

	var (
		schemas backend.SchemaProvider
		catalog *backend.Catalog
		cache   *backend.CachedProvider
	)
	if cfg.CatalogDir != "" {
		c, err := backend.NewCatalog(cfg.CatalogDir, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load catalog: %v\n", err)
			os.Exit(1)
		}
		catalog = c
		schemas = c
	} else if cfg.SchemaCacheTTL > 0 {
		cache = backend.NewCachedProvider(client, cfg.SchemaCacheTTL)
		schemas = cache
	} else {
		schemas = client
	}

	serverOpts := []server.Option{server.WithSecureCookies(*secure)}

	if cfg.DBPath != "" {
		st, err := store.NewSQLiteStore(cfg.DBPath, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open database: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
			os.Exit(1)
		}
		logger.Info("database ready", "path", cfg.DBPath)
		serverOpts = append(serverOpts, server.WithRunStore(st))
	} else {
		logger.Info("run history disabled", "hint", "set --db to record runs")
	}

	srv := server.New(cfg, schemas, client, logger, serverOpts...)

	if catalog != nil {
		catalog.OnChange(func(name string, def *model.AlgorithmDefinition) {
			if def == nil {
				logger.Warn("algorithm removed from catalog; open forms keep the old definition", "algorithm", name)
				return
			}
			srv.Forms().ReloadAlgorithm(def)
		})
		if err := catalog.Watch(ctx); err != nil {
			logger.Warn("catalog reload disabled", "error", err)
		}
	}
	if cache != nil {
		logger.Info("schema cache enabled", "ttl", cfg.SchemaCacheTTL)
	}

	srv.StartMaintenance(ctx, server.DefaultSweepInterval)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "backend", cfg.BackendURL, "catalog", cfg.CatalogDir)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// applyFlag copies the field behind one explicitly set flag from src to dst.
func applyFlag(dst, src *config.ServerConfig, name string) {
	switch name {
	case "addr":
		dst.Addr = src.Addr
	case "log-level":
		dst.LogLevel = src.LogLevel
	case "log-format":
		dst.LogFormat = src.LogFormat
	case "db":
		dst.DBPath = src.DBPath
	case "backend":
		dst.BackendURL = src.BackendURL
	case "catalog":
		dst.CatalogDir = src.CatalogDir
	case "schema-cache-ttl":
		dst.SchemaCacheTTL = src.SchemaCacheTTL
	case "request-timeout":
		dst.RequestTimeout = src.RequestTimeout
	case "session-ttl":
		dst.SessionTTL = src.SessionTTL
	case "run-retention":
		dst.RunRetention = src.RunRetention
	case "controller-max":
		dst.ControllerMax = src.ControllerMax
	case "max-dimension":
		dst.MaxDimension = src.MaxDimension
	}
}
