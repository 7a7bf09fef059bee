package main

import (
	"context"
	"database/sql"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"MiniInventory/internal/api"
	"MiniInventory/internal/catalog"
	"MiniInventory/internal/config"
	"MiniInventory/internal/store"
	"MiniInventory/pkg/kit"
)

const service = "inventory"

func main() {
	envErr := godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		kit.NewLogger(service, "info").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if envErr != nil {
		log.Info("no .env file loaded, using process environment", zap.Error(envErr))
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.Store.CreateIfMissing {
		if err := store.EnsureFile(cfg.Store.Path); err != nil {
			log.Fatal("create store file failed", zap.Error(err))
		}
	}

	importer := catalog.NewImporter(catalog.NewFeedClient(cfg.Catalog.URL), log.Named("catalog"), reg)

	// the catalog fetch has no timeout, so start-up waits for it
	s, err := store.Open(context.Background(), cfg.Store.Path, store.Options{
		Log:          log.Named("store"),
		Registry:     reg,
		Bootstrapper: importer,
	})
	if err != nil {
		log.Fatal("open store failed", zap.Error(err), zap.String("path", cfg.Store.Path))
	}

	deps := api.Deps{
		Store:     s,
		JWTSecret: cfg.JWT.Secret,
	}

	var db *sql.DB
	if cfg.Database.DSN != "" {
		db, err = catalog.OpenPostgres(context.Background(), cfg.Database.DSN)
		if err != nil {
			log.Fatal("open postgres failed", zap.Error(err))
		}
		defer func() { _ = db.Close() }()
		deps.ProductsV2 = catalog.NewPostgresStore(db)
		log.Info("postgres product api enabled")
	}

	h, err := api.NewHandler(deps, api.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
	})
	if err != nil {
		log.Fatal("init handler failed", zap.Error(err))
	}

	serverOpts := []kit.ServerOption{
		kit.OnShutdown(func(context.Context) error {
			return s.EmptyProducts()
		}),
	}
	if cfg.TLS() {
		serverOpts = append(serverOpts, kit.WithTLS(cfg.HTTP.CertFile, cfg.HTTP.KeyFile))
	}

	if err := kit.RunHTTPServer(cfg.Addr(), h, log, serverOpts...); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
