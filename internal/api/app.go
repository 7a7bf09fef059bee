// Package api wires the store, the credential service and the product
// handlers into one http.Handler.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"MiniInventory/internal/auth"
	"MiniInventory/internal/catalog"
	"MiniInventory/internal/store"
	"MiniInventory/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

type Deps struct {
	Store     *store.Store
	JWTSecret string
	// ProductsV2 is mounted under /api/v2/products when set.
	ProductsV2 catalog.ProductService
}

const (
	loginLimitPerMin    = 5
	registerLimitPerMin = 3
	limitWindow         = 60 * time.Second

	readyTimeout = 2 * time.Second
	welcome      = "MiniInventory API. Products live under /api/v1/products.\n"
)

func NewHandler(deps Deps, httpDeps HTTPDeps) (http.Handler, error) {
	if deps.Store == nil {
		return nil, errors.New("api: store is required")
	}
	if httpDeps.Log == nil {
		httpDeps.Log = zap.NewNop()
	}

	tokens := auth.NewTokenMaker(deps.JWTSecret)
	resolver := auth.NewResolver(deps.Store, tokens, httpDeps.Log)
	credentials := auth.NewService(deps.Store, tokens, httpDeps.Log)

	authSrv := &auth.Server{Log: httpDeps.Log, Credentials: credentials, Resolver: resolver}
	productsV1 := &catalog.Server{Products: catalog.NewFileStore(deps.Store), Log: httpDeps.Log}
	managerOnly := resolver.Guard(store.RoleManager)

	r := chi.NewRouter()
	setupMiddleware(r, httpDeps)
	setupMetrics(r, httpDeps)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(welcome))
	})
	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps, httpDeps.Log))

	registerLimiter := kit.NewIPRateLimiter(registerLimitPerMin, limitWindow)
	loginLimiter := kit.NewIPRateLimiter(loginLimitPerMin, limitWindow)

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Mount("/products", productsV1.Routes(managerOnly...))
		v1.Mount("/", authSrv.Routes(registerLimiter.Middleware, loginLimiter.Middleware))
	})

	if deps.ProductsV2 != nil {
		productsV2 := &catalog.Server{Products: deps.ProductsV2, Log: httpDeps.Log}
		r.Mount("/api/v2/products", productsV2.Routes(managerOnly...))
	}

	return r, nil
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.RoutePattern))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.StaticBearer(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(deps Deps, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := deps.Store.Ping(ctx); err != nil {
			log.Warn("readyz failed: store", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "store not ready", nil)
			return
		}

		if deps.ProductsV2 != nil {
			if err := deps.ProductsV2.Ping(ctx); err != nil {
				log.Warn("readyz failed: postgres", zap.Error(err))
				kit.WriteError(w, r, http.StatusServiceUnavailable, "postgres not ready", nil)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
	}
}
