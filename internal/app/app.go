package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xenking/pantry-storefront/internal/domain/cart"
	"github.com/xenking/pantry-storefront/internal/domain/catalog"
	"github.com/xenking/pantry-storefront/internal/domain/order"
	"github.com/xenking/pantry-storefront/internal/handler"
	"github.com/xenking/pantry-storefront/internal/storage/file"
	"github.com/xenking/pantry-storefront/internal/storage/postgres"
	"github.com/xenking/pantry-storefront/internal/view"
	"github.com/xenking/pantry-storefront/pkg/health"
	"github.com/xenking/pantry-storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr), zap.String("catalog_source", cfg.Catalog.Source))

	// PostgreSQL is optional: without a database URL the cart persists to a
	// local file and the catalog must come from the remote API.
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.Add(health.Liveness, "goroutines", time.Second, health.GoroutineCountCheck(10000))
	if pool != nil {
		healthSvc.Add(health.Readiness, "postgres", 5*time.Second, func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
	}
	healthSvc.Start(ctx, 10*time.Second)

	// Cart state survives restarts through a single persisted snapshot.
	var store cart.Store
	if pool != nil {
		store = postgres.NewCartStore(pool, lg)
	} else {
		store = file.NewCartStore(cfg.CartPath, lg)
	}

	engine := cart.NewEngine(store, lg)
	if err := engine.Hydrate(ctx); err != nil {
		lg.Warn("Cart hydration failed, starting empty", zap.Error(err))
	}

	var source catalog.Source
	if cfg.Catalog.Source == "postgres" {
		source = postgres.NewCatalogSource(pool)
	} else {
		source = catalog.NewFetcher(catalog.FetcherConfig{
			BaseURL:       cfg.Catalog.BaseURL,
			FeaturedQuery: cfg.Catalog.FeaturedQuery,
			GeneralQuery:  cfg.Catalog.GeneralQuery,
		})
	}

	var orders order.Repository
	if pool != nil {
		orders = postgres.NewOrderRepository(pool)
	}

	views, err := view.New()
	if err != nil {
		return errors.Wrap(err, "parse templates")
	}

	h := handler.New(engine, source, orders, views)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("storefront", m),
			httpmiddleware.LogRequests(),
		),
	}

	healthSvc.SetReady(true)

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
