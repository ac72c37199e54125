package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/xenking/greenbite/internal/domain/auth"
	"github.com/xenking/greenbite/internal/domain/catalog"
	"github.com/xenking/greenbite/internal/domain/loyalty"
	"github.com/xenking/greenbite/internal/domain/order"
	"github.com/xenking/greenbite/internal/domain/redeem"
	"github.com/xenking/greenbite/internal/domain/sales"
	"github.com/xenking/greenbite/internal/domain/user"
	"github.com/xenking/greenbite/internal/handler"
	"github.com/xenking/greenbite/internal/storage/postgres"
	"github.com/xenking/greenbite/pkg/health"
	"github.com/xenking/greenbite/pkg/httpmiddleware"
)

const serviceName = "greenbite-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m httpmiddleware.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// Domain services start spans on the global providers.
	otel.SetTracerProvider(m.TracerProvider())
	otel.SetMeterProvider(m.MeterProvider())

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc-pause", time.Second, health.GCMaxPauseCheck(time.Second))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	tx := postgres.NewTransactor(pool)
	userRepo := postgres.NewUserRepository(pool)
	shopRepo := postgres.NewShopRepository(pool)
	itemRepo := postgres.NewItemRepository(pool)
	offerRepo := postgres.NewOfferRepository(pool)
	issuanceRepo := postgres.NewIssuanceRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	apikeyRepo := postgres.NewAPIKeyRepository(pool)
	favoriteRepo := postgres.NewFavoriteRepository(pool)

	// Domain services.
	tokens := auth.NewTokenIssuer([]byte(cfg.JWT.Secret), cfg.JWT.TTL, cfg.JWT.Issuer)
	services := handler.Services{
		Orders:    order.NewService(orderRepo, itemRepo, tx),
		Loyalty:   loyalty.NewService(userRepo, tx),
		Redeem:    redeem.NewService(offerRepo, issuanceRepo, userRepo, tx),
		Catalog:   catalog.NewService(shopRepo, itemRepo),
		Favorites: catalog.NewFavorites(favoriteRepo),
		Users:     user.NewService(userRepo),
		Sales:     sales.NewService(orderRepo),
		Accounts:  auth.NewAccounts(userRepo, tokens),
	}

	// HTTP handlers.
	metrics, err := handler.NewMetrics(m.MeterProvider().Meter("github.com/xenking/greenbite/internal/handler"))
	if err != nil {
		return errors.Wrap(err, "register metrics")
	}
	h := handler.NewHandler(handler.Config{ExpiryWindow: cfg.Catalog.ExpiryWindow}, services, metrics)
	securityHandler := handler.NewSecurityHandler(apikeyRepo, []byte(cfg.APIKeyPepper), tokens)

	// One router: health endpoints + API routes.
	router := handler.Routes(h, securityHandler, map[string]http.HandlerFunc{
		"/livez":  healthSvc.LiveEndpoint,
		"/readyz": healthSvc.ReadyEndpoint,
	})
	routeFinder := httpmiddleware.MakeRouteFinder(router)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(router,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", handler.APIKeyHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:     cfg.RateLimit.Max,
				Window:  cfg.RateLimit.Window,
				KeyFunc: httpmiddleware.CallerKey,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument(serviceName, routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
		),
	}

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
