package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nexus-market/nexus-backend/api/routes"
	"github.com/nexus-market/nexus-backend/internal/auth"
	cartsvc "github.com/nexus-market/nexus-backend/internal/cart"
	catalogsvc "github.com/nexus-market/nexus-backend/internal/catalog"
	checkoutsvc "github.com/nexus-market/nexus-backend/internal/checkout"
	disclosuresvc "github.com/nexus-market/nexus-backend/internal/disclosure"
	"github.com/nexus-market/nexus-backend/internal/notifications"
	orderssvc "github.com/nexus-market/nexus-backend/internal/orders"
	"github.com/nexus-market/nexus-backend/internal/pricing"
	stocksvc "github.com/nexus-market/nexus-backend/internal/stock"
	"github.com/nexus-market/nexus-backend/internal/users"
	"github.com/nexus-market/nexus-backend/pkg/auth/session"
	"github.com/nexus-market/nexus-backend/pkg/config"
	"github.com/nexus-market/nexus-backend/pkg/db"
	"github.com/nexus-market/nexus-backend/pkg/logger"
	"github.com/nexus-market/nexus-backend/pkg/metrics"
	"github.com/nexus-market/nexus-backend/pkg/migrate"
	"github.com/nexus-market/nexus-backend/pkg/redis"
)

const defaultMethodID = "cinetpay"

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	engine, err := pricing.NewEngine(pricing.DefaultPromoRegistry(), pricing.DefaultMethodRegistry())
	if err != nil {
		logg.Error(context.Background(), "failed to build pricing engine", err)
		os.Exit(1)
	}

	storefrontMetrics := metrics.NewStorefrontMetrics(prometheus.DefaultRegisterer)

	catalogRepo, err := catalogsvc.NewRepository(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog repository", err)
		os.Exit(1)
	}
	cartRepo, err := cartsvc.NewRepository(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create cart repository", err)
		os.Exit(1)
	}
	ordersRepo, err := orderssvc.NewRepository(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create orders repository", err)
		os.Exit(1)
	}
	keysRepo, err := stocksvc.NewRepository(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create stock repository", err)
		os.Exit(1)
	}
	revealRepo, err := disclosuresvc.NewRepo(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create reveal repository", err)
		os.Exit(1)
	}
	notificationsRepo := notifications.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	catalogService, err := catalogsvc.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cartsvc.NewService(cartsvc.ServiceParams{
		Repo:            cartRepo,
		Offers:          catalogRepo,
		Engine:          engine,
		DefaultMethodID: defaultMethodID,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewGormService(
		dbClient,
		cartService,
		engine,
		checkoutsvc.NewSimulatedProcessor(cfg.Payments),
		storefrontMetrics,
		checkoutsvc.GormRepos{
			Orders: ordersRepo,
			Keys:   keysRepo,
			Offers: catalogRepo,
			Cart:   cartRepo,
		},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	ordersService, err := orderssvc.NewService(ordersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	stockService, err := stocksvc.NewGormService(dbClient, keysRepo, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	disclosureService, err := disclosuresvc.NewService(disclosuresvc.ServiceParams{
		Orders:      ordersRepo,
		Keys:        keysRepo,
		Reveals:     revealRepo,
		Celebrator:  notifications.NewCelebrator(notificationsRepo, logg, storefrontMetrics),
		Placeholder: cfg.Disclosure.DecodePlaceholder,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create disclosure service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Session:       sessionManager,
			Engine:        engine,
			Auth:          authService,
			Catalog:       catalogService,
			Stock:         stockService,
			Cart:          cartService,
			Checkout:      checkoutService,
			Orders:        ordersService,
			Disclosure:    disclosureService,
			Notifications: notificationsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
