package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nexus-market/nexus-backend/api/controllers"
	"github.com/nexus-market/nexus-backend/api/middleware"
	"github.com/nexus-market/nexus-backend/internal/auth"
	cartsvc "github.com/nexus-market/nexus-backend/internal/cart"
	catalogsvc "github.com/nexus-market/nexus-backend/internal/catalog"
	checkoutsvc "github.com/nexus-market/nexus-backend/internal/checkout"
	disclosuresvc "github.com/nexus-market/nexus-backend/internal/disclosure"
	"github.com/nexus-market/nexus-backend/internal/notifications"
	orderssvc "github.com/nexus-market/nexus-backend/internal/orders"
	"github.com/nexus-market/nexus-backend/internal/pricing"
	stocksvc "github.com/nexus-market/nexus-backend/internal/stock"
	"github.com/nexus-market/nexus-backend/pkg/auth/session"
	"github.com/nexus-market/nexus-backend/pkg/config"
	"github.com/nexus-market/nexus-backend/pkg/db"
	"github.com/nexus-market/nexus-backend/pkg/enums"
	"github.com/nexus-market/nexus-backend/pkg/logger"
	"github.com/nexus-market/nexus-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface needs.
type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         *redis.Client
	Session       session.AccessSessionChecker
	Engine        *pricing.Engine
	Auth          auth.Service
	Catalog       catalogsvc.Service
	Stock         stocksvc.Service
	Cart          cartsvc.Service
	Checkout      checkoutsvc.Service
	Orders        orderssvc.Service
	Disclosure    disclosuresvc.Service
	Notifications notifications.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.AuthRegister(p.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(p.Auth, cfg.JWT, logg))
		r.Post("/password-reset", controllers.AuthPasswordReset(p.Auth, logg))
	})

	// Public catalog browsing.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(p.Catalog, logg))
		r.Get("/{slug}", controllers.ProductBySlug(p.Catalog, logg))
	})
	r.Get("/api/v1/payment-methods", controllers.ListPaymentMethods(p.Engine, logg))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Session, logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(p.Cart, logg))
			r.Delete("/", controllers.CartClear(p.Cart, logg))
			r.Post("/items", controllers.CartAddItem(p.Cart, logg))
			r.Post("/items/{offerId}/decrease", controllers.CartDecreaseItem(p.Cart, logg))
			r.Delete("/items/{offerId}", controllers.CartRemoveItem(p.Cart, logg))
			r.Post("/promo", controllers.CartApplyPromo(p.Cart, logg))
			r.Delete("/promo", controllers.CartRemovePromo(p.Cart, logg))
		})

		r.Post("/v1/checkout", controllers.Checkout(p.Checkout, logg))

		r.Route("/v1/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(p.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(p.Orders, logg))
			r.Get("/{orderId}/reveals", controllers.ListReveals(p.Disclosure, logg))
			r.Post("/{orderId}/items/{itemId}/reveal", controllers.RequestReveal(p.Disclosure, logg))
			r.Delete("/{orderId}/items/{itemId}/reveal", controllers.CancelReveal(p.Disclosure, logg))
			r.Post("/{orderId}/items/{itemId}/reveal/confirm", controllers.ConfirmReveal(p.Disclosure, logg))
		})

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
		})

		r.Route("/v1/vendor", func(r chi.Router) {
			r.Use(middleware.RequireAnyRole(logg, string(enums.UserRoleVendor), string(enums.UserRoleAdmin)))
			r.Post("/offers", controllers.VendorCreateOffer(p.Catalog, logg))
			r.Post("/offers/{offerId}/keys", controllers.VendorImportKeys(p.Stock, logg))
			r.Get("/offers/{offerId}/stock", controllers.VendorStockOverview(p.Stock, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Session, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Get("/ping", controllers.AdminPing())
		r.Route("/v1/products", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateProduct(p.Catalog, logg))
			r.Patch("/{productId}", controllers.AdminUpdateProduct(p.Catalog, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(p.Catalog, logg))
		})
	})

	return r
}
