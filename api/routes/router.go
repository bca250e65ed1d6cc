package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/karinvintage/vintagecloset-backend/api/controllers"
	webhookcontrollers "github.com/karinvintage/vintagecloset-backend/api/controllers/webhooks"
	"github.com/karinvintage/vintagecloset-backend/api/middleware"
	"github.com/karinvintage/vintagecloset-backend/internal/catalog"
	checkoutsvc "github.com/karinvintage/vintagecloset-backend/internal/checkout"
	"github.com/karinvintage/vintagecloset-backend/internal/discounts"
	ordersvc "github.com/karinvintage/vintagecloset-backend/internal/orders"
	"github.com/karinvintage/vintagecloset-backend/internal/pickup"
	stripewebhook "github.com/karinvintage/vintagecloset-backend/internal/webhooks/stripe"
	"github.com/karinvintage/vintagecloset-backend/pkg/config"
	"github.com/karinvintage/vintagecloset-backend/pkg/db"
	"github.com/karinvintage/vintagecloset-backend/pkg/logger"
	"github.com/karinvintage/vintagecloset-backend/pkg/redis"
	"github.com/karinvintage/vintagecloset-backend/pkg/stripe"
)

// RouterParams collects everything the HTTP surface depends on.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger

	DB    db.Pinger
	Redis redis.Pinger

	CatalogService  catalog.Service
	CheckoutService checkoutsvc.Service
	OrdersService   ordersvc.Service
	DiscountsRepo   *discounts.Repository
	PickupRepo      *pickup.Repository

	StripeClient         *stripe.Client
	StripeWebhookService *stripewebhook.Service

	MetricsRegistry *prometheus.Registry
}

// NewRouter wires the storefront, admin, and webhook routes.
func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DB, params.Redis))
	})

	if params.MetricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.MetricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(params.CatalogService, logg))
			r.Get("/{slug}", controllers.ProductBySlug(params.CatalogService, logg))
		})
		r.Post("/checkout/session", controllers.CheckoutSession(params.CheckoutService, logg))
		r.Get("/orders/session/{sessionID}", controllers.OrderBySession(params.OrdersService, logg))
		r.Post("/webhooks/stripe", webhookcontrollers.StripeWebhook(params.StripeWebhookService, params.StripeClient, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.AdminAuth(cfg.Supabase, logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminProductCreate(params.CatalogService, logg))
			r.Patch("/{productID}", controllers.AdminProductUpdate(params.CatalogService, logg))
			r.Delete("/{productID}", controllers.AdminProductDelete(params.CatalogService, logg))
		})

		r.Route("/discount-codes", func(r chi.Router) {
			r.Get("/", controllers.AdminDiscountCodeList(params.DiscountsRepo, logg))
			r.Post("/", controllers.AdminDiscountCodeCreate(params.DiscountsRepo, logg))
			r.Patch("/{codeID}", controllers.AdminDiscountCodeUpdate(params.DiscountsRepo, logg))
			r.Delete("/{codeID}", controllers.AdminDiscountCodeDelete(params.DiscountsRepo, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(params.OrdersService, logg))
			r.Patch("/{orderID}/status", controllers.AdminOrderUpdateStatus(params.OrdersService, logg))
		})

		r.Route("/pickup-codes", func(r chi.Router) {
			r.Get("/", controllers.AdminPickupCodeList(params.PickupRepo, logg))
			r.Post("/{code}/redeem", controllers.AdminPickupCodeRedeem(params.PickupRepo, logg))
		})
	})

	return r
}
