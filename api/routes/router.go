package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mhsadiq/cartrace-backend/api/controllers"
	"github.com/mhsadiq/cartrace-backend/api/middleware"
	"github.com/mhsadiq/cartrace-backend/internal/auth"
	"github.com/mhsadiq/cartrace-backend/internal/items"
	"github.com/mhsadiq/cartrace-backend/internal/orders"
	"github.com/mhsadiq/cartrace-backend/internal/tracking"
	"github.com/mhsadiq/cartrace-backend/pkg/bigquery"
	"github.com/mhsadiq/cartrace-backend/pkg/config"
	"github.com/mhsadiq/cartrace-backend/pkg/db"
	"github.com/mhsadiq/cartrace-backend/pkg/logger"
	"github.com/mhsadiq/cartrace-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	bigqueryClient bigquery.Pinger,
	authService auth.Service,
	trackingService tracking.Service,
	ordersService orders.Service,
	itemsService *items.Service,
) http.Handler {
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

	// Assign through interfaces only when the client is non-nil so the
	// middleware nil checks stay meaningful.
	var (
		redisPinger redis.Pinger
		idemStore   redis.IdempotencyStore
		rateStore   interface {
			IncrWithTTL(context.Context, string, time.Duration) (int64, error)
		}
	)
	if redisClient != nil {
		redisPinger = redisClient
		idemStore = redisClient
		rateStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger, bigqueryClient))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, rateStore, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.Group(func(r chi.Router) {
			r.Use(
				middleware.AuthRateLimit(registerPolicy, rateStore, logg),
				middleware.Idempotency(idemStore, logg),
			)
			r.Post("/register", controllers.AuthRegister(authService, logg))
		})
	})

	// Device-facing surface. Readers authenticate at the network layer, so
	// scans and the read paths stay public.
	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.Idempotency(idemStore, logg)).Post("/scans", controllers.Scan(trackingService, logg))
		r.Get("/events", controllers.EventList(trackingService, logg))
		r.Get("/inventory", controllers.Inventory(trackingService, logg))
		r.Get("/locations/{uid}", controllers.Location(trackingService, logg))
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))
		r.Post("/", controllers.OrderCreate(ordersService, logg))
		r.Get("/", controllers.OrderList(ordersService, logg))
		r.Get("/by-tag/{uid}", controllers.OrderByTag(ordersService, logg))
		r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
		r.Get("/{orderId}/items", controllers.OrderItems(ordersService, logg))
	})

	r.Route("/api/v1/items", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Get("/{uid}", controllers.ItemDetail(itemsService, logg))
	})

	return r
}
