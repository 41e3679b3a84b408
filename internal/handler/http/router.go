package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/motorline/storefront/internal/domain"
	"github.com/motorline/storefront/internal/service"
	"github.com/motorline/storefront/pkg/health"
	"github.com/motorline/storefront/pkg/middleware"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	Catalog       *service.CatalogService
	Orders        *service.OrderService
	Users         *service.UserService
	Cart          *service.CartService
	Health        *health.Handler
	TokenValidate middleware.TokenValidator
	Environment   string
	Logger        *slog.Logger
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORS(middleware.CORSConfig{Environment: deps.Environment}))

	// Health check endpoints
	r.Get("/health/live", deps.Health.LivenessHandler())
	r.Get("/health/ready", deps.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	motorHandler := NewMotorHandler(deps.Catalog, deps.Logger)
	orderHandler := NewOrderHandler(deps.Orders, deps.Logger)
	userHandler := NewUserHandler(deps.Users, deps.Logger)
	cartHandler := NewCartHandler(deps.Cart, deps.Logger)

	auth := middleware.Auth(deps.TokenValidate)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	r.Route("/api/motors", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", motorHandler.ListMotors)
		r.Get("/top", motorHandler.TopMotors)
		r.Get("/categories", motorHandler.ListCategories)
		r.Get("/brands", motorHandler.ListBrands)
		r.Get("/manufacturers", motorHandler.ListManufacturers)
		r.Get("/{id}", motorHandler.GetMotor)
		r.Get("/{id}/reviews", motorHandler.ListReviews)

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/{id}/reviews", motorHandler.AddReview)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth, adminOnly)
			r.Post("/", motorHandler.CreateMotor)
			r.Put("/{id}", motorHandler.UpdateMotor)
			r.Delete("/{id}", motorHandler.DeleteMotor)
		})
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/register", userHandler.Register)
		r.Post("/login", userHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Get("/profile", userHandler.GetProfile)
			r.Put("/profile", userHandler.UpdateProfile)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth, adminOnly)
			r.Get("/", userHandler.ListUsers)
			r.Get("/{id}", userHandler.GetUser)
			r.Put("/{id}", userHandler.UpdateUser)
			r.Delete("/{id}", userHandler.DeleteUser)
		})
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(auth)

		r.Post("/", orderHandler.CreateOrder)
		r.Get("/myorders", orderHandler.ListMyOrders)
		r.Get("/{id}", orderHandler.GetOrder)
		r.Put("/{id}/pay", orderHandler.PayOrder)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/", orderHandler.ListAllOrders)
			r.Put("/{id}/deliver", orderHandler.DeliverOrder)
			r.Put("/{id}/status", orderHandler.UpdateOrderStatus)
			r.Delete("/{id}", orderHandler.DeleteOrder)
		})
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(auth)

		r.Get("/", cartHandler.GetCart)
		r.Delete("/", cartHandler.ClearCart)
		r.Post("/items", cartHandler.AddItem)
		r.Put("/items", cartHandler.SetItem)
		r.Delete("/items/{motorID}", cartHandler.RemoveItem)
	})

	r.With(ContentTypeJSON, auth).Post("/api/checkout", cartHandler.Checkout)

	return r
}
