package router

import (
	"net/http"

	"coffee-on/internal/handler"
	"coffee-on/internal/middleware"
	"coffee-on/internal/model"
	"coffee-on/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Health    *handler.HealthHandler
	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	Products  *handler.ProductHandler
	Orders    *handler.OrderHandler
	Dashboard *handler.DashboardHandler
}

// Options configures the middleware chain.
type Options struct {
	Accounts       service.AccountService
	CookieName     string
	AllowedOrigins []string
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Recovery -> RequestID -> Logging -> CORS -> RequestInfo -> Session
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(opts.AllowedOrigins))
	r.Use(middleware.RequestInfo)
	r.Use(middleware.Session(opts.Accounts, opts.CookieName, logger))

	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	// Public routes
	r.Get("/health", h.Health.Check)
	r.Post("/api/login", h.Auth.Login)
	r.Post("/api/usuarios", h.Users.Create)
	r.Post("/api/usuarios/recover", h.Users.Recover)
	r.Post("/api/usuarios/reset", h.Users.Reset)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/api/me", h.Auth.Me)
		r.Post("/api/logout", h.Auth.Logout)

		r.Route("/api/produtos", func(r chi.Router) {
			r.Get("/", h.Products.GetAll)
			r.Post("/", h.Products.Create)
			r.Get("/{id}", h.Products.GetByID)
			r.Put("/{id}", h.Products.Update)
			r.Delete("/{id}", h.Products.Delete)
		})

		r.Get("/api/usuarios", h.Users.List)
		r.Get("/api/usuarios/{id}", h.Users.GetByID)
		r.Put("/api/usuarios/{id}", h.Users.Update)
		r.Delete("/api/usuarios/{id}", h.Users.Delete)

		r.Route("/pedidos", func(r chi.Router) {
			r.Post("/", h.Orders.Create)
			r.Get("/", h.Orders.List)
			r.Get("/{id}", h.Orders.GetByID)
			r.Put("/{id}", h.Orders.Update)
		})

		r.Get("/api/dashboard/resumo", h.Dashboard.Summary)
	})

	return r
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"` + model.ErrCodeNotFound + `","message":"Rota não encontrada"}`))
}
