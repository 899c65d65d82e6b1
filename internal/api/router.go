package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter собирает корневой роутер: общие middleware, CORS и все маршруты.
func NewRouter(deps ApiDependencies) http.Handler {
	a := NewAPI(deps)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(a.deps.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.HTTP.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	a.SetupRoutes(r)
	return r
}

// SetupRoutes настраивает все маршруты для API.
func (a *API) SetupRoutes(r chi.Router) {
	r.Get("/healthz", a.Healthz)
	r.Get("/uploads/*", a.UploadsHandler)

	// --- Публичные маршруты сайта ---
	r.Route("/api", func(r chi.Router) {
		r.Get("/designs", a.ListDesigns)
		r.Get("/designs/featured", a.FeaturedDesigns)
		r.Get("/designs/{slug}", a.GetDesign)

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.Timeout(2 * time.Minute))
			r.Post("/custom", a.CreateCustomOrder)
			r.Post("/termos", a.CreateTermosOrder)
			r.Post("/ready", a.CreateReadyOrder)
		})
	})

	// --- Админка ---
	r.Route("/admin/api", func(r chi.Router) {
		r.Post("/login", a.AdminLogin)
		r.Post("/logout", a.AdminLogout)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(a.deps.Config.Admin.SessionSecret, a.deps.Log))

			r.Get("/orders", a.AdminListOrders)
			r.Get("/orders/export.xlsx", a.AdminExportOrders)
			r.Get("/orders/{id}", a.AdminGetOrder)
			r.Get("/orders/{id}/qr.png", a.AdminOrderQR)

			r.Get("/designs", a.AdminListDesigns)
			r.Post("/designs", a.AdminCreateDesign)
			r.Post("/designs/image", a.AdminUploadDesignImage)
			r.Put("/designs/{id}", a.AdminUpdateDesign)
			r.Delete("/designs/{id}", a.AdminDeleteDesign)
		})
	})
}
