package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vedran77/glamplanner/internal/domain"
	"github.com/vedran77/glamplanner/internal/service"
	"github.com/vedran77/glamplanner/internal/transport/http/handlers"
	"github.com/vedran77/glamplanner/internal/transport/http/middleware"
)

type Deps struct {
	Logger      zerolog.Logger
	Auth        *service.AuthService
	Plans       *service.PlanService
	Gallery     *service.GalleryService
	Events      *service.EventService
	Media       *service.MediaService
	Ping        func(ctx context.Context) error
	Limiter     middleware.Limiter
	CORSOrigins []string
}

// New wires every route. Auth and upload endpoints are rate limited per client.
func New(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(d.Logger))
	r.Use(chimw.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authHandler := handlers.NewAuthHandler(d.Auth, d.Logger)
	planHandler := handlers.NewPlanHandler(d.Plans, d.Logger)
	galleryHandler := handlers.NewGalleryHandler(d.Gallery, d.Logger)
	eventHandler := handlers.NewEventHandler(d.Events, d.Logger)
	mediaHandler := handlers.NewMediaHandler(d.Media, d.Logger)
	healthHandler := handlers.NewHealthHandler(d.Ping, d.Logger)

	auth := middleware.Auth(d.Auth)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)
	limit := func(endpoint string) func(next http.Handler) http.Handler {
		return middleware.RateLimit(d.Limiter, endpoint, d.Logger)
	}

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)

		r.Route("/auth", func(r chi.Router) {
			r.With(limit("register")).Post("/register", authHandler.Register)
			r.With(limit("login")).Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Get("/me", authHandler.Me)
				r.Get("/admins", authHandler.ListAdmins)
			})
		})

		r.Route("/plans", func(r chi.Router) {
			r.Use(auth)

			r.Post("/", planHandler.Create)
			r.Get("/user", planHandler.ListMine)
			r.With(adminOnly).Get("/admin", planHandler.ListAssigned)
			r.With(adminOnly).Post("/{id}/replies", planHandler.Reply)
			r.Post("/{id}/hide", planHandler.Hide)
			r.Post("/{id}/replies/{replyID}/hide", planHandler.HideReply)
			r.With(adminOnly).Delete("/{id}", planHandler.Delete)
			r.Delete("/{id}/replies/{replyID}", planHandler.DeleteReply)
		})

		r.Route("/gallery", func(r chi.Router) {
			r.Get("/", galleryHandler.List)
			r.With(auth).Post("/", galleryHandler.Add)
			r.With(auth, adminOnly).Delete("/{id}", galleryHandler.Remove)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", eventHandler.List)
			r.Get("/{id}", eventHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(auth, adminOnly)
				r.Post("/", eventHandler.Create)
				r.Put("/{id}", eventHandler.Update)
				r.Delete("/{id}/images", eventHandler.RemoveImage)
				r.Delete("/{id}", eventHandler.Delete)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.With(limit("upload")).Post("/upload", mediaHandler.Upload)
			r.With(limit("upload")).Post("/upload-by-url", mediaHandler.UploadByURL)
			r.Delete("/image/*", mediaHandler.Delete)
		})
	})

	return r
}
