package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parisxmas/vacancyform/internal/auth"
	"github.com/parisxmas/vacancyform/internal/handler"
	mw "github.com/parisxmas/vacancyform/internal/middleware"
)

type Handlers struct {
	Page       *handler.PageHandler
	Form       *handler.FormHandler
	Submission *handler.SubmissionHandler
	Document   *handler.DocumentHandler
	Auth       *handler.AuthHandler
	Admin      *handler.AdminHandler
	Search     *handler.SearchHandler
	Dashboard  *handler.DashboardHandler
	Health     *handler.HealthHandler
}

func New(jwtSecret string, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(mw.Recovery)
	r.Use(mw.Logger)

	r.Get("/", h.Page.Form)
	r.Post("/", h.Page.Submit)
	r.Get("/documents/{key}", h.Document.Download)
	r.Get("/healthz", h.Health.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.CORS)

		r.Get("/form", h.Form.Get)
		r.Post("/submissions", h.Submission.Create)
		r.Post("/auth/login", h.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(jwtSecret))

			r.Get("/auth/me", h.Auth.Me)
			r.Get("/dashboard", h.Dashboard.Dashboard)
			r.Get("/submissions", h.Admin.List)
			r.Get("/submissions/export", h.Admin.Export)
			r.Get("/submissions/search", h.Search.Search)
		})
	})

	return r
}
