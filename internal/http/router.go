package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"thumbly/internal/http/handlers"
	"thumbly/internal/metrics"
	"thumbly/internal/middleware"
)

// NewRouter wires the HTTP surface: health, metrics, auth, upload signing and
// the generation pipeline.
func NewRouter(app *handlers.App, countries middleware.CountryLookup) stdhttp.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(middleware.CORS(app.Config.AllowedOrigins))
	r.Use(middleware.I18N("en", countries))

	r.Get("/v1/healthz", app.Health)
	r.Method(stdhttp.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute))
		r.Post("/generate", app.Generate)
		r.Get("/upload-auth", app.UploadAuth)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", app.Signup)
		r.Post("/login", app.Login)
		r.Post("/logout", app.Logout)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(app.Config.AccessTokenSecret))
			r.Get("/me", app.Me)
		})
	})

	return r
}
