package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Mathiasric/snaptosize-app/internal/http/handlers"
	"github.com/Mathiasric/snaptosize-app/internal/infra"
	"github.com/Mathiasric/snaptosize-app/internal/middleware"
)

// RouterOptions carries the middleware settings of the gateway.
type RouterOptions struct {
	JWTSecret       string
	AllowedOrigins  []string
	RateLimitPerMin int
	Country         middleware.CountryLookup
	Logger          infra.Logger
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.RateLimit(opts.RateLimitPerMin, time.Minute),
		middleware.Country(opts.Country),
	)

	r.Get("/v1/healthz", app.Health)

	// The billing provider signs its own requests.
	r.Post("/api/billing/webhook", app.BillingWebhook)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.JWTSecret))

		r.Post("/api/upload", app.Upload)
		r.Post("/api/enqueue", app.Enqueue)
		r.Get("/api/status", app.Status)
		r.Get("/api/download", app.Download)
		r.Get("/api/me", app.Me)
		r.Post("/api/analytics/billing-view", app.BillingView)
	})

	return r
}
