package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Mathiasric/snaptosize-app/internal/analytics"
	"github.com/Mathiasric/snaptosize-app/internal/billing"
	"github.com/Mathiasric/snaptosize-app/internal/domain"
	"github.com/Mathiasric/snaptosize-app/internal/infra"
	"github.com/Mathiasric/snaptosize-app/internal/workerapi"
)

const (
	maxUploadBytes  = 50 << 20
	maxJSONBytes    = 1 << 20
	maxWebhookBytes = 1 << 20
)

// App holds the gateway dependencies. Worker, Plans and Billing are nil when
// their configuration is absent.
type App struct {
	Worker        *workerapi.Client
	Plans         domain.PlanRepository
	Billing       *billing.Processor
	WebhookSecret string
	Events        analytics.Capturer
	Validate      *validator.Validate
	Logger        *infra.Logger
}

// NewApp fills in the optional collaborators.
func NewApp(a App) *App {
	if a.Events == nil {
		a.Events = analytics.Noop{}
	}
	if a.Validate == nil {
		a.Validate = validator.New(validator.WithRequiredStructEnabled())
	}
	if a.Logger == nil {
		l := infra.Logger(zerolog.Nop())
		a.Logger = &l
	}
	return &a
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}

func (a *App) errorDetail(w http.ResponseWriter, code int, msg, detail string) {
	a.json(w, code, map[string]string{"error": msg, "detail": detail})
}
