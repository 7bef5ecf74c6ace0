package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Mathiasric/snaptosize-app/internal/middleware"
)

type billingViewRequest struct {
	Source string `json:"source" validate:"omitempty,max=64"`
}

// BillingView records a visit to the billing page. A source means the visit
// came from an upgrade prompt.
func (a *App) BillingView(w http.ResponseWriter, r *http.Request) {
	var req billingViewRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes)).Decode(&req); err != nil {
			a.error(w, http.StatusBadRequest, "Invalid request")
			return
		}
	}
	req.Source = strings.TrimSpace(req.Source)
	if err := a.Validate.Struct(req); err != nil {
		a.errorDetail(w, http.StatusBadRequest, "Invalid request", "source is too long")
		return
	}

	session, _ := middleware.SessionFromContext(r.Context())
	props := map[string]any{
		"plan":    string(session.Plan),
		"country": middleware.CountryFromContext(r.Context()),
	}
	distinctID := session.DistinctID()
	a.Events.Capture(distinctID, "billing_view", props)
	if req.Source != "" {
		a.Events.Capture(distinctID, "upgrade_clicked", map[string]any{
			"source":  req.Source,
			"country": props["country"],
		})
	}
	a.json(w, http.StatusOK, map[string]bool{"ok": true})
}
