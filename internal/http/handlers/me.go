package handlers

import (
	"net/http"

	"github.com/Mathiasric/snaptosize-app/internal/adapter/repo"
	"github.com/Mathiasric/snaptosize-app/internal/middleware"
)

// Me reports the caller's stored plan. Users without a record are free.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	plan, err := repo.PlanOrFree(r.Context(), a.Plans, userID)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("me: plan lookup failed")
		a.error(w, http.StatusInternalServerError, "Plan lookup failed")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"user_id": userID, "plan": string(plan)})
}
