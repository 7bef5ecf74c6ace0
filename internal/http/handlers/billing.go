package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/Mathiasric/snaptosize-app/internal/billing"
)

const signatureHeader = "X-Webhook-Signature"

// BillingWebhook verifies and applies a billing provider event.
func (a *App) BillingWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		a.error(w, http.StatusRequestEntityTooLarge, "Payload too large")
		return
	}
	signature := strings.TrimSpace(r.Header.Get(signatureHeader))
	if a.WebhookSecret == "" || signature == "" {
		a.error(w, http.StatusBadRequest, "Missing signature or secret")
		return
	}
	if err := billing.VerifySignature(a.WebhookSecret, signature, body); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid signature")
		return
	}
	if a.Billing == nil {
		a.error(w, http.StatusInternalServerError, "Billing not configured")
		return
	}

	ev, err := billing.ParseEvent(a.Validate, body)
	if err != nil {
		a.errorDetail(w, http.StatusBadRequest, "Invalid payload", err.Error())
		return
	}
	outcome, err := a.Billing.Handle(r.Context(), ev)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "Processing failed")
		return
	}
	a.Logger.Debug().Str("event_id", ev.ID).Str("outcome", string(outcome)).Msg("billing: webhook handled")
	a.json(w, http.StatusOK, map[string]bool{"received": true})
}
