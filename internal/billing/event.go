// Package billing turns payment-provider webhooks into plan changes.
package billing

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/Mathiasric/snaptosize-app/internal/domain"
)

const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

var activeSubscriptionStatuses = []string{"active", "trialing", "past_due"}

// Event is the normalized webhook envelope.
type Event struct {
	ID   string `json:"id" validate:"required"`
	Type string `json:"type" validate:"required"`
	Data struct {
		Object EventObject `json:"object"`
	} `json:"data"`
}

// EventObject carries the fields of a checkout session or subscription that
// matter for plans.
type EventObject struct {
	Mode              string            `json:"mode"`
	Status            string            `json:"status"`
	Customer          any               `json:"customer"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

// CustomerID returns the customer when it is sent as a plain id.
func (o EventObject) CustomerID() string {
	if s, ok := o.Customer.(string); ok {
		return s
	}
	return ""
}

// PlanChange is what an event asks for. A zero value means no effect.
type PlanChange struct {
	UserID     string
	Plan       domain.UserPlan
	CustomerID string
}

// ParseEvent decodes and validates a webhook body.
func ParseEvent(v *validator.Validate, body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, fmt.Errorf("billing: decode event: %w", err)
	}
	if err := v.Struct(ev); err != nil {
		return Event{}, fmt.Errorf("billing: invalid event: %w", err)
	}
	return ev, nil
}

// Change maps an event onto a plan change.
func (e Event) Change() (PlanChange, bool) {
	obj := e.Data.Object
	switch e.Type {
	case EventCheckoutCompleted:
		if obj.Mode != "subscription" {
			return PlanChange{}, false
		}
		userID := obj.ClientReferenceID
		if userID == "" {
			userID = obj.Metadata["userId"]
		}
		if userID == "" {
			return PlanChange{}, false
		}
		return PlanChange{UserID: userID, Plan: domain.UserPlanPro, CustomerID: obj.CustomerID()}, true
	case EventSubscriptionUpdated:
		userID := obj.Metadata["userId"]
		if userID == "" {
			return PlanChange{}, false
		}
		plan := domain.UserPlanFree
		if slices.Contains(activeSubscriptionStatuses, obj.Status) {
			plan = domain.UserPlanPro
		}
		return PlanChange{UserID: userID, Plan: plan, CustomerID: obj.CustomerID()}, true
	case EventSubscriptionDeleted:
		userID := obj.Metadata["userId"]
		if userID == "" {
			return PlanChange{}, false
		}
		return PlanChange{UserID: userID, Plan: domain.UserPlanFree}, true
	}
	return PlanChange{}, false
}
