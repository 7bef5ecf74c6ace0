package domain

import (
	"context"
	"time"
)

// PlanRepository stores the plan flag billing events mutate.
type PlanRepository interface {
	GetPlan(ctx context.Context, userID string) (*PlanRecord, error)
	SetPlan(ctx context.Context, userID string, plan UserPlan, customerID string) (*PlanRecord, error)
}

// EventLedger remembers processed billing event ids across processes.
type EventLedger interface {
	// Claim returns false when the id was already claimed.
	Claim(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, eventID string) error
}
