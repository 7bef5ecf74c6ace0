package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Mathiasric/snaptosize-app/internal/domain"
	"github.com/Mathiasric/snaptosize-app/internal/infra"
	"github.com/Mathiasric/snaptosize-app/internal/sqlinline"
)

// PlanRepositoryPG implements domain.PlanRepository on the user_plans table.
type PlanRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewPlanRepository creates a new PlanRepositoryPG.
func NewPlanRepository(sql infra.SQLExecutor) *PlanRepositoryPG {
	return &PlanRepositoryPG{sql: sql}
}

// EnsureSchema creates user_plans when missing.
func (r *PlanRepositoryPG) EnsureSchema(ctx context.Context) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QEnsureUserPlans); err != nil {
		return fmt.Errorf("ensure user_plans: %w", err)
	}
	return nil
}

// GetPlan returns the stored plan or domain.ErrNotFound.
func (r *PlanRepositoryPG) GetPlan(ctx context.Context, userID string) (*domain.PlanRecord, error) {
	return scanPlan(r.sql.QueryRow(ctx, sqlinline.QSelectUserPlan, userID))
}

// SetPlan upserts the plan. An empty customerID keeps the stored one.
func (r *PlanRepositoryPG) SetPlan(ctx context.Context, userID string, plan domain.UserPlan, customerID string) (*domain.PlanRecord, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	return scanPlan(r.sql.QueryRow(ctx, sqlinline.QUpsertUserPlan, userID, string(plan), customerID))
}

func scanPlan(row pgx.Row) (*domain.PlanRecord, error) {
	var rec domain.PlanRecord
	var plan string
	if err := row.Scan(&rec.UserID, &plan, &rec.CustomerID, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	parsed, err := domain.ParseUserPlan(plan)
	if err != nil {
		return nil, err
	}
	rec.Plan = parsed
	return &rec, nil
}

// PlanOrFree resolves a user's plan, treating unknown users as free.
func PlanOrFree(ctx context.Context, plans domain.PlanRepository, userID string) (domain.UserPlan, error) {
	if plans == nil || userID == "" {
		return domain.UserPlanFree, nil
	}
	rec, err := plans.GetPlan(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.UserPlanFree, nil
	}
	if err != nil {
		return "", err
	}
	return rec.Plan, nil
}

var _ domain.PlanRepository = (*PlanRepositoryPG)(nil)
