package domain

import (
	"fmt"
	"strings"
	"time"
)

// UserPlan enumerates billing plans.
type UserPlan string

const (
	UserPlanFree UserPlan = "free"
	UserPlanPro  UserPlan = "pro"
)

// ParseUserPlan normalizes a plan name.
func ParseUserPlan(raw string) (UserPlan, error) {
	switch plan := UserPlan(strings.ToLower(strings.TrimSpace(raw))); plan {
	case UserPlanFree, UserPlanPro:
		return plan, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedPlan, raw)
}

// Session is the read-only identity an export attempt runs under.
type Session struct {
	UserID string
	Plan   UserPlan
	Token  string
}

// IsPro reports whether every selected output may be enqueued.
func (s Session) IsPro() bool {
	return s.Plan == UserPlanPro
}

// DistinctID is the analytics identity for the session.
func (s Session) DistinctID() string {
	if s.UserID == "" {
		return "anonymous"
	}
	return "user:" + s.UserID
}

// PlanRecord is the stored plan of a user.
type PlanRecord struct {
	UserID     string
	Plan       UserPlan
	CustomerID string
	UpdatedAt  time.Time
}
