package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mathiasric/snaptosize-app/internal/domain"
	"github.com/Mathiasric/snaptosize-app/internal/infra"
)

// DefaultClaimTTL bounds how long a processed event id is remembered. It
// exceeds the provider's redelivery window.
const DefaultClaimTTL = 30 * 24 * time.Hour

// Outcome describes what Handle did with an event.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeDuplicate Outcome = "duplicate"
)

type EventSink interface {
	Capture(distinctID, event string, props map[string]any)
}

type ProcessorOptions struct {
	Ledger   domain.EventLedger
	Plans    domain.PlanRepository
	Events   EventSink
	ClaimTTL time.Duration
	Logger   *infra.Logger
}

// Processor applies webhook events at most once per event id.
type Processor struct {
	ledger domain.EventLedger
	plans  domain.PlanRepository
	events EventSink
	ttl    time.Duration
	logger *infra.Logger
}

func NewProcessor(opts ProcessorOptions) (*Processor, error) {
	if opts.Ledger == nil || opts.Plans == nil {
		return nil, errors.New("billing: ledger and plan repository are required")
	}
	ttl := opts.ClaimTTL
	if ttl <= 0 {
		ttl = DefaultClaimTTL
	}
	logger := opts.Logger
	if logger == nil {
		l := infra.Logger(zerolog.Nop())
		logger = &l
	}
	return &Processor{ledger: opts.Ledger, plans: opts.Plans, events: opts.Events, ttl: ttl, logger: logger}, nil
}

// Handle claims ev.ID, then applies its plan change. A failed change releases
// the claim so a redelivery is processed again.
func (p *Processor) Handle(ctx context.Context, ev Event) (Outcome, error) {
	claimed, err := p.ledger.Claim(ctx, ev.ID, p.ttl)
	if err != nil {
		return "", err
	}
	if !claimed {
		return OutcomeDuplicate, nil
	}

	change, ok := ev.Change()
	if !ok {
		return OutcomeIgnored, nil
	}

	if _, err := p.plans.SetPlan(ctx, change.UserID, change.Plan, change.CustomerID); err != nil {
		p.logger.Error().Err(err).
			Str("event_id", ev.ID).
			Str("event_type", ev.Type).
			Msg("billing: webhook processing failed")
		if rerr := p.ledger.Release(ctx, ev.ID); rerr != nil {
			p.logger.Warn().Err(rerr).Str("event_id", ev.ID).Msg("billing: release claim failed")
		}
		return "", fmt.Errorf("billing: apply %s: %w", ev.Type, err)
	}

	p.logger.Info().
		Str("event_id", ev.ID).
		Str("user_id", change.UserID).
		Str("plan", string(change.Plan)).
		Msg("billing: plan changed")
	if p.events != nil {
		p.events.Capture(domain.Session{UserID: change.UserID}.DistinctID(), "plan_changed", map[string]any{
			"plan":       string(change.Plan),
			"event_type": ev.Type,
		})
	}
	return OutcomeApplied, nil
}
