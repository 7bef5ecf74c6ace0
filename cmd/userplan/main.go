package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Mathiasric/snaptosize-app/internal/adapter/repo"
	"github.com/Mathiasric/snaptosize-app/internal/domain"
	"github.com/Mathiasric/snaptosize-app/internal/infra"
)

func main() {
	var (
		idFlag       string
		planFlag     string
		customerFlag string
	)

	flag.StringVar(&idFlag, "id", "", "user ID to update (token subject)")
	flag.StringVar(&planFlag, "plan", "pro", "plan to assign (free, pro)")
	flag.StringVar(&customerFlag, "customer", "", "billing customer id to record (kept when empty)")
	flag.Parse()

	userID := strings.TrimSpace(idFlag)
	if userID == "" {
		exitWithError(errors.New("-id must be provided"))
	}
	plan, err := domain.ParseUserPlan(planFlag)
	if err != nil {
		exitWithError(err)
	}

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}
	if cfg.DatabaseURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLoggerTo("cli", os.Stderr).With().Str("cmd", "userplan").Logger()
	plans := repo.NewPlanRepository(infra.NewSQLRunner(pool, logger))
	if err := plans.EnsureSchema(ctx); err != nil {
		exitWithError(fmt.Errorf("failed to prepare plan table: %w", err))
	}

	previous, err := repo.PlanOrFree(ctx, plans, userID)
	if err != nil {
		exitWithError(fmt.Errorf("failed to load user plan: %w", err))
	}
	rec, err := plans.SetPlan(ctx, userID, plan, strings.TrimSpace(customerFlag))
	if err != nil {
		exitWithError(fmt.Errorf("failed to update user plan: %w", err))
	}

	fmt.Printf("User %s updated to plan %s (was %s)\n", rec.UserID, rec.Plan, previous)
	if rec.CustomerID != "" {
		fmt.Printf("customer_id=%s\n", rec.CustomerID)
	}
	fmt.Printf("updated_at=%s\n", rec.UpdatedAt.UTC().Format(time.RFC3339))
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
