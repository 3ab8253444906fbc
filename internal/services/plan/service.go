// Package plan provides the investment plan catalog
package plan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
	"github.com/Giftedmindbenjamin/surbminer/internal/interfaces"
	"github.com/Giftedmindbenjamin/surbminer/internal/models"
)

// Compile-time interface check
var _ interfaces.PlanService = (*Service)(nil)

// Service implements PlanService
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
	now     func() time.Time // injectable clock for testing
}

// NewService creates a new plan service
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// Find returns an active plan. Inactive plans are reported as not found.
func (s *Service) Find(ctx context.Context, id string) (*models.Plan, error) {
	plan, err := s.storage.PlanStore().GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, models.NewNotFound("plan", id)
	}
	return plan, nil
}

// ListActive returns the active plans, cheapest first
func (s *Service) ListActive(ctx context.Context) ([]*models.Plan, error) {
	plans, err := s.storage.PlanStore().ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	active := make([]*models.Plan, 0, len(plans))
	for _, p := range plans {
		if p.IsActive {
			active = append(active, p)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].MinAmount.LessThan(active[j].MinAmount)
	})
	return active, nil
}

// Save validates and stores a plan. Existing investments keep the rates
// they were opened with.
func (s *Service) Save(ctx context.Context, plan *models.Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	now := s.now()
	existing, err := s.storage.PlanStore().GetPlan(ctx, plan.ID)
	switch {
	case err == nil:
		plan.CreatedAt = existing.CreatedAt
	case errors.Is(err, models.ErrNotFound):
		plan.CreatedAt = now
	default:
		return fmt.Errorf("failed to get plan: %w", err)
	}
	plan.UpdatedAt = now

	if err := s.storage.PlanStore().SavePlan(ctx, plan); err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	s.logger.Info().Str("plan_id", plan.ID).Bool("active", plan.IsActive).Msg("Plan saved")
	return nil
}

// Seed saves the plans that are not stored yet. Stored plans win so that
// admin edits survive restarts.
func (s *Service) Seed(ctx context.Context, plans []*models.Plan) (int, error) {
	seeded := 0
	for _, p := range plans {
		_, err := s.storage.PlanStore().GetPlan(ctx, p.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, models.ErrNotFound) {
			return seeded, fmt.Errorf("failed to check plan %s: %w", p.ID, err)
		}
		if err := s.Save(ctx, p); err != nil {
			return seeded, fmt.Errorf("failed to seed plan %s: %w", p.ID, err)
		}
		seeded++
	}
	if seeded > 0 {
		s.logger.Info().Int("count", seeded).Msg("Plan catalog seeded")
	}
	return seeded, nil
}

// PlansFromConfig converts [[plans]] entries into models. Amount strings are
// decimals; an empty max_amount means the plan has no upper bound.
func PlansFromConfig(entries []common.PlanConfig) ([]*models.Plan, error) {
	plans := make([]*models.Plan, 0, len(entries))
	for _, e := range entries {
		p := &models.Plan{
			ID:           e.ID,
			Name:         e.Name,
			DurationDays: e.DurationDays,
			Description:  e.Description,
			IsActive:     !e.Inactive,
		}

		var err error
		if p.MinAmount, err = decimal.NewFromString(e.MinAmount); err != nil {
			return nil, fmt.Errorf("plan %s: invalid min_amount %q: %w", e.ID, e.MinAmount, err)
		}
		if e.MaxAmount != "" {
			max, err := decimal.NewFromString(e.MaxAmount)
			if err != nil {
				return nil, fmt.Errorf("plan %s: invalid max_amount %q: %w", e.ID, e.MaxAmount, err)
			}
			p.MaxAmount = &max
		}
		if p.DailyPercentage, err = decimal.NewFromString(e.DailyPercentage); err != nil {
			return nil, fmt.Errorf("plan %s: invalid daily_percentage %q: %w", e.ID, e.DailyPercentage, err)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("plan %s: %w", e.ID, err)
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// DefaultPlans is the catalog used when the config defines none.
func DefaultPlans() []*models.Plan {
	bounded := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}
	return []*models.Plan{
		{
			ID:              "basic",
			Name:            "BASIC",
			MinAmount:       decimal.NewFromInt(100),
			MaxAmount:       bounded("999.99"),
			DailyPercentage: decimal.RequireFromString("3.00"),
			DurationDays:    30,
			IsActive:        true,
		},
		{
			ID:              "standard",
			Name:            "STANDARD",
			MinAmount:       decimal.NewFromInt(1000),
			MaxAmount:       bounded("4999.99"),
			DailyPercentage: decimal.RequireFromString("4.00"),
			DurationDays:    30,
			IsActive:        true,
		},
		{
			ID:              "advanced",
			Name:            "ADVANCED",
			MinAmount:       decimal.NewFromInt(5000),
			MaxAmount:       bounded("9999.99"),
			DailyPercentage: decimal.RequireFromString("5.00"),
			DurationDays:    30,
			IsActive:        true,
		},
		{
			ID:              "premium",
			Name:            "PREMIUM",
			MinAmount:       decimal.NewFromInt(10000),
			DailyPercentage: decimal.RequireFromString("6.00"),
			DurationDays:    30,
			IsActive:        true,
		},
	}
}
