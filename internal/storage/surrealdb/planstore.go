package surrealdb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
	"github.com/Giftedmindbenjamin/surbminer/internal/interfaces"
	"github.com/Giftedmindbenjamin/surbminer/internal/models"
)

// PlanStore implements interfaces.PlanStore.
type PlanStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

var _ interfaces.PlanStore = (*PlanStore)(nil)

func NewPlanStore(db *surrealdb.DB, logger *common.Logger) *PlanStore {
	return &PlanStore{db: db, logger: logger}
}

func (s *PlanStore) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	recs, err := queryRecords[planRecord](ctx, s.db, "SELECT * OMIT id FROM $rid",
		map[string]any{"rid": rid(tablePlan, id)})
	if err != nil && !isNotFoundError(err) {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if len(recs) == 0 {
		return nil, models.NewNotFound("plan", id)
	}
	return recs[0].model()
}

func (s *PlanStore) SavePlan(ctx context.Context, plan *models.Plan) error {
	now := time.Now()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	sql := "UPSERT $rid CONTENT $plan"
	vars := map[string]any{"rid": rid(tablePlan, plan.ID), "plan": toPlanRecord(plan)}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[any](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to save plan after retries: %w", lastErr)
}

func (s *PlanStore) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	recs, err := queryRecords[planRecord](ctx, s.db, "SELECT * OMIT id FROM plan", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	out := make([]*models.Plan, 0, len(recs))
	for _, r := range recs {
		p, err := r.model()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MinAmount.LessThan(out[j].MinAmount) })
	return out, nil
}
