package plan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
	"github.com/Giftedmindbenjamin/surbminer/internal/models"
	"github.com/Giftedmindbenjamin/surbminer/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger := common.NewSilentLogger()
	svc := NewService(storage.NewMemoryManager(logger), logger)
	svc.now = func() time.Time { return time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestSeed_SkipsExistingPlans(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	n, err := svc.Seed(ctx, DefaultPlans())
	require.NoError(t, err)
	assert.Equal(t, len(DefaultPlans()), n)

	// an admin edit must survive a second seed
	edited, err := svc.Find(ctx, "basic")
	require.NoError(t, err)
	edited.DailyPercentage = decimal.RequireFromString("2.50")
	require.NoError(t, svc.Save(ctx, edited))

	n, err = svc.Seed(ctx, DefaultPlans())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := svc.Find(ctx, "basic")
	require.NoError(t, err)
	assert.Equal(t, "2.5", got.DailyPercentage.String())
}

func TestListActive_OrderedAndFiltered(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	plans := DefaultPlans()
	// reverse insertion order to make sure ordering comes from MinAmount
	for i := len(plans) - 1; i >= 0; i-- {
		require.NoError(t, svc.Save(ctx, plans[i]))
	}
	retired := &models.Plan{
		ID:              "legacy",
		Name:            "LEGACY",
		MinAmount:       decimal.NewFromInt(50),
		DailyPercentage: decimal.NewFromInt(1),
		DurationDays:    10,
		IsActive:        false,
	}
	require.NoError(t, svc.Save(ctx, retired))

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, len(plans))
	for i := 1; i < len(active); i++ {
		assert.True(t, active[i-1].MinAmount.LessThanOrEqual(active[i].MinAmount))
	}
	assert.Equal(t, "basic", active[0].ID)

	_, err = svc.Find(ctx, "legacy")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestSave_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	max := decimal.NewFromInt(10)

	tests := []struct {
		name  string
		plan  *models.Plan
		field string
	}{
		{"zero min", &models.Plan{ID: "p", Name: "P", DailyPercentage: decimal.NewFromInt(1), DurationDays: 1}, "min_amount"},
		{"max below min", &models.Plan{ID: "p", Name: "P", MinAmount: decimal.NewFromInt(20), MaxAmount: &max, DailyPercentage: decimal.NewFromInt(1), DurationDays: 1}, "max_amount"},
		{"zero rate", &models.Plan{ID: "p", Name: "P", MinAmount: decimal.NewFromInt(1), DurationDays: 1}, "daily_percentage"},
		{"zero duration", &models.Plan{ID: "p", Name: "P", MinAmount: decimal.NewFromInt(1), DailyPercentage: decimal.NewFromInt(1)}, "duration_days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Save(ctx, tt.plan)
			var verr *models.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestSave_PreservesCreatedAt(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p := DefaultPlans()[0]
	require.NoError(t, svc.Save(ctx, p))
	created := p.CreatedAt

	later := created.Add(48 * time.Hour)
	svc.now = func() time.Time { return later }
	p.Description = "updated"
	require.NoError(t, svc.Save(ctx, p))

	got, err := svc.Find(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.True(t, got.UpdatedAt.Equal(later))
}

func TestPlansFromConfig(t *testing.T) {
	plans, err := PlansFromConfig([]common.PlanConfig{
		{ID: "basic", Name: "BASIC", MinAmount: "100", MaxAmount: "999.99", DailyPercentage: "3.00", DurationDays: 30},
		{ID: "vip", Name: "VIP", MinAmount: "10000", DailyPercentage: "6", DurationDays: 14, Inactive: true},
	})
	require.NoError(t, err)
	require.Len(t, plans, 2)

	require.NotNil(t, plans[0].MaxAmount)
	assert.Equal(t, "999.99", plans[0].MaxAmount.StringFixed(2))
	assert.True(t, plans[0].IsActive)
	assert.Nil(t, plans[1].MaxAmount)
	assert.False(t, plans[1].IsActive)

	_, err = PlansFromConfig([]common.PlanConfig{{ID: "bad", Name: "BAD", MinAmount: "abc", DailyPercentage: "1", DurationDays: 1}})
	assert.Error(t, err)

	_, err = PlansFromConfig([]common.PlanConfig{{ID: "bad", Name: "BAD", MinAmount: "10", DailyPercentage: "1", DurationDays: 0}})
	assert.True(t, errors.Is(err, models.ErrValidation))
}
