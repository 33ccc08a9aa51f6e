package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Deehands24/laymen-terms/internal/subscription"
)

func TestLoadPlans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	content := `plans:
  - id: 1
    name: Free
    monthly_price: 0
    translations_per_month: 5
    features: ["5 translations per month"]
  - id: 9
    name: Enterprise
    monthly_price: 99.5
    translations_per_month: -1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	plans, err := LoadPlans(path)
	require.NoError(t, err)
	require.Len(t, plans, 2)

	assert.Equal(t, "Free", plans[0].Name)
	assert.Equal(t, []string{"5 translations per month"}, plans[0].Features)
	assert.True(t, plans[1].IsUnlimited())
	assert.Equal(t, int64(9950), plans[1].PriceCents())
}

func TestLoadPlansRejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	content := `plans:
  - {id: 1, name: A, translations_per_month: 5}
  - {id: 1, name: B, translations_per_month: 5}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := LoadPlans(path)
	assert.Error(t, err)
}

func TestStaticPlanRepository(t *testing.T) {
	repo := NewStaticPlanRepository(DefaultPlans())
	ctx := context.Background()

	plans, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 4)
	assert.Equal(t, int64(1), plans[0].ID)

	p, err := repo.GetByID(ctx, 4)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.IsUnlimited())

	p, err = repo.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestStaticSubscriptionLifecycle(t *testing.T) {
	repo := NewStaticSubscriptionRepository()
	ctx := context.Background()
	start := time.Now()

	_, err := repo.AssignPlan(ctx, 7, subscription.FreePlanID)
	require.NoError(t, err)

	ok, err := repo.IncrementUsage(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Activate(ctx, subscription.Activation{
		UserID:               7,
		PlanID:               3,
		StripeCustomerID:     "cus_1",
		StripeSubscriptionID: "sub_1",
		PeriodStart:          start,
		PeriodEnd:            start.AddDate(0, 0, 30),
	}))

	active, err := repo.GetActiveByUserID(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, int64(3), active.PlanID)
	assert.Equal(t, 0, active.TranslationsUsed)

	found, err := repo.CancelByStripeID(ctx, "sub_1", start)
	require.NoError(t, err)
	assert.True(t, found)

	active, err = repo.GetActiveByUserID(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, active)

	ok, err = repo.IncrementUsage(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}
