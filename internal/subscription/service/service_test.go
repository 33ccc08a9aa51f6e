package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"golang.org/x/crypto/bcrypt"

	quotaservice "github.com/Deehands24/laymen-terms/internal/quota/service"
	"github.com/Deehands24/laymen-terms/internal/subscription"
	"github.com/Deehands24/laymen-terms/internal/subscription/repository"
	userrepo "github.com/Deehands24/laymen-terms/internal/user/repository"
	"github.com/Deehands24/laymen-terms/pkg/hash"
)

type fakeCheckout struct {
	got CheckoutInput
	err error
}

func (f *fakeCheckout) CreateCheckout(_ context.Context, in CheckoutInput) (*CheckoutSession, error) {
	f.got = in
	if f.err != nil {
		return nil, f.err
	}
	return &CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}, nil
}

type noSubmissions struct{}

func (noSubmissions) CountSince(context.Context, int64, time.Time) (int, error) { return 0, nil }

type fixture struct {
	svc      *Service
	subs     *repository.StaticSubscriptionRepository
	quota    *quotaservice.Service
	checkout *fakeCheckout
}

func newFixture(t *testing.T, checkout CheckoutCreator) *fixture {
	t.Helper()
	hash.Cost = bcrypt.MinCost

	users, err := userrepo.NewStaticUserRepository()
	require.NoError(t, err)
	plans := repository.NewStaticPlanRepository(repository.DefaultPlans())
	subs := repository.NewStaticSubscriptionRepository()
	q := quotaservice.NewService(subs, plans, noSubmissions{})

	svc := NewService(plans, subs, users, q, Config{Checkout: checkout, WebhookSecret: "whsec_test"})
	f := &fixture{svc: svc, subs: subs, quota: q}
	if fc, ok := checkout.(*fakeCheckout); ok {
		f.checkout = fc
	}
	return f
}

func event(t *testing.T, typ string, object interface{}) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(object)
	require.NoError(t, err)
	return stripe.Event{ID: "evt_" + typ, Type: stripe.EventType(typ), Data: &stripe.EventData{Raw: raw}}
}

func TestCreateCheckout(t *testing.T) {
	fc := &fakeCheckout{}
	f := newFixture(t, fc)

	sess, err := f.svc.CreateCheckout(context.Background(), 3, 1, "https://app.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", sess.ID)

	assert.Equal(t, int64(1499), fc.got.Plan.PriceCents)
	assert.Equal(t, "Premium", fc.got.Plan.Name)
	assert.Equal(t, "demo_user", fc.got.Username)
	assert.Equal(t, "https://app.example.com/subscription?canceled=true", fc.got.CancelURL)
	assert.Contains(t, fc.got.SuccessURL, "https://app.example.com/dashboard?success=true")
}

func TestCreateCheckoutErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &fakeCheckout{})

	_, err := f.svc.CreateCheckout(ctx, 42, 1, "")
	assert.ErrorIs(t, err, ErrPlanNotFound)

	_, err = f.svc.CreateCheckout(ctx, 1, 1, "")
	assert.ErrorIs(t, err, ErrFreePlan)

	_, err = f.svc.CreateCheckout(ctx, 2, 999, "")
	assert.ErrorIs(t, err, ErrUserNotFound)

	unconfigured := newFixture(t, nil)
	_, err = unconfigured.svc.CreateCheckout(ctx, 2, 1, "")
	assert.ErrorIs(t, err, ErrBillingNotConfigured)

	failing := newFixture(t, &fakeCheckout{err: errors.New("stripe down")})
	_, err = failing.svc.CreateCheckout(ctx, 2, 1, "")
	assert.Error(t, err)
}

func TestCheckoutCompletedActivatesPlan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	_, err := f.subs.AssignPlan(ctx, 1, subscription.FreePlanID)
	require.NoError(t, err)
	require.NoError(t, f.quota.IncrementUsage(ctx, 1))

	err = f.svc.HandleEvent(ctx, event(t, "checkout.session.completed", map[string]interface{}{
		"id":           "cs_1",
		"object":       "checkout.session",
		"customer":     "cus_1",
		"subscription": "sub_1",
		"metadata":     map[string]string{"userId": "1", "planId": "3", "username": "demo_user"},
	}))
	require.NoError(t, err)

	active, err := f.subs.GetActiveByUserID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, int64(3), active.PlanID)
	assert.Equal(t, "cus_1", active.StripeCustomerID)
	assert.Equal(t, "sub_1", active.StripeSubscriptionID)

	l, err := f.quota.CheckLimit(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 200, l.Remaining)
}

func TestCheckoutCompletedWithoutMetadataIsAcknowledged(t *testing.T) {
	f := newFixture(t, nil)

	err := f.svc.HandleEvent(context.Background(), event(t, "checkout.session.completed", map[string]interface{}{
		"id": "cs_2", "object": "checkout.session",
	}))
	assert.NoError(t, err)
}

func activate(t *testing.T, f *fixture) {
	t.Helper()
	now := time.Now()
	require.NoError(t, f.subs.Activate(context.Background(), subscription.Activation{
		UserID: 1, PlanID: 2, StripeCustomerID: "cus_1", StripeSubscriptionID: "sub_1",
		PeriodStart: now, PeriodEnd: now.AddDate(0, 0, 30),
	}))
}

func TestPaymentSucceededResetsUsage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	activate(t, f)
	for i := 0; i < 10; i++ {
		require.NoError(t, f.quota.IncrementUsage(ctx, 1))
	}

	err := f.svc.HandleEvent(ctx, event(t, "invoice.payment_succeeded", map[string]interface{}{
		"id": "in_1", "object": "invoice", "customer": "cus_1",
	}))
	require.NoError(t, err)

	l, err := f.quota.CheckLimit(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 50, l.Remaining)
	assert.Equal(t, 50, l.Limit)
}

func TestSubscriptionStatusUpdates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	activate(t, f)

	require.NoError(t, f.svc.HandleEvent(ctx, event(t, "customer.subscription.updated", map[string]interface{}{
		"id": "sub_1", "object": "subscription", "status": "past_due",
	})))
	active, err := f.subs.GetActiveByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, active)

	require.NoError(t, f.svc.HandleEvent(ctx, event(t, "customer.subscription.created", map[string]interface{}{
		"id": "sub_1", "object": "subscription", "status": "active",
	})))
	active, err = f.subs.GetActiveByUserID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, active)
}

func TestSubscriptionDeletedFallsBackToFreeTier(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	activate(t, f)

	require.NoError(t, f.svc.HandleEvent(ctx, event(t, "customer.subscription.deleted", map[string]interface{}{
		"id": "sub_1", "object": "subscription", "status": "canceled",
	})))

	l, err := f.quota.CheckLimit(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, l.Limit)
}

func TestMeterErrorIsStored(t *testing.T) {
	f := newFixture(t, nil)

	err := f.svc.HandleEvent(context.Background(), event(t, "v1.billing.meter.error_report_triggered", map[string]interface{}{
		"id": "mtr_1",
	}))
	require.NoError(t, err)

	stored := f.subs.BillingErrors()
	require.Len(t, stored, 1)
	assert.Equal(t, "v1.billing.meter.error_report_triggered", stored[0].EventType)
	assert.NotEmpty(t, stored[0].Payload)
}

func TestUnknownEventIsAcknowledged(t *testing.T) {
	f := newFixture(t, nil)
	assert.NoError(t, f.svc.HandleEvent(context.Background(), event(t, "customer.created", map[string]string{"id": "cus_9"})))
}

func TestConstructEventRequiresSecret(t *testing.T) {
	plans := repository.NewStaticPlanRepository(repository.DefaultPlans())
	svc := NewService(plans, repository.NewStaticSubscriptionRepository(), nil, nil, Config{})

	_, err := svc.ConstructEvent([]byte(`{}`), "t=1,v1=abc")
	assert.ErrorIs(t, err, ErrWebhookNotConfigured)
}
