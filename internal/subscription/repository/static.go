package repository

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/Deehands24/laymen-terms/internal/subscription"
)

// DefaultPlans mirrors the rows seeded by the schema.
func DefaultPlans() []subscription.Plan {
	return []subscription.Plan{
		{ID: 1, Name: "Free", MonthlyPrice: 0, TranslationsPerMonth: 5,
			Features: []string{"5 translations per month", "Translation history"}},
		{ID: 2, Name: "Basic", MonthlyPrice: 7.99, TranslationsPerMonth: 50,
			Features: []string{"50 translations per month", "Translation history", "Model selection"}},
		{ID: 3, Name: "Premium", MonthlyPrice: 14.99, TranslationsPerMonth: 200,
			Features: []string{"200 translations per month", "Translation history", "Model selection", "Priority support"}},
		{ID: 4, Name: "Professional", MonthlyPrice: 29.99, TranslationsPerMonth: subscription.Unlimited,
			Features: []string{"Unlimited translations", "Translation history", "Model selection", "Priority support"}},
	}
}

type planFile struct {
	Plans []subscription.Plan `yaml:"plans"`
}

// LoadPlans reads a YAML plan catalog:
//
//	plans:
//	  - id: 1
//	    name: Free
//	    monthly_price: 0
//	    translations_per_month: 5
func LoadPlans(path string) ([]subscription.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan catalog: %w", err)
	}

	var f planFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse plan catalog: %w", err)
	}
	if len(f.Plans) == 0 {
		return nil, fmt.Errorf("plan catalog %s has no plans", path)
	}

	seen := make(map[int64]bool, len(f.Plans))
	for _, p := range f.Plans {
		if p.ID <= 0 {
			return nil, fmt.Errorf("plan %q: id must be positive", p.Name)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("plan id %d is duplicated", p.ID)
		}
		if p.TranslationsPerMonth < subscription.Unlimited {
			return nil, fmt.Errorf("plan %d: translations_per_month must be -1 or >= 0", p.ID)
		}
		seen[p.ID] = true
	}
	return f.Plans, nil
}

type StaticPlanRepository struct {
	plans map[int64]subscription.Plan
}

func NewStaticPlanRepository(plans []subscription.Plan) *StaticPlanRepository {
	m := make(map[int64]subscription.Plan, len(plans))
	for _, p := range plans {
		m[p.ID] = p
	}
	return &StaticPlanRepository{plans: m}
}

func (r *StaticPlanRepository) List(_ context.Context) ([]subscription.Plan, error) {
	out := make([]subscription.Plan, 0, len(r.plans))
	for _, p := range r.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *StaticPlanRepository) GetByID(_ context.Context, id int64) (*subscription.Plan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// StaticSubscriptionRepository keeps subscriptions in memory for runs without Postgres.
type StaticSubscriptionRepository struct {
	mu     sync.RWMutex
	nextID int64
	subs   []*subscription.UserSubscription
	errors []subscription.BillingError
	now    func() time.Time
}

func NewStaticSubscriptionRepository() *StaticSubscriptionRepository {
	return &StaticSubscriptionRepository{nextID: 1, now: time.Now}
}

func (r *StaticSubscriptionRepository) active(userID int64) *subscription.UserSubscription {
	now := r.now()
	var found *subscription.UserSubscription
	for _, s := range r.subs {
		if s.UserID != userID || !s.ActiveAt(now) {
			continue
		}
		if found == nil || !s.StartDate.Before(found.StartDate) {
			found = s
		}
	}
	return found
}

func (r *StaticSubscriptionRepository) GetActiveByUserID(_ context.Context, userID int64) (*subscription.UserSubscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.active(userID)
	if s == nil {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *StaticSubscriptionRepository) IncrementUsage(_ context.Context, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.active(userID)
	if s == nil {
		return false, nil
	}
	s.TranslationsUsed++
	s.UpdatedAt = r.now()
	return true, nil
}

func (r *StaticSubscriptionRepository) AssignPlan(_ context.Context, userID, planID int64) (*subscription.UserSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	end := now.AddDate(0, 0, subscription.PeriodDays)
	s := &subscription.UserSubscription{
		ID:                 r.nextID,
		UserID:             userID,
		PlanID:             planID,
		IsActive:           true,
		StartDate:          now,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   &end,
		UpdatedAt:          now,
	}
	r.nextID++
	r.subs = append(r.subs, s)

	cp := *s
	return &cp, nil
}

func (r *StaticSubscriptionRepository) Activate(_ context.Context, a subscription.Activation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.subs {
		if s.UserID == a.UserID && s.IsActive {
			s.IsActive = false
			end := a.PeriodStart
			s.EndDate = &end
			s.UpdatedAt = a.PeriodStart
		}
	}

	end := a.PeriodEnd
	r.subs = append(r.subs, &subscription.UserSubscription{
		ID:                   r.nextID,
		UserID:               a.UserID,
		PlanID:               a.PlanID,
		IsActive:             true,
		StartDate:            a.PeriodStart,
		CurrentPeriodStart:   a.PeriodStart,
		CurrentPeriodEnd:     &end,
		StripeCustomerID:     a.StripeCustomerID,
		StripeSubscriptionID: a.StripeSubscriptionID,
		UpdatedAt:            a.PeriodStart,
	})
	r.nextID++
	return nil
}

func (r *StaticSubscriptionRepository) SetActiveByStripeID(_ context.Context, stripeSubscriptionID string, active bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := false
	for _, s := range r.subs {
		if stripeSubscriptionID != "" && s.StripeSubscriptionID == stripeSubscriptionID {
			s.IsActive = active
			s.UpdatedAt = r.now()
			found = true
		}
	}
	return found, nil
}

func (r *StaticSubscriptionRepository) CancelByStripeID(_ context.Context, stripeSubscriptionID string, endDate time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := false
	for _, s := range r.subs {
		if stripeSubscriptionID != "" && s.StripeSubscriptionID == stripeSubscriptionID {
			s.IsActive = false
			end := endDate
			s.EndDate = &end
			s.UpdatedAt = r.now()
			found = true
		}
	}
	return found, nil
}

func (r *StaticSubscriptionRepository) ResetPeriod(_ context.Context, stripeCustomerID string, start, end time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := false
	for _, s := range r.subs {
		if stripeCustomerID != "" && s.StripeCustomerID == stripeCustomerID && s.IsActive {
			s.TranslationsUsed = 0
			s.CurrentPeriodStart = start
			e := end
			s.CurrentPeriodEnd = &e
			s.UpdatedAt = r.now()
			found = true
		}
	}
	return found, nil
}

func (r *StaticSubscriptionRepository) SaveBillingError(_ context.Context, e subscription.BillingError) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	r.errors = append(r.errors, e)
	return nil
}

// BillingErrors returns a copy of the stored meter error events.
func (r *StaticSubscriptionRepository) BillingErrors() []subscription.BillingError {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]subscription.BillingError, len(r.errors))
	copy(out, r.errors)
	return out
}
