package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Deehands24/laymen-terms/internal/subscription"
)

type SubscriptionRepository struct {
	db *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `id, user_id, plan_id, translations_used, is_active, start_date, end_date,
	current_period_start, current_period_end, COALESCE(stripe_customer_id, ''),
	COALESCE(stripe_subscription_id, ''), updated_at`

func scanSubscription(row *sql.Row) (*subscription.UserSubscription, error) {
	s := &subscription.UserSubscription{}
	var endDate, periodEnd sql.NullTime
	err := row.Scan(&s.ID, &s.UserID, &s.PlanID, &s.TranslationsUsed, &s.IsActive, &s.StartDate, &endDate,
		&s.CurrentPeriodStart, &periodEnd, &s.StripeCustomerID, &s.StripeSubscriptionID, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if endDate.Valid {
		s.EndDate = &endDate.Time
	}
	if periodEnd.Valid {
		s.CurrentPeriodEnd = &periodEnd.Time
	}
	return s, nil
}

// GetActiveByUserID returns the newest active, unexpired row or nil, nil.
func (r *SubscriptionRepository) GetActiveByUserID(ctx context.Context, userID int64) (*subscription.UserSubscription, error) {
	s, err := scanSubscription(r.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM user_subscriptions
		 WHERE user_id = $1 AND is_active = TRUE AND (end_date IS NULL OR end_date > NOW())
		 ORDER BY start_date DESC LIMIT 1`,
		userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get active subscription for user %d: %w", userID, err)
	}
	return s, nil
}

// IncrementUsage bumps the counter on the active row in a single statement.
// It reports false when the user has no active row.
func (r *SubscriptionRepository) IncrementUsage(ctx context.Context, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_subscriptions
		 SET translations_used = translations_used + 1, updated_at = NOW()
		 WHERE id = (
		     SELECT id FROM user_subscriptions
		     WHERE user_id = $1 AND is_active = TRUE AND (end_date IS NULL OR end_date > NOW())
		     ORDER BY start_date DESC LIMIT 1
		 )`,
		userID)
	if err != nil {
		return false, fmt.Errorf("increment usage for user %d: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("increment usage rows: %w", err)
	}
	return n > 0, nil
}

func (r *SubscriptionRepository) AssignPlan(ctx context.Context, userID, planID int64) (*subscription.UserSubscription, error) {
	s := &subscription.UserSubscription{UserID: userID, PlanID: planID, IsActive: true}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO user_subscriptions (user_id, plan_id, current_period_end)
		 VALUES ($1, $2, NOW() + INTERVAL '30 days')
		 RETURNING id, start_date, current_period_start, updated_at`,
		userID, planID).Scan(&s.ID, &s.StartDate, &s.CurrentPeriodStart, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("assign plan %d to user %d: %w", planID, userID, err)
	}
	return s, nil
}

// Activate deactivates the user's other rows and inserts the paid one in one transaction.
func (r *SubscriptionRepository) Activate(ctx context.Context, a subscription.Activation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activation: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE user_subscriptions SET is_active = FALSE, end_date = $2, updated_at = NOW()
		 WHERE user_id = $1 AND is_active = TRUE`,
		a.UserID, a.PeriodStart); err != nil {
		return fmt.Errorf("deactivate previous subscriptions: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_subscriptions (user_id, plan_id, translations_used, is_active, start_date,
		     current_period_start, current_period_end, stripe_customer_id, stripe_subscription_id)
		 VALUES ($1, $2, 0, TRUE, $3, $3, $4, NULLIF($5, ''), NULLIF($6, ''))`,
		a.UserID, a.PlanID, a.PeriodStart, a.PeriodEnd, a.StripeCustomerID, a.StripeSubscriptionID); err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activation: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) SetActiveByStripeID(ctx context.Context, stripeSubscriptionID string, active bool) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_subscriptions SET is_active = $2, updated_at = NOW()
		 WHERE stripe_subscription_id = $1`,
		stripeSubscriptionID, active)
	if err != nil {
		return false, fmt.Errorf("update subscription %s: %w", stripeSubscriptionID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *SubscriptionRepository) CancelByStripeID(ctx context.Context, stripeSubscriptionID string, endDate time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_subscriptions SET is_active = FALSE, end_date = $2, updated_at = NOW()
		 WHERE stripe_subscription_id = $1`,
		stripeSubscriptionID, endDate)
	if err != nil {
		return false, fmt.Errorf("cancel subscription %s: %w", stripeSubscriptionID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ResetPeriod zeroes usage on the customer's active rows and starts a new period.
func (r *SubscriptionRepository) ResetPeriod(ctx context.Context, stripeCustomerID string, start, end time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_subscriptions
		 SET translations_used = 0, current_period_start = $2, current_period_end = $3, updated_at = NOW()
		 WHERE stripe_customer_id = $1 AND is_active = TRUE`,
		stripeCustomerID, start, end)
	if err != nil {
		return false, fmt.Errorf("reset period for customer %s: %w", stripeCustomerID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *SubscriptionRepository) SaveBillingError(ctx context.Context, e subscription.BillingError) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO billing_errors (event_id, event_type, payload) VALUES ($1, $2, $3)`,
		e.EventID, e.EventType, string(e.Payload))
	if err != nil {
		return fmt.Errorf("save billing error %s: %w", e.EventID, err)
	}
	return nil
}
