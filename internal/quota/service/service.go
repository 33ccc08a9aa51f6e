package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Deehands24/laymen-terms/internal/metrics"
	"github.com/Deehands24/laymen-terms/internal/quota"
	"github.com/Deehands24/laymen-terms/internal/subscription"
	"github.com/Deehands24/laymen-terms/pkg/logger"
)

// UsageStore owns the usage counter. Check and increment are separate calls,
// so concurrent requests may both pass a check at remaining = 1.
type UsageStore interface {
	GetActiveByUserID(ctx context.Context, userID int64) (*subscription.UserSubscription, error)
	IncrementUsage(ctx context.Context, userID int64) (bool, error)
}

type PlanCatalog interface {
	GetByID(ctx context.Context, id int64) (*subscription.Plan, error)
}

type SubmissionCounter interface {
	CountSince(ctx context.Context, userID int64, since time.Time) (int, error)
}

type Service struct {
	usage       UsageStore
	plans       PlanCatalog
	submissions SubmissionCounter
	policy      quota.Policy
	log         *slog.Logger
	now         func() time.Time
}

type Option func(*Service)

func WithPolicy(p quota.Policy) Option {
	return func(s *Service) { s.policy = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(usage UsageStore, plans PlanCatalog, submissions SubmissionCounter, opts ...Option) *Service {
	s := &Service{
		usage:       usage,
		plans:       plans,
		submissions: submissions,
		policy:      quota.FailOpen,
		log:         logger.Discard(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Policy() quota.Policy {
	return s.policy
}

// CheckLimit resolves the user's plan and usage and reports whether one more
// translation is allowed.
func (s *Service) CheckLimit(ctx context.Context, userID int64) (quota.Limit, error) {
	limit, err := s.lookup(ctx, userID)
	if err != nil {
		s.log.Error("quota lookup failed", "user_id", userID, "policy", string(s.policy), "error", err)
		if s.policy == quota.FailClosed {
			metrics.QuotaChecksTotal.WithLabelValues(metrics.ResultError).Inc()
			return quota.Limit{}, fmt.Errorf("%w: %v", quota.ErrUnavailable, err)
		}
		metrics.QuotaChecksTotal.WithLabelValues(metrics.ResultDegraded).Inc()
		return quota.Degraded(), nil
	}

	if limit.CanTranslate {
		metrics.QuotaChecksTotal.WithLabelValues(metrics.ResultAllowed).Inc()
	} else {
		metrics.QuotaChecksTotal.WithLabelValues(metrics.ResultDenied).Inc()
	}
	return limit, nil
}

func (s *Service) lookup(ctx context.Context, userID int64) (quota.Limit, error) {
	sub, err := s.usage.GetActiveByUserID(ctx, userID)
	if err != nil {
		return quota.Limit{}, err
	}

	now := s.now()
	if sub == nil || !sub.ActiveAt(now) {
		return s.calendarMonth(ctx, userID, quota.FreeMonthlyLimit, now)
	}

	plan, err := s.plans.GetByID(ctx, sub.PlanID)
	if err != nil {
		return quota.Limit{}, err
	}
	if plan == nil {
		return quota.Limit{}, fmt.Errorf("plan %d of subscription %d not found", sub.PlanID, sub.ID)
	}

	// Free rows are never reset by Stripe invoices, so their period is the
	// calendar month and usage comes from the submission log.
	if plan.IsFree() && sub.StripeSubscriptionID == "" {
		return s.calendarMonth(ctx, userID, plan.TranslationsPerMonth, now)
	}
	return quota.Compute(plan.TranslationsPerMonth, sub.TranslationsUsed), nil
}

func (s *Service) calendarMonth(ctx context.Context, userID int64, limit int, now time.Time) (quota.Limit, error) {
	used, err := s.submissions.CountSince(ctx, userID, monthStart(now))
	if err != nil {
		return quota.Limit{}, err
	}
	return quota.Compute(limit, used), nil
}

// IncrementUsage counts one translation against the active subscription.
// Free-tier limits are read from the submission log, so for them the counter
// is informational.
func (s *Service) IncrementUsage(ctx context.Context, userID int64) error {
	ok, err := s.usage.IncrementUsage(ctx, userID)
	if err != nil {
		metrics.QuotaIncrementsTotal.WithLabelValues(metrics.ResultError).Inc()
		s.log.Error("usage increment failed", "user_id", userID, "policy", string(s.policy), "error", err)
		if s.policy == quota.FailClosed {
			return fmt.Errorf("%w: %v", quota.ErrUnavailable, err)
		}
		return nil
	}
	if !ok {
		metrics.QuotaIncrementsTotal.WithLabelValues(metrics.ResultMissing).Inc()
		s.log.Warn("no active subscription to increment", "user_id", userID)
		return nil
	}

	metrics.QuotaIncrementsTotal.WithLabelValues(metrics.ResultOK).Inc()
	return nil
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
