package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/Deehands24/laymen-terms/internal/metrics"
	"github.com/Deehands24/laymen-terms/internal/quota"
	"github.com/Deehands24/laymen-terms/internal/subscription"
	"github.com/Deehands24/laymen-terms/internal/user"
	"github.com/Deehands24/laymen-terms/pkg/logger"
)

var (
	ErrPlanNotFound          = errors.New("plan not found")
	ErrFreePlan              = errors.New("free plan does not require checkout")
	ErrUserNotFound          = errors.New("user not found")
	ErrBillingNotConfigured  = errors.New("billing not configured")
	ErrWebhookNotConfigured  = errors.New("webhook secret not configured")
	ErrInvalidSignature      = errors.New("signature verification failed")
	ErrInvalidWebhookPayload = errors.New("invalid webhook payload")
)

type PlanRepository interface {
	List(ctx context.Context) ([]subscription.Plan, error)
	GetByID(ctx context.Context, id int64) (*subscription.Plan, error)
}

type SubscriptionRepository interface {
	GetActiveByUserID(ctx context.Context, userID int64) (*subscription.UserSubscription, error)
	Activate(ctx context.Context, a subscription.Activation) error
	SetActiveByStripeID(ctx context.Context, stripeSubscriptionID string, active bool) (bool, error)
	CancelByStripeID(ctx context.Context, stripeSubscriptionID string, endDate time.Time) (bool, error)
	ResetPeriod(ctx context.Context, stripeCustomerID string, start, end time.Time) (bool, error)
	SaveBillingError(ctx context.Context, e subscription.BillingError) error
}

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

type LimitChecker interface {
	CheckLimit(ctx context.Context, userID int64) (quota.Limit, error)
}

type Service struct {
	plans         PlanRepository
	subs          SubscriptionRepository
	users         UserLookup
	limits        LimitChecker
	checkout      CheckoutCreator
	webhookSecret string
	log           *slog.Logger
	now           func() time.Time
}

type Config struct {
	// Checkout is nil when STRIPE_SECRET_KEY is unset.
	Checkout      CheckoutCreator
	WebhookSecret string
	Logger        *slog.Logger
}

func NewService(plans PlanRepository, subs SubscriptionRepository, users UserLookup, limits LimitChecker, cfg Config) *Service {
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		plans:         plans,
		subs:          subs,
		users:         users,
		limits:        limits,
		checkout:      cfg.Checkout,
		webhookSecret: cfg.WebhookSecret,
		log:           log,
		now:           time.Now,
	}
}

func (s *Service) ListPlans(ctx context.Context) ([]subscription.Plan, error) {
	return s.plans.List(ctx)
}

// Current is the user's effective plan with its quota figures.
type Current struct {
	Plan         *subscription.Plan             `json:"plan"`
	Subscription *subscription.UserSubscription `json:"subscription,omitempty"`
	Usage        quota.Limit                    `json:"usage"`
}

func (s *Service) GetCurrent(ctx context.Context, userID int64) (*Current, error) {
	usage, err := s.limits.CheckLimit(ctx, userID)
	if err != nil {
		return nil, err
	}

	cur := &Current{Usage: usage}
	sub, err := s.subs.GetActiveByUserID(ctx, userID)
	if err != nil {
		s.log.Warn("active subscription lookup failed", "user_id", userID, "error", err)
	}

	planID := int64(subscription.FreePlanID)
	if sub != nil {
		cur.Subscription = sub
		planID = sub.PlanID
	}
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		s.log.Warn("plan lookup failed", "plan_id", planID, "error", err)
	}
	cur.Plan = plan
	return cur, nil
}

// CreateCheckout starts a Stripe Checkout for a paid plan. baseURL is where
// Stripe sends the user back to.
func (s *Service) CreateCheckout(ctx context.Context, planID, userID int64, baseURL string) (*CheckoutSession, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	if plan.IsFree() {
		return nil, ErrFreePlan
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	if s.checkout == nil {
		return nil, ErrBillingNotConfigured
	}

	baseURL = strings.TrimRight(baseURL, "/")
	sess, err := s.checkout.CreateCheckout(ctx, CheckoutInput{
		Plan: PlanSummary{
			ID:          plan.ID,
			Name:        plan.Name,
			PriceCents:  plan.PriceCents(),
			Description: describePlan(plan),
		},
		UserID:     u.ID,
		Username:   u.Username,
		SuccessURL: baseURL + "/dashboard?success=true&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  baseURL + "/subscription?canceled=true",
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("checkout session created", "user_id", u.ID, "plan_id", plan.ID, "session_id", sess.ID)
	return sess, nil
}

func describePlan(p *subscription.Plan) string {
	if p.IsUnlimited() {
		return "Unlimited translations per month"
	}
	return strconv.Itoa(p.TranslationsPerMonth) + " translations per month"
}

// ConstructEvent verifies the Stripe-Signature header against the webhook secret.
func (s *Service) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	if s.webhookSecret == "" {
		return stripe.Event{}, ErrWebhookNotConfigured
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return event, nil
}

// HandleEvent applies a verified Stripe event to the subscription store.
// Store failures are returned so that Stripe retries the delivery.
func (s *Service) HandleEvent(ctx context.Context, event stripe.Event) error {
	eventType := string(event.Type)
	err := s.dispatch(ctx, event)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.StripeWebhookEventsTotal.WithLabelValues(eventType, status).Inc()
	return err
}

func (s *Service) dispatch(ctx context.Context, event stripe.Event) error {
	s.log.Info("stripe event received", "event_id", event.ID, "type", string(event.Type))

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
		}
		return s.checkoutCompleted(ctx, &sess)

	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
		}
		found, err := s.subs.SetActiveByStripeID(ctx, sub.ID, sub.Status == stripe.SubscriptionStatusActive)
		if err != nil {
			return err
		}
		if !found {
			s.log.Warn("subscription not found", "stripe_subscription_id", sub.ID)
		}
		return nil

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
		}
		found, err := s.subs.CancelByStripeID(ctx, sub.ID, s.now())
		if err != nil {
			return err
		}
		if !found {
			s.log.Warn("subscription not found", "stripe_subscription_id", sub.ID)
		}
		return nil

	case "invoice.payment_succeeded":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
		}
		customerID := ""
		if inv.Customer != nil {
			customerID = inv.Customer.ID
		}
		if customerID == "" {
			s.log.Warn("invoice without customer", "invoice_id", inv.ID)
			return nil
		}
		start := s.now()
		found, err := s.subs.ResetPeriod(ctx, customerID, start, start.AddDate(0, 0, subscription.PeriodDays))
		if err != nil {
			return err
		}
		if !found {
			s.log.Warn("no active subscription for customer", "stripe_customer_id", customerID)
		}
		return nil

	case "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
		}
		customerID := ""
		if inv.Customer != nil {
			customerID = inv.Customer.ID
		}
		s.log.Error("payment failed", "stripe_customer_id", customerID, "invoice_id", inv.ID)
		return nil

	case "v1.billing.meter.error_report_triggered":
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
		}
		s.log.Error("billing meter error", "event_id", event.ID)
		return s.subs.SaveBillingError(ctx, subscription.BillingError{
			EventID:   event.ID,
			EventType: string(event.Type),
			Payload:   payload,
			CreatedAt: s.now(),
		})

	default:
		s.log.Info("unhandled stripe event", "type", string(event.Type))
		return nil
	}
}

func (s *Service) checkoutCompleted(ctx context.Context, sess *stripe.CheckoutSession) error {
	userID, err := strconv.ParseInt(sess.Metadata["userId"], 10, 64)
	if err != nil || userID <= 0 {
		s.log.Error("checkout session missing userId metadata", "session_id", sess.ID)
		return nil
	}
	planID, err := strconv.ParseInt(sess.Metadata["planId"], 10, 64)
	if err != nil || planID <= 0 {
		s.log.Error("checkout session missing planId metadata", "session_id", sess.ID)
		return nil
	}

	a := subscription.Activation{
		UserID:      userID,
		PlanID:      planID,
		PeriodStart: s.now(),
	}
	a.PeriodEnd = a.PeriodStart.AddDate(0, 0, subscription.PeriodDays)
	if sess.Customer != nil {
		a.StripeCustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		a.StripeSubscriptionID = sess.Subscription.ID
	}

	if err := s.subs.Activate(ctx, a); err != nil {
		return err
	}
	s.log.Info("subscription activated", "user_id", userID, "plan_id", planID)
	return nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
