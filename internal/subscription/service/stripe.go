package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
)

type CheckoutInput struct {
	Plan       PlanSummary
	UserID     int64
	Username   string
	SuccessURL string
	CancelURL  string
}

type PlanSummary struct {
	ID          int64
	Name        string
	PriceCents  int64
	Description string
}

type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

type CheckoutCreator interface {
	CreateCheckout(ctx context.Context, in CheckoutInput) (*CheckoutSession, error)
}

// StripeCheckout creates subscription-mode Checkout Sessions with inline monthly prices.
type StripeCheckout struct {
	client *session.Client
}

func NewStripeCheckout(secretKey string) *StripeCheckout {
	return &StripeCheckout{
		client: &session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
	}
}

func (s *StripeCheckout) CreateCheckout(ctx context.Context, in CheckoutInput) (*CheckoutSession, error) {
	userID := formatID(in.UserID)
	planID := formatID(in.Plan.ID)

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(in.Plan.Name + " Plan"),
						Description: stripe.String(in.Plan.Description),
					},
					UnitAmount: stripe.Int64(in.Plan.PriceCents),
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:          stripe.String(in.SuccessURL),
		CancelURL:           stripe.String(in.CancelURL),
		ClientReferenceID:   stripe.String(userID),
		AllowPromotionCodes: stripe.Bool(true),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"userId": userID, "planId": planID},
		},
	}
	params.Context = ctx
	params.AddMetadata("userId", userID)
	params.AddMetadata("planId", planID)
	params.AddMetadata("username", in.Username)
	params.SetIdempotencyKey(uuid.NewString())

	sess, err := s.client.New(params)
	if err != nil {
		return nil, errors.Wrap(err, "stripe checkout session")
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}
