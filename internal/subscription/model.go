package subscription

import "time"

// Unlimited marks a plan without a monthly cap.
const Unlimited = -1

const (
	FreePlanID = 1
	PeriodDays = 30
)

type Plan struct {
	ID                   int64    `json:"id" yaml:"id"`
	Name                 string   `json:"name" yaml:"name"`
	MonthlyPrice         float64  `json:"monthlyPrice" yaml:"monthly_price"`
	TranslationsPerMonth int      `json:"translationsPerMonth" yaml:"translations_per_month"`
	Features             []string `json:"features" yaml:"features"`
}

func (p *Plan) IsUnlimited() bool {
	return p.TranslationsPerMonth == Unlimited
}

func (p *Plan) IsFree() bool {
	return p.MonthlyPrice <= 0
}

// PriceCents is the monthly price in the smallest USD unit.
func (p *Plan) PriceCents() int64 {
	return int64(p.MonthlyPrice*100 + 0.5)
}

type UserSubscription struct {
	ID                   int64      `json:"id"`
	UserID               int64      `json:"userId"`
	PlanID               int64      `json:"planId"`
	TranslationsUsed     int        `json:"translationsUsed"`
	IsActive             bool       `json:"isActive"`
	StartDate            time.Time  `json:"startDate"`
	EndDate              *time.Time `json:"endDate,omitempty"`
	CurrentPeriodStart   time.Time  `json:"currentPeriodStart"`
	CurrentPeriodEnd     *time.Time `json:"currentPeriodEnd,omitempty"`
	StripeCustomerID     string     `json:"-"`
	StripeSubscriptionID string     `json:"-"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// ActiveAt reports whether the row counts as the user's current subscription.
func (s *UserSubscription) ActiveAt(now time.Time) bool {
	return s.IsActive && (s.EndDate == nil || s.EndDate.After(now))
}

// Activation is the state written when a Stripe checkout completes.
type Activation struct {
	UserID               int64
	PlanID               int64
	StripeCustomerID     string
	StripeSubscriptionID string
	PeriodStart          time.Time
	PeriodEnd            time.Time
}

type BillingError struct {
	EventID   string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}
