package quota

import "errors"

// FreeMonthlyLimit applies to users without an active subscription.
const FreeMonthlyLimit = 5

// ErrUnavailable is returned by a fail-closed service when usage cannot be read.
var ErrUnavailable = errors.New("quota store unavailable")

type Policy string

const (
	FailOpen   Policy = "fail-open"
	FailClosed Policy = "fail-closed"
)

type Limit struct {
	CanTranslate bool `json:"canTranslate"`
	Remaining    int  `json:"remaining"`
	Limit        int  `json:"limit"`
	Degraded     bool `json:"degraded,omitempty"`
}

// Unlimited reports whether the plan has no cap.
func (l Limit) Unlimited() bool {
	return l.Limit == -1
}

// Compute derives the quota figures from a plan limit and a usage count.
func Compute(limit, used int) Limit {
	if limit == -1 {
		return Limit{CanTranslate: true, Remaining: -1, Limit: -1}
	}
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return Limit{CanTranslate: remaining > 0, Remaining: remaining, Limit: limit}
}

// AfterUse is the local estimate of the figures once one more translation is counted.
func (l Limit) AfterUse() Limit {
	if l.Unlimited() {
		return l
	}
	next := l
	if next.Remaining > 0 {
		next.Remaining--
	}
	next.CanTranslate = next.Remaining > 0
	return next
}

// Degraded is the fail-open answer used when the store cannot be read.
func Degraded() Limit {
	return Limit{CanTranslate: true, Remaining: FreeMonthlyLimit, Limit: FreeMonthlyLimit, Degraded: true}
}
