package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Billing cycle constants
const (
	CycleMonthly   = "monthly"
	CycleQuarterly = "quarterly"
	CycleYearly    = "yearly"
	CycleOneTime   = "one-time"
)

// Subscription status constants
const (
	SubStatusActive    = "active"
	SubStatusCancelled = "cancelled"
	SubStatusPaused    = "paused"
)

// Subscription tracks one recurring expense the user pays for
type Subscription struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          string             `bson:"userId" json:"user_id"`
	Name            string             `bson:"name" json:"name"`
	Category        string             `bson:"category,omitempty" json:"category,omitempty"`
	Cost            float64            `bson:"cost" json:"cost"`
	BillingCycle    string             `bson:"billingCycle" json:"billing_cycle"`
	Status          string             `bson:"status" json:"status"`
	NextBillingDate *time.Time         `bson:"nextBillingDate,omitempty" json:"next_billing_date,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt       int64              `bson:"updatedAt" json:"updated_at"` // unix millis, sync merge key
}

// IsActive returns true if the subscription currently costs money
func (s *Subscription) IsActive() bool {
	return s.Status == SubStatusActive
}

// MonthlyEquivalent normalizes the cost to a monthly rate for aggregation.
// One-time purchases contribute nothing to recurring totals; the conversion
// table is fixed and the value is never stored redundantly.
func (s *Subscription) MonthlyEquivalent() float64 {
	switch s.BillingCycle {
	case CycleMonthly:
		return s.Cost
	case CycleQuarterly:
		return s.Cost / 3
	case CycleYearly:
		return s.Cost / 12
	default:
		return 0
	}
}

// YearlyCost returns the cost over a full year. Unlike MonthlyEquivalent,
// one-time purchases count at full value here.
func (s *Subscription) YearlyCost() float64 {
	switch s.BillingCycle {
	case CycleMonthly:
		return s.Cost * 12
	case CycleQuarterly:
		return s.Cost * 4
	case CycleYearly:
		return s.Cost
	case CycleOneTime:
		return s.Cost
	default:
		return 0
	}
}

// DueWithin reports whether the next billing date falls in [now, now+days].
func (s *Subscription) DueWithin(now time.Time, days int) bool {
	if s.NextBillingDate == nil {
		return false
	}
	due := *s.NextBillingDate
	if due.Before(now) {
		return false
	}
	return !due.After(now.AddDate(0, 0, days))
}

// CreateSubscriptionRequest is the request body for creating a subscription
type CreateSubscriptionRequest struct {
	Name            string     `json:"name"`
	Category        string     `json:"category,omitempty"`
	Cost            float64    `json:"cost"`
	BillingCycle    string     `json:"billing_cycle"`
	NextBillingDate *time.Time `json:"next_billing_date,omitempty"`
}

// UpdateSubscriptionRequest is the request body for a partial update
type UpdateSubscriptionRequest struct {
	Name            *string    `json:"name,omitempty"`
	Category        *string    `json:"category,omitempty"`
	Cost            *float64   `json:"cost,omitempty"`
	BillingCycle    *string    `json:"billing_cycle,omitempty"`
	Status          *string    `json:"status,omitempty"`
	NextBillingDate *time.Time `json:"next_billing_date,omitempty"`
}

// SpendingAnalysis is the response of the spending analysis endpoint
type SpendingAnalysis struct {
	TotalMonthly  float64            `json:"total_monthly"`
	TotalYearly   float64            `json:"total_yearly"`
	ByCategory    map[string]float64 `json:"by_category"` // monthly-equivalent per category
	MostExpensive *Subscription      `json:"most_expensive,omitempty"`
	Upcoming      []Subscription     `json:"upcoming"`
	ActiveCount   int                `json:"active_count"`
	GeneratedAt   time.Time          `json:"generated_at"`
}
