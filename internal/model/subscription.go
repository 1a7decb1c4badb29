package model

import "time"

// Subscription statuses mirroring Stripe's lifecycle.
const (
	SubStatusActive   = "active"
	SubStatusTrialing = "trialing"
	SubStatusPastDue  = "past_due"
	SubStatusCanceled = "canceled"
)

type Subscription struct {
	ID                   int64      `json:"id"`
	UserID               int64      `json:"user_id"`
	StripeCustomerID     *string    `json:"stripe_customer_id"`
	StripeSubscriptionID *string    `json:"stripe_subscription_id"`
	Plan                 string     `json:"plan"`
	Status               string     `json:"status"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}
