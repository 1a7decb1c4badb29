package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/chippn/chippn/internal/model"
)

type SubscriptionStore struct {
	db *sql.DB
}

func NewSubscriptionStore(db *sql.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

func scanSubscription(scanner interface{ Scan(...any) error }) (*model.Subscription, error) {
	var sub model.Subscription
	var custID, subID sql.NullString
	var periodEnd sql.NullTime
	err := scanner.Scan(
		&sub.ID, &sub.UserID, &custID, &subID, &sub.Plan, &sub.Status,
		&periodEnd, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if custID.Valid {
		sub.StripeCustomerID = &custID.String
	}
	if subID.Valid {
		sub.StripeSubscriptionID = &subID.String
	}
	if periodEnd.Valid {
		sub.CurrentPeriodEnd = &periodEnd.Time
	}
	return &sub, nil
}

const subscriptionCols = `id, user_id, stripe_customer_id, stripe_subscription_id, plan, status, current_period_end, created_at, updated_at`

func (s *SubscriptionStore) GetByUserID(userID int64) (*model.Subscription, error) {
	row := s.db.QueryRow(`SELECT `+subscriptionCols+` FROM subscriptions WHERE user_id = ?`, userID)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription by user: %w", err)
	}
	return sub, nil
}

func (s *SubscriptionStore) GetByStripeCustomerID(customerID string) (*model.Subscription, error) {
	row := s.db.QueryRow(`SELECT `+subscriptionCols+` FROM subscriptions WHERE stripe_customer_id = ?`, customerID)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription by customer: %w", err)
	}
	return sub, nil
}

func (s *SubscriptionStore) GetByStripeSubscriptionID(subscriptionID string) (*model.Subscription, error) {
	row := s.db.QueryRow(`SELECT `+subscriptionCols+` FROM subscriptions WHERE stripe_subscription_id = ?`, subscriptionID)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription by stripe id: %w", err)
	}
	return sub, nil
}

// SetStripeCustomer creates the user's subscription row if needed and records
// the Stripe customer ID.
func (s *SubscriptionStore) SetStripeCustomer(userID int64, customerID string) (*model.Subscription, error) {
	_, err := s.db.Exec(
		`INSERT INTO subscriptions (user_id, stripe_customer_id) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET stripe_customer_id = excluded.stripe_customer_id, updated_at = datetime('now')`,
		userID, customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("set stripe customer: %w", err)
	}
	return s.GetByUserID(userID)
}

// UpdateStatus records the subscription state as reported by a webhook event.
func (s *SubscriptionStore) UpdateStatus(userID int64, stripeSubscriptionID, plan, status string, periodEnd *time.Time) (*model.Subscription, error) {
	var pEnd sql.NullTime
	if periodEnd != nil {
		pEnd = sql.NullTime{Time: periodEnd.UTC(), Valid: true}
	}
	var subID sql.NullString
	if stripeSubscriptionID != "" {
		subID = sql.NullString{String: stripeSubscriptionID, Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO subscriptions (user_id, stripe_subscription_id, plan, status, current_period_end) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   stripe_subscription_id = excluded.stripe_subscription_id,
		   plan = excluded.plan,
		   status = excluded.status,
		   current_period_end = excluded.current_period_end,
		   updated_at = datetime('now')`,
		userID, subID, plan, status, pEnd,
	)
	if err != nil {
		return nil, fmt.Errorf("update subscription status: %w", err)
	}
	return s.GetByUserID(userID)
}
