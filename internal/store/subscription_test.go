package store

import (
	"testing"
	"time"

	"github.com/chippn/chippn/internal/model"
)

func TestSubscriptionLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSubscriptionStore(db)
	alice := createTestUser(t, db, "alice@example.com", "Alice")

	if sub, err := ss.GetByUserID(alice.ID); err != nil || sub != nil {
		t.Fatalf("expected no subscription initially, got %v, %v", sub, err)
	}

	sub, err := ss.SetStripeCustomer(alice.ID, "cus_123")
	if err != nil {
		t.Fatalf("set customer: %v", err)
	}
	if sub.StripeCustomerID == nil || *sub.StripeCustomerID != "cus_123" {
		t.Error("customer id should be stored")
	}

	periodEnd := time.Now().AddDate(0, 1, 0).UTC().Truncate(time.Second)
	sub, err = ss.UpdateStatus(alice.ID, "sub_456", "premium", model.SubStatusActive, &periodEnd)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if sub.Status != model.SubStatusActive {
		t.Errorf("status = %q, want active", sub.Status)
	}
	if sub.StripeSubscriptionID == nil || *sub.StripeSubscriptionID != "sub_456" {
		t.Error("subscription id should be stored")
	}
	if sub.CurrentPeriodEnd == nil || !sub.CurrentPeriodEnd.Equal(periodEnd) {
		t.Errorf("period end = %v, want %v", sub.CurrentPeriodEnd, periodEnd)
	}
	// The upsert must not drop the customer ID set earlier.
	if sub.StripeCustomerID == nil || *sub.StripeCustomerID != "cus_123" {
		t.Error("customer id should survive a status update")
	}

	byCust, err := ss.GetByStripeCustomerID("cus_123")
	if err != nil || byCust == nil || byCust.UserID != alice.ID {
		t.Fatalf("get by customer: %v, %v", byCust, err)
	}
	bySub, err := ss.GetByStripeSubscriptionID("sub_456")
	if err != nil || bySub == nil || bySub.UserID != alice.ID {
		t.Fatalf("get by stripe subscription: %v, %v", bySub, err)
	}
}
