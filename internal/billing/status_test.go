package billing

import (
	"testing"
	"time"

	"github.com/chippn/chippn/internal/database"
	"github.com/chippn/chippn/internal/model"
	"github.com/chippn/chippn/internal/store"
)

func setupStatusTest(t *testing.T) (*StatusService, *store.SubscriptionStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	user, err := store.NewUserStore(db).Create("alice@example.com", "Alice", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	subs := store.NewSubscriptionStore(db)
	return NewStatusService(subs), subs, user.ID
}

func TestStatusForNoSubscription(t *testing.T) {
	svc, _, userID := setupStatusTest(t)

	status, err := svc.StatusFor(userID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.IsSubscribed || status.IsPremium || status.IsTrialing {
		t.Errorf("status = %+v, want all false", status)
	}
}

func TestStatusForActiveSubscription(t *testing.T) {
	svc, subs, userID := setupStatusTest(t)

	periodEnd := time.Now().AddDate(0, 1, 0).UTC()
	subs.UpdateStatus(userID, "sub_1", "premium", model.SubStatusActive, &periodEnd)

	status, err := svc.StatusFor(userID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.IsSubscribed || !status.IsPremium {
		t.Errorf("status = %+v, want subscribed premium", status)
	}
	if status.IsTrialing {
		t.Error("active subscription is not trialing")
	}
	if status.ExpiryDate == nil {
		t.Error("expiry date should be set")
	}
}

func TestStatusForTrialing(t *testing.T) {
	svc, subs, userID := setupStatusTest(t)

	periodEnd := time.Now().AddDate(0, 0, 14).UTC()
	subs.UpdateStatus(userID, "sub_1", "premium", model.SubStatusTrialing, &periodEnd)

	status, _ := svc.StatusFor(userID)
	if !status.IsSubscribed || !status.IsTrialing {
		t.Errorf("status = %+v, want trialing subscription", status)
	}
}

func TestStatusExpiredPeriodEnd(t *testing.T) {
	svc, subs, userID := setupStatusTest(t)

	periodEnd := time.Now().AddDate(0, 0, -1).UTC()
	subs.UpdateStatus(userID, "sub_1", "premium", model.SubStatusActive, &periodEnd)

	status, _ := svc.StatusFor(userID)
	if status.IsSubscribed {
		t.Error("subscription past its period end is not active")
	}
}

func TestStatusCacheAndInvalidate(t *testing.T) {
	svc, subs, userID := setupStatusTest(t)

	now := time.Now()
	svc.now = func() time.Time { return now }

	status, _ := svc.StatusFor(userID)
	if status.IsSubscribed {
		t.Fatal("no subscription yet")
	}

	// A subscription appears, but the cached negative answer holds inside the TTL.
	periodEnd := now.AddDate(0, 1, 0).UTC()
	subs.UpdateStatus(userID, "sub_1", "premium", model.SubStatusActive, &periodEnd)

	status, _ = svc.StatusFor(userID)
	if status.IsSubscribed {
		t.Error("cached status should still report unsubscribed")
	}

	// Past the TTL the fresh row is read.
	now = now.Add(statusCacheTTL + time.Second)
	status, _ = svc.StatusFor(userID)
	if !status.IsSubscribed {
		t.Error("expired cache entry should be refreshed")
	}

	// Invalidate bypasses the TTL entirely.
	subs.UpdateStatus(userID, "sub_1", "premium", model.SubStatusCanceled, &periodEnd)
	svc.Invalidate(userID)
	status, _ = svc.StatusFor(userID)
	if status.IsSubscribed {
		t.Error("invalidated entry should re-read the canceled row")
	}
}
