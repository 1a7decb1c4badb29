package billing

import (
	"sync"
	"time"

	"github.com/chippn/chippn/internal/model"
	"github.com/chippn/chippn/internal/store"
)

const statusCacheTTL = 30 * time.Second

// Status is the entitlement state derived from a subscription row.
type Status struct {
	IsSubscribed bool       `json:"is_subscribed"`
	IsPremium    bool       `json:"is_premium"`
	IsTrialing   bool       `json:"is_trialing"`
	ExpiryDate   *time.Time `json:"expiry_date"`
}

type cachedStatus struct {
	status    Status
	fetchedAt time.Time
}

// StatusService answers entitlement queries through a fixed-TTL read-through
// cache. Webhook events invalidate cache entries so a purchase shows up
// without waiting for the timer.
type StatusService struct {
	mu    sync.Mutex
	subs  *store.SubscriptionStore
	cache map[int64]cachedStatus
	now   func() time.Time
}

func NewStatusService(subs *store.SubscriptionStore) *StatusService {
	return &StatusService{
		subs:  subs,
		cache: make(map[int64]cachedStatus),
		now:   time.Now,
	}
}

// StatusFor returns the user's entitlement status, reading through the cache.
func (s *StatusService) StatusFor(userID int64) (Status, error) {
	s.mu.Lock()
	if c, ok := s.cache[userID]; ok && s.now().Sub(c.fetchedAt) < statusCacheTTL {
		s.mu.Unlock()
		return c.status, nil
	}
	s.mu.Unlock()

	sub, err := s.subs.GetByUserID(userID)
	if err != nil {
		return Status{}, err
	}
	status := deriveStatus(sub, s.now())

	s.mu.Lock()
	s.cache[userID] = cachedStatus{status: status, fetchedAt: s.now()}
	s.mu.Unlock()
	return status, nil
}

// Invalidate drops the cached entry for a user. Called from webhook handling.
func (s *StatusService) Invalidate(userID int64) {
	s.mu.Lock()
	delete(s.cache, userID)
	s.mu.Unlock()
}

func deriveStatus(sub *model.Subscription, now time.Time) Status {
	if sub == nil {
		return Status{}
	}

	active := sub.Status == model.SubStatusActive || sub.Status == model.SubStatusTrialing
	if active && sub.CurrentPeriodEnd != nil && sub.CurrentPeriodEnd.Before(now) {
		active = false
	}

	return Status{
		IsSubscribed: active,
		IsPremium:    active,
		IsTrialing:   active && sub.Status == model.SubStatusTrialing,
		ExpiryDate:   sub.CurrentPeriodEnd,
	}
}
