package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	stripe "github.com/stripe/stripe-go/v84"

	"github.com/chippn/chippn/internal/auth"
	"github.com/chippn/chippn/internal/billing"
	"github.com/chippn/chippn/internal/model"
	"github.com/chippn/chippn/internal/store"
)

const premiumPlan = "premium"

type BillingHandler struct {
	stripeClient  *billing.StripeClient
	subStore      *store.SubscriptionStore
	statusService *billing.StatusService
	userStore     *store.UserStore
	logger        *slog.Logger
}

func NewBillingHandler(
	sc *billing.StripeClient,
	ss *store.SubscriptionStore,
	status *billing.StatusService,
	us *store.UserStore,
	logger *slog.Logger,
) *BillingHandler {
	return &BillingHandler{
		stripeClient:  sc,
		subStore:      ss,
		statusService: status,
		userStore:     us,
		logger:        logger,
	}
}

// Checkout creates a Stripe checkout session for the premium plan, creating
// the Stripe customer on first use.
func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if !h.stripeClient.Configured() {
		writeError(w, http.StatusServiceUnavailable, "billing is not configured")
		return
	}

	userID := auth.UserID(r.Context())

	sub, err := h.subStore.GetByUserID(userID)
	if err != nil {
		h.logger.Error("get subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	var customerID string
	if sub != nil && sub.StripeCustomerID != nil {
		customerID = *sub.StripeCustomerID
	} else {
		user, err := h.userStore.GetByID(userID)
		if err != nil || user == nil {
			h.logger.Error("get user for checkout", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		customerID, err = h.stripeClient.CreateCustomer(user.Email)
		if err != nil {
			h.logger.Error("create stripe customer", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create checkout")
			return
		}
		if _, err := h.subStore.SetStripeCustomer(userID, customerID); err != nil {
			h.logger.Error("save stripe customer", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	url, err := h.stripeClient.CreateCheckoutSession(customerID)
	if err != nil {
		h.logger.Error("create checkout session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create checkout")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// SubscriptionStatus returns the caller's entitlement state through the
// 30-second read-through cache.
func (h *BillingHandler) SubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.statusService.StatusFor(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("subscription status", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Webhook processes Stripe events. Signature verification happens before any
// payload field is trusted.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	event, err := h.stripeClient.ConstructWebhookEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		h.handleCheckoutCompleted(event)
	case "invoice.paid":
		h.handleInvoicePaid(event)
	case "invoice.payment_failed":
		h.handleInvoicePaymentFailed(event)
	case "customer.subscription.updated":
		h.handleSubscriptionUpdated(event)
	case "customer.subscription.deleted":
		h.handleSubscriptionDeleted(event)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *BillingHandler) handleCheckoutCompleted(event stripe.Event) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		h.logger.Error("webhook: unmarshal checkout session", "error", err)
		return
	}
	if sess.Customer == nil {
		h.logger.Warn("webhook: checkout session missing customer")
		return
	}

	sub, err := h.subStore.GetByStripeCustomerID(sess.Customer.ID)
	if err != nil || sub == nil {
		h.logger.Error("webhook: subscription for customer", "customer", sess.Customer.ID, "error", err)
		return
	}

	var stripeSubID string
	if sess.Subscription != nil {
		stripeSubID = sess.Subscription.ID
	}

	if _, err := h.subStore.UpdateStatus(sub.UserID, stripeSubID, premiumPlan, model.SubStatusActive, sub.CurrentPeriodEnd); err != nil {
		h.logger.Error("webhook: update subscription", "error", err)
		return
	}
	h.statusService.Invalidate(sub.UserID)
}

// subscriptionIDFromInvoice extracts the subscription ID from an invoice's parent.
func subscriptionIDFromInvoice(invoice stripe.Invoice) string {
	if invoice.Parent != nil &&
		invoice.Parent.SubscriptionDetails != nil &&
		invoice.Parent.SubscriptionDetails.Subscription != nil {
		return invoice.Parent.SubscriptionDetails.Subscription.ID
	}
	return ""
}

func (h *BillingHandler) handleInvoicePaid(event stripe.Event) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.logger.Error("webhook: unmarshal invoice", "error", err)
		return
	}

	subID := subscriptionIDFromInvoice(invoice)
	if subID == "" {
		return
	}

	sub, err := h.subStore.GetByStripeSubscriptionID(subID)
	if err != nil || sub == nil {
		return
	}

	periodEnd := time.Unix(invoice.PeriodEnd, 0).UTC()
	if _, err := h.subStore.UpdateStatus(sub.UserID, subID, sub.Plan, model.SubStatusActive, &periodEnd); err != nil {
		h.logger.Error("webhook: update subscription on invoice.paid", "error", err)
		return
	}
	h.statusService.Invalidate(sub.UserID)
}

func (h *BillingHandler) handleInvoicePaymentFailed(event stripe.Event) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.logger.Error("webhook: unmarshal invoice", "error", err)
		return
	}

	subID := subscriptionIDFromInvoice(invoice)
	if subID == "" {
		return
	}

	sub, err := h.subStore.GetByStripeSubscriptionID(subID)
	if err != nil || sub == nil {
		return
	}

	if _, err := h.subStore.UpdateStatus(sub.UserID, subID, sub.Plan, model.SubStatusPastDue, sub.CurrentPeriodEnd); err != nil {
		h.logger.Error("webhook: update subscription to past_due", "error", err)
		return
	}
	h.statusService.Invalidate(sub.UserID)
}

func (h *BillingHandler) handleSubscriptionUpdated(event stripe.Event) {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
		h.logger.Error("webhook: unmarshal subscription", "error", err)
		return
	}

	sub, err := h.subStore.GetByStripeSubscriptionID(stripeSub.ID)
	if err != nil || sub == nil {
		return
	}

	if _, err := h.subStore.UpdateStatus(sub.UserID, stripeSub.ID, sub.Plan, string(stripeSub.Status), sub.CurrentPeriodEnd); err != nil {
		h.logger.Error("webhook: update subscription status", "error", err)
		return
	}
	h.statusService.Invalidate(sub.UserID)
}

func (h *BillingHandler) handleSubscriptionDeleted(event stripe.Event) {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
		h.logger.Error("webhook: unmarshal subscription", "error", err)
		return
	}

	sub, err := h.subStore.GetByStripeSubscriptionID(stripeSub.ID)
	if err != nil || sub == nil {
		return
	}

	if _, err := h.subStore.UpdateStatus(sub.UserID, stripeSub.ID, sub.Plan, model.SubStatusCanceled, sub.CurrentPeriodEnd); err != nil {
		h.logger.Error("webhook: update subscription to canceled", "error", err)
		return
	}
	h.statusService.Invalidate(sub.UserID)
}
