package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/propdesk/propdesk-backend/internal/plans"
	"github.com/propdesk/propdesk-backend/internal/subscriptions"
	"github.com/propdesk/propdesk-backend/pkg/db/models"
	"github.com/propdesk/propdesk-backend/pkg/enums"
	pkgerrors "github.com/propdesk/propdesk-backend/pkg/errors"
)

type fakeSubscriptionService struct {
	current *subscriptions.CurrentSubscription
	sub     *models.Subscription
	err     error
}

func (f *fakeSubscriptionService) Current(ctx context.Context, userID uuid.UUID) (*subscriptions.CurrentSubscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.current, nil
}

func (f *fakeSubscriptionService) Cancel(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sub, nil
}

func TestSubscriptionGet(t *testing.T) {
	userID := uuid.New()
	startedAt := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	expiresAt := time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC)
	plan, err := plans.Find("pro")
	if err != nil {
		t.Fatalf("find plan: %v", err)
	}
	service := &fakeSubscriptionService{
		current: &subscriptions.CurrentSubscription{
			Subscription: &models.Subscription{
				ID:           uuid.New(),
				UserID:       userID,
				PlanID:       "pro",
				Status:       enums.SubscriptionStatusActive,
				BillingCycle: enums.BillingCycleMonthly,
				AutoRenew:    true,
				StartedAt:    &startedAt,
				ExpiresAt:    &expiresAt,
			},
			Plan: plan,
		},
	}
	handler := SubscriptionGet(service, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/billing/subscription", "", userID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data currentSubscriptionResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Subscription.Status != "active" {
		t.Fatalf("expected active status, got %q", envelope.Data.Subscription.Status)
	}
	if envelope.Data.Subscription.ExpiresAt == nil || *envelope.Data.Subscription.ExpiresAt != "2026-02-15T10:00:00Z" {
		t.Fatalf("unexpected expires_at: %v", envelope.Data.Subscription.ExpiresAt)
	}
	if envelope.Data.Plan.PropertyLimit != 50 {
		t.Fatalf("expected pro property limit 50, got %d", envelope.Data.Plan.PropertyLimit)
	}
}

func TestSubscriptionGetNotFound(t *testing.T) {
	service := &fakeSubscriptionService{err: pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")}
	handler := SubscriptionGet(service, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/billing/subscription", "", uuid.New()))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSubscriptionCancel(t *testing.T) {
	userID := uuid.New()
	expiresAt := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	service := &fakeSubscriptionService{
		sub: &models.Subscription{
			ID:           uuid.New(),
			UserID:       userID,
			PlanID:       "starter",
			Status:       enums.SubscriptionStatusCancelled,
			BillingCycle: enums.BillingCycleAnnually,
			AutoRenew:    false,
			ExpiresAt:    &expiresAt,
		},
	}
	handler := SubscriptionCancel(service, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/billing/subscription/cancel", "", userID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data subscriptionResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != "cancelled" {
		t.Fatalf("expected cancelled, got %q", envelope.Data.Status)
	}
	if envelope.Data.AutoRenew {
		t.Fatalf("expected auto_renew off after cancel")
	}
	if envelope.Data.ExpiresAt == nil {
		t.Fatalf("cancellation must keep the paid-through date")
	}
}

func TestPlansList(t *testing.T) {
	handler := PlansList()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/billing/plans", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var envelope struct {
		Data planListResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Plans) != 3 {
		t.Fatalf("expected 3 plans, got %d", len(envelope.Data.Plans))
	}
	if envelope.Data.Plans[2].SetupFeeUSD != "15000.00" {
		t.Fatalf("expected business setup fee 15000.00, got %q", envelope.Data.Plans[2].SetupFeeUSD)
	}
}
