package billing

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/propdesk/propdesk-backend/api/responses"
	"github.com/propdesk/propdesk-backend/internal/subscriptions"
	"github.com/propdesk/propdesk-backend/pkg/db/models"
	pkgerrors "github.com/propdesk/propdesk-backend/pkg/errors"
	"github.com/propdesk/propdesk-backend/pkg/logger"
)

// SubscriptionService describes the subscription lifecycle methods used by the HTTP controllers.
type SubscriptionService interface {
	Current(ctx context.Context, userID uuid.UUID) (*subscriptions.CurrentSubscription, error)
	Cancel(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
}

type subscriptionResponse struct {
	ID           string  `json:"id"`
	PlanID       string  `json:"plan_id"`
	Status       string  `json:"status"`
	BillingCycle string  `json:"billing_cycle"`
	AutoRenew    bool    `json:"auto_renew"`
	StartedAt    *string `json:"started_at,omitempty"`
	ExpiresAt    *string `json:"expires_at,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

type currentSubscriptionResponse struct {
	Subscription subscriptionResponse `json:"subscription"`
	Plan         planResponse         `json:"plan"`
}

func SubscriptionGet(svc SubscriptionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		current, err := svc.Current(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, currentSubscriptionResponse{
			Subscription: subscriptionToResponse(current.Subscription),
			Plan:         planToResponse(current.Plan),
		})
	}
}

func SubscriptionCancel(svc SubscriptionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sub, err := svc.Cancel(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, subscriptionToResponse(sub))
	}
}

func subscriptionToResponse(sub *models.Subscription) subscriptionResponse {
	if sub == nil {
		return subscriptionResponse{}
	}
	resp := subscriptionResponse{
		ID:           sub.ID.String(),
		PlanID:       sub.PlanID,
		Status:       string(sub.Status),
		BillingCycle: string(sub.BillingCycle),
		AutoRenew:    sub.AutoRenew,
		CreatedAt:    sub.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    sub.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if sub.StartedAt != nil {
		formatted := sub.StartedAt.UTC().Format(time.RFC3339)
		resp.StartedAt = &formatted
	}
	if sub.ExpiresAt != nil {
		formatted := sub.ExpiresAt.UTC().Format(time.RFC3339)
		resp.ExpiresAt = &formatted
	}
	return resp
}
