package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propdesk/propdesk-backend/internal/billing"
	"github.com/propdesk/propdesk-backend/internal/plans"
	"github.com/propdesk/propdesk-backend/pkg/db/models"
	"github.com/propdesk/propdesk-backend/pkg/enums"
	pkgerrors "github.com/propdesk/propdesk-backend/pkg/errors"
	"github.com/propdesk/propdesk-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	Repo              billing.Repository
	TransactionRunner txRunner
	Logger            *logger.Logger
}

// Service owns subscription lifecycle transitions. It is the only writer of
// Subscription.status and expires_at on the activation path.
type Service struct {
	repo     billing.Repository
	txRunner txRunner
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a subscription service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "repo is required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger is required")
	}
	return &Service{
		repo:     params.Repo,
		txRunner: params.TransactionRunner,
		logg:     params.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Activate transitions the subscription owning the payment to active and
// extends its validity window by one billing period. Repeat calls for the same
// payment are no-ops; an already-active window extends from its future expiry
// rather than from now, so delayed or duplicated notifications can never
// shorten a paid-through date. The payment and subscription rows are locked
// for the duration of the read-compute-write.
func (s *Service) Activate(ctx context.Context, paymentID uuid.UUID) error {
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// the payment row lock serializes concurrent deliveries of the same
		// notification; without it both could read ActivatedAt == nil and
		// each extend the window
		payment, err := repo.FindPaymentByIDForUpdate(ctx, paymentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		if payment == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		if payment.ActivatedAt != nil {
			return nil
		}

		sub, err := repo.FindSubscriptionByIDForUpdate(ctx, payment.SubscriptionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
		}
		if sub == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
		}

		now := s.now()
		base := now
		if sub.Status == enums.SubscriptionStatusActive && sub.ExpiresAt != nil && sub.ExpiresAt.After(now) {
			base = *sub.ExpiresAt
		}

		expiry, err := AddPeriod(base, sub.BillingCycle)
		if err != nil {
			return err
		}

		sub.Status = enums.SubscriptionStatusActive
		sub.PlanID = payment.PlanID
		if sub.StartedAt == nil {
			startedAt := now
			sub.StartedAt = &startedAt
		}
		sub.ExpiresAt = &expiry
		if err := repo.UpdateSubscription(ctx, sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist subscription activation")
		}

		activatedAt := now
		payment.ActivatedAt = &activatedAt
		if err := repo.UpdatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment activated")
		}

		logCtx := s.logg.WithSubscriptionID(ctx, sub.ID.String())
		logCtx = s.logg.WithField(logCtx, "expires_at", expiry)
		s.logg.Info(logCtx, "subscription activated")
		return nil
	})
}

// CurrentSubscription bundles the subscription row with its plan limits.
type CurrentSubscription struct {
	Subscription *models.Subscription
	Plan         *plans.Plan
}

// Current returns the user's subscription together with its plan limits.
func (s *Service) Current(ctx context.Context, userID uuid.UUID) (*CurrentSubscription, error) {
	sub, err := s.repo.FindSubscriptionByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if sub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
	}

	plan, err := plans.Find(sub.PlanID)
	if err != nil {
		return nil, err
	}

	return &CurrentSubscription{Subscription: sub, Plan: plan}, nil
}

// Cancel turns auto-renew off and marks the subscription cancelled. The
// entitlement keeps running until expires_at; rows are never deleted.
func (s *Service) Cancel(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.repo.FindSubscriptionByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if sub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
	}

	if sub.Status == enums.SubscriptionStatusCancelled {
		return sub, nil
	}

	sub.Status = enums.SubscriptionStatusCancelled
	sub.AutoRenew = false
	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cancellation")
	}

	s.logg.Info(s.logg.WithSubscriptionID(ctx, sub.ID.String()), "subscription cancelled")
	return sub, nil
}
