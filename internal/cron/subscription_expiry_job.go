package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/propdesk/propdesk-backend/pkg/db/models"
	"github.com/propdesk/propdesk-backend/pkg/enums"
	"github.com/propdesk/propdesk-backend/pkg/logger"
)

const expirySweepBatchSize = 250

type subscriptionRepository interface {
	ListExpiredActiveSubscriptions(ctx context.Context, now time.Time, limit int) ([]models.Subscription, error)
	UpdateSubscription(ctx context.Context, subscription *models.Subscription) error
}

// SubscriptionExpiryJobParams configures the daily entitlement sweep.
type SubscriptionExpiryJobParams struct {
	Logger *logger.Logger
	Repo   subscriptionRepository
}

// NewSubscriptionExpiryJob constructs the job that lapses overdue subscriptions.
func NewSubscriptionExpiryJob(params SubscriptionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	return &subscriptionExpiryJob{
		logg: params.Logger,
		repo: params.Repo,
		now:  time.Now,
	}, nil
}

type subscriptionExpiryJob struct {
	logg *logger.Logger
	repo subscriptionRepository
	now  func() time.Time
}

func (j *subscriptionExpiryJob) Name() string { return "subscription-expiry" }

// Run marks active subscriptions whose window has lapsed as expired. Row
// failures are collected rather than aborting the sweep, so one bad row cannot
// shadow the rest of the batch.
func (j *subscriptionExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	subs, err := j.repo.ListExpiredActiveSubscriptions(ctx, now, expirySweepBatchSize)
	if err != nil {
		return fmt.Errorf("query lapsed subscriptions: %w", err)
	}

	var errs []error
	count := 0
	for i := range subs {
		sub := subs[i]
		sub.Status = enums.SubscriptionStatusExpired
		if err := j.repo.UpdateSubscription(ctx, &sub); err != nil {
			errs = append(errs, fmt.Errorf("expire subscription %s: %w", sub.ID, err))
			continue
		}
		count++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count, "failed": len(errs)})
	j.logg.Info(logCtx, "subscription expiry sweep complete")
	return multierr.Combine(errs...)
}
