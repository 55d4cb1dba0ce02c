package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/propdesk/propdesk-backend/pkg/db/models"
	"github.com/propdesk/propdesk-backend/pkg/enums"
	"github.com/propdesk/propdesk-backend/pkg/logger"
)

type stubSubscriptionRepo struct {
	lapsed    []models.Subscription
	updated   []models.Subscription
	updateErr map[uuid.UUID]error
}

func (s *stubSubscriptionRepo) ListExpiredActiveSubscriptions(ctx context.Context, now time.Time, limit int) ([]models.Subscription, error) {
	return s.lapsed, nil
}

func (s *stubSubscriptionRepo) UpdateSubscription(ctx context.Context, sub *models.Subscription) error {
	if err, ok := s.updateErr[sub.ID]; ok {
		return err
	}
	s.updated = append(s.updated, *sub)
	return nil
}

func TestSubscriptionExpiryJob(t *testing.T) {
	pastExpiry := time.Now().UTC().Add(-48 * time.Hour)
	first := models.Subscription{ID: uuid.New(), Status: enums.SubscriptionStatusActive, ExpiresAt: &pastExpiry}
	second := models.Subscription{ID: uuid.New(), Status: enums.SubscriptionStatusActive, ExpiresAt: &pastExpiry}

	repo := &stubSubscriptionRepo{lapsed: []models.Subscription{first, second}}
	job, err := NewSubscriptionExpiryJob(SubscriptionExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Repo:   repo,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(repo.updated) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(repo.updated))
	}
	for _, sub := range repo.updated {
		if sub.Status != enums.SubscriptionStatusExpired {
			t.Fatalf("unexpected status %s", sub.Status)
		}
	}
}

func TestSubscriptionExpiryJobCollectsRowFailures(t *testing.T) {
	pastExpiry := time.Now().UTC().Add(-time.Hour)
	bad := models.Subscription{ID: uuid.New(), Status: enums.SubscriptionStatusActive, ExpiresAt: &pastExpiry}
	good := models.Subscription{ID: uuid.New(), Status: enums.SubscriptionStatusActive, ExpiresAt: &pastExpiry}

	repo := &stubSubscriptionRepo{
		lapsed:    []models.Subscription{bad, good},
		updateErr: map[uuid.UUID]error{bad.ID: errors.New("deadlock")},
	}
	job, err := NewSubscriptionExpiryJob(SubscriptionExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Repo:   repo,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	runErr := job.Run(context.Background())
	if runErr == nil {
		t.Fatalf("expected aggregated error")
	}
	if len(repo.updated) != 1 {
		t.Fatalf("good row should still be expired, got %d updates", len(repo.updated))
	}
}
