package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/propdesk/propdesk-backend/pkg/enums"
)

// Subscription holds one user's billing relationship to the product. There is
// at most one row per user; lifecycle changes are soft status transitions,
// never deletes. StartedAt/ExpiresAt stay null until the first activation.
type Subscription struct {
	ID           uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID                `gorm:"column:user_id;type:uuid;not null;unique"`
	PlanID       string                   `gorm:"column:plan_id;not null"`
	Status       enums.SubscriptionStatus `gorm:"column:status;type:subscription_status;not null;default:'pending'"`
	BillingCycle enums.BillingCycle       `gorm:"column:billing_cycle;type:billing_cycle;not null;default:'monthly'"`
	AutoRenew    bool                     `gorm:"column:auto_renew;not null;default:true"`
	StartedAt    *time.Time               `gorm:"column:started_at"`
	ExpiresAt    *time.Time               `gorm:"column:expires_at"`
	CreatedAt    time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
