package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the minimal account row the billing engine references. Account
// management and authentication live in a separate system; this table only
// anchors foreign keys and the contact email forwarded to the processor.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string    `gorm:"column:email;not null;unique"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
