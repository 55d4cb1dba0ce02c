package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propdesk/propdesk-backend/pkg/enums"
)

// PaymentRecord is one payment attempt against a subscription. The processor's
// payment id is the sole correlation key for inbound notifications; a
// notification that matches no row is rejected, never inserted blind.
// ActivatedAt marks that this payment already activated its subscription, so
// repeated terminal-success notifications stay no-ops.
type PaymentRecord struct {
	ID                 uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID             uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	SubscriptionID     uuid.UUID           `gorm:"column:subscription_id;type:uuid;not null;index"`
	PlanID             string              `gorm:"column:plan_id;not null"`
	AmountUSD          decimal.Decimal     `gorm:"column:amount_usd;type:numeric(12,2);not null"`
	CryptoAmount       decimal.Decimal     `gorm:"column:crypto_amount;type:numeric(30,12);not null"`
	Currency           string              `gorm:"column:currency;not null"`
	ProcessorPaymentID string              `gorm:"column:processor_payment_id;not null;unique"`
	ProcessorOrderID   string              `gorm:"column:processor_order_id;not null"`
	PaymentStatus      enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'waiting'"`
	PayAddress         string              `gorm:"column:pay_address"`
	PaymentURL         string              `gorm:"column:payment_url"`
	RawCallbackPayload json.RawMessage     `gorm:"column:raw_callback_payload;type:jsonb"`
	Type               enums.PaymentType   `gorm:"column:type;type:payment_type;not null;default:'subscription'"`
	ActivatedAt        *time.Time          `gorm:"column:activated_at"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
