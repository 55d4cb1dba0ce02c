package cryptopaywebhook

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/propdesk/propdesk-backend/internal/billing"
	pkgerrors "github.com/propdesk/propdesk-backend/pkg/errors"
	"github.com/propdesk/propdesk-backend/pkg/logger"
)

type activator interface {
	Activate(ctx context.Context, paymentID uuid.UUID) error
}

// Notification is the minimal shape required of an IPN body.
type Notification struct {
	PaymentID     json.Number `json:"payment_id"`
	PaymentStatus string      `json:"payment_status"`
}

// ServiceParams groups dependencies for the webhook reconciler.
type ServiceParams struct {
	Repo      billing.Repository
	Activator activator
	Logger    *logger.Logger
}

// Service reconciles verified processor notifications against stored payment
// records. It is the only writer of PaymentRecord.payment_status.
type Service struct {
	repo      billing.Repository
	activator activator
	logg      *logger.Logger
}

// NewService builds a webhook reconciler.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "repo is required")
	}
	if params.Activator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "activator is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger is required")
	}
	return &Service{
		repo:      params.Repo,
		activator: params.Activator,
		logg:      params.Logger,
	}, nil
}

// Process applies one verified notification. The payment is matched purely by
// the processor's payment id; a miss is rejected, never inserted blind. Status
// and raw payload persist unconditionally, duplicates included, so the row
// always carries the latest-seen notification. Activation fires only on
// terminal success; a missing owning subscription is absorbed and logged so
// the processor is still acknowledged and does not redeliver forever.
func (s *Service) Process(ctx context.Context, notification Notification, rawBody []byte) error {
	processorPaymentID := strings.TrimSpace(notification.PaymentID.String())
	if processorPaymentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment_id is required")
	}

	ctx = s.logg.WithPaymentID(ctx, processorPaymentID)

	payment, err := s.repo.FindPaymentByProcessorID(ctx, processorPaymentID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment == nil {
		s.logg.Warn(ctx, "notification for unknown payment")
		return pkgerrors.New(pkgerrors.CodeNotFound, "unknown payment")
	}

	mapped := MapProcessorStatus(notification.PaymentStatus)
	payment.PaymentStatus = mapped
	payment.RawCallbackPayload = json.RawMessage(rawBody)
	if err := s.repo.UpdatePayment(ctx, payment); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment status")
	}

	if !mapped.IsTerminalSuccess() {
		return nil
	}

	if err := s.activator.Activate(ctx, payment.ID); err != nil {
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNotFound {
			// payment matched but its subscription is gone; acknowledging
			// anyway stops the processor from redelivering an unrecoverable case
			s.logg.Error(ctx, "subscription missing for settled payment", err)
			return nil
		}
		return err
	}

	return nil
}
