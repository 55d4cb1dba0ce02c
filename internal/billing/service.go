package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propdesk/propdesk-backend/internal/plans"
	"github.com/propdesk/propdesk-backend/pkg/cryptopay"
	"github.com/propdesk/propdesk-backend/pkg/db"
	"github.com/propdesk/propdesk-backend/pkg/db/models"
	"github.com/propdesk/propdesk-backend/pkg/enums"
	pkgerrors "github.com/propdesk/propdesk-backend/pkg/errors"
	"github.com/propdesk/propdesk-backend/pkg/logger"
	"github.com/propdesk/propdesk-backend/pkg/pagination"
)

const defaultProcessorTimeout = 15 * time.Second

// ProcessorClient is the outbound payment-processor surface the service needs.
type ProcessorClient interface {
	CreatePayment(ctx context.Context, req cryptopay.CreatePaymentRequest) (*cryptopay.Payment, error)
}

// ServiceParams groups dependencies for the billing service.
type ServiceParams struct {
	Repo             Repository
	Processor        ProcessorClient
	Logger           *logger.Logger
	ProcessorTimeout time.Duration
}

// Service orchestrates payment creation and history reads.
type Service struct {
	repo             Repository
	processor        ProcessorClient
	logg             *logger.Logger
	processorTimeout time.Duration
	now              func() time.Time
}

// NewService builds a billing service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "repo is required")
	}
	if params.Processor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "processor client is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger is required")
	}
	timeout := params.ProcessorTimeout
	if timeout <= 0 {
		timeout = defaultProcessorTimeout
	}
	return &Service{
		repo:             params.Repo,
		processor:        params.Processor,
		logg:             params.Logger,
		processorTimeout: timeout,
		now:              func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreatePaymentInput carries the authenticated user's checkout request.
type CreatePaymentInput struct {
	UserID       uuid.UUID
	Email        string
	PlanID       string
	BillingCycle string
	PayCurrency  string
}

// CheckoutDetails is returned to the caller after a successful creation.
type CheckoutDetails struct {
	PaymentID          uuid.UUID            `json:"payment_id"`
	ProcessorPaymentID string               `json:"processor_payment_id"`
	CheckoutURL        string               `json:"checkout_url"`
	PayAddress         string               `json:"pay_address"`
	PayAmount          decimal.Decimal      `json:"pay_amount"`
	Currency           string               `json:"currency"`
	AmountUSD          decimal.Decimal      `json:"amount_usd"`
	Subscription       *models.Subscription `json:"subscription"`
}

// CreatePayment validates the request, upserts the user's subscription to
// pending, asks the processor for a settlement quote, and persists a waiting
// PaymentRecord. A processor failure leaves no PaymentRecord behind; the
// pending subscription upsert is idempotent and may remain.
func (s *Service) CreatePayment(ctx context.Context, input CreatePaymentInput) (*CheckoutDetails, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cycle, err := enums.ParseBillingCycle(input.BillingCycle)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid billing cycle")
	}
	if strings.TrimSpace(input.PayCurrency) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pay currency is required")
	}

	plan, err := plans.Find(input.PlanID)
	if err != nil {
		return nil, err
	}
	price, err := plans.Price(plan, cycle)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(input.Email)
	if email == "" {
		user, err := s.repo.FindUserByID(ctx, input.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		if user != nil {
			email = user.Email
		}
	}

	sub, err := s.upsertPendingSubscription(ctx, input.UserID, plan.ID, cycle)
	if err != nil {
		return nil, err
	}

	now := s.now()
	orderID := fmt.Sprintf("%s-%d", sub.ID, now.Unix())

	processorCtx, cancel := context.WithTimeout(ctx, s.processorTimeout)
	defer cancel()

	quote, err := s.processor.CreatePayment(processorCtx, cryptopay.CreatePaymentRequest{
		PriceAmount:      price,
		PriceCurrency:    "usd",
		PayCurrency:      input.PayCurrency,
		OrderID:          orderID,
		OrderDescription: fmt.Sprintf("PropDesk %s plan (%s)", plan.Name, cycle),
		CustomerEmail:    email,
	})
	if err != nil {
		return nil, err
	}

	payment := &models.PaymentRecord{
		UserID:             input.UserID,
		SubscriptionID:     sub.ID,
		PlanID:             plan.ID,
		AmountUSD:          price,
		CryptoAmount:       quote.PayAmount,
		Currency:           strings.ToLower(strings.TrimSpace(input.PayCurrency)),
		ProcessorPaymentID: quote.PaymentID,
		ProcessorOrderID:   orderID,
		PaymentStatus:      enums.PaymentStatusWaiting,
		PayAddress:         quote.PayAddress,
		PaymentURL:         quote.InvoiceURL,
		Type:               enums.PaymentTypeSubscription,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		if db.IsUniqueViolation(err, "payment_records_processor_payment_id_key") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "payment already recorded")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment record")
	}

	logCtx := s.logg.WithUserID(ctx, input.UserID.String())
	logCtx = s.logg.WithPaymentID(logCtx, quote.PaymentID)
	s.logg.Info(logCtx, "payment created")

	return &CheckoutDetails{
		PaymentID:          payment.ID,
		ProcessorPaymentID: quote.PaymentID,
		CheckoutURL:        quote.InvoiceURL,
		PayAddress:         quote.PayAddress,
		PayAmount:          quote.PayAmount,
		Currency:           payment.Currency,
		AmountUSD:          price,
		Subscription:       sub,
	}, nil
}

// upsertPendingSubscription ensures exactly one subscription row exists for
// the user. Every creation call moves the row back to pending; the old active
// window is untouched until a new confirmation lands.
func (s *Service) upsertPendingSubscription(ctx context.Context, userID uuid.UUID, planID string, cycle enums.BillingCycle) (*models.Subscription, error) {
	sub, err := s.repo.FindSubscriptionByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}

	if sub == nil {
		sub = &models.Subscription{
			ID:           uuid.New(),
			UserID:       userID,
			PlanID:       planID,
			Status:       enums.SubscriptionStatusPending,
			BillingCycle: cycle,
			AutoRenew:    true,
		}
		if err := s.repo.CreateSubscription(ctx, sub); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription")
		}
		return sub, nil
	}

	sub.Status = enums.SubscriptionStatusPending
	sub.PlanID = planID
	sub.BillingCycle = cycle
	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription")
	}
	return sub, nil
}

// PaymentHistory is one page of a user's payment attempts.
type PaymentHistory struct {
	Payments   []models.PaymentRecord
	NextCursor *pagination.Cursor
}

// ListPayments returns the user's payment history, newest first.
func (s *Service) ListPayments(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) (*PaymentHistory, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	payments, next, err := s.repo.ListPayments(ctx, ListPaymentsQuery{
		UserID: userID,
		Limit:  limit,
		Cursor: cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return &PaymentHistory{Payments: payments, NextCursor: next}, nil
}
