package billing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/propdesk/propdesk-backend/pkg/cryptopay"
	"github.com/propdesk/propdesk-backend/pkg/db/models"
	"github.com/propdesk/propdesk-backend/pkg/enums"
	pkgerrors "github.com/propdesk/propdesk-backend/pkg/errors"
	"github.com/propdesk/propdesk-backend/pkg/logger"
	"github.com/propdesk/propdesk-backend/pkg/pagination"
)

type stubRepo struct {
	subscription *models.Subscription
	user         *models.User

	createdSubscription *models.Subscription
	updatedSubscription *models.Subscription
	createdPayment      *models.PaymentRecord
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	copied := *sub
	s.createdSubscription = &copied
	return nil
}

func (s *stubRepo) UpdateSubscription(ctx context.Context, sub *models.Subscription) error {
	copied := *sub
	s.updatedSubscription = &copied
	return nil
}

func (s *stubRepo) FindSubscriptionByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	if s.subscription != nil && s.subscription.UserID == userID {
		return s.subscription, nil
	}
	return nil, nil
}

func (s *stubRepo) FindSubscriptionByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	return nil, nil
}

func (s *stubRepo) FindSubscriptionByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	return nil, nil
}

func (s *stubRepo) ListExpiredActiveSubscriptions(ctx context.Context, now time.Time, limit int) ([]models.Subscription, error) {
	return nil, nil
}

func (s *stubRepo) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, nil
}

func (s *stubRepo) CreatePayment(ctx context.Context, payment *models.PaymentRecord) error {
	copied := *payment
	s.createdPayment = &copied
	return nil
}

func (s *stubRepo) UpdatePayment(ctx context.Context, payment *models.PaymentRecord) error {
	return nil
}

func (s *stubRepo) FindPaymentByID(ctx context.Context, id uuid.UUID) (*models.PaymentRecord, error) {
	return nil, nil
}

func (s *stubRepo) FindPaymentByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.PaymentRecord, error) {
	return nil, nil
}

func (s *stubRepo) FindPaymentByProcessorID(ctx context.Context, processorPaymentID string) (*models.PaymentRecord, error) {
	return nil, nil
}

func (s *stubRepo) ListPayments(ctx context.Context, params ListPaymentsQuery) ([]models.PaymentRecord, *pagination.Cursor, error) {
	return nil, nil, nil
}

type stubProcessor struct {
	lastRequest *cryptopay.CreatePaymentRequest
	payment     *cryptopay.Payment
	err         error
}

func (s *stubProcessor) CreatePayment(ctx context.Context, req cryptopay.CreatePaymentRequest) (*cryptopay.Payment, error) {
	s.lastRequest = &req
	if s.err != nil {
		return nil, s.err
	}
	return s.payment, nil
}

func newTestService(t *testing.T, repo *stubRepo, processor *stubProcessor) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:      repo,
		Processor: processor,
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreatePaymentFirstPurchase(t *testing.T) {
	repo := &stubRepo{}
	processor := &stubProcessor{
		payment: &cryptopay.Payment{
			PaymentID:     "4945313529",
			PaymentStatus: "waiting",
			PayAddress:    "0xabc123",
			PayAmount:     decimal.RequireFromString("0.123"),
			PayCurrency:   "eth",
			InvoiceURL:    "https://pay.test/invoice/4945313529",
		},
	}

	svc := newTestService(t, repo, processor)
	svc.now = func() time.Time { return time.Unix(1700000000, 0).UTC() }

	userID := uuid.New()
	details, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		UserID:       userID,
		Email:        "owner@example.com",
		PlanID:       "pro",
		BillingCycle: "monthly",
		PayCurrency:  "ETH",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	sub := repo.createdSubscription
	if sub == nil {
		t.Fatalf("subscription not created")
	}
	if sub.Status != enums.SubscriptionStatusPending {
		t.Fatalf("unexpected subscription status %s", sub.Status)
	}
	if sub.ExpiresAt != nil {
		t.Fatalf("new subscription must not carry an expiry")
	}

	if processor.lastRequest == nil {
		t.Fatalf("processor not called")
	}
	if !processor.lastRequest.PriceAmount.Equal(decimal.NewFromInt(34000)) {
		t.Fatalf("unexpected price %s", processor.lastRequest.PriceAmount)
	}
	wantOrderID := sub.ID.String() + "-1700000000"
	if processor.lastRequest.OrderID != wantOrderID {
		t.Fatalf("order id = %q, want %q", processor.lastRequest.OrderID, wantOrderID)
	}

	payment := repo.createdPayment
	if payment == nil {
		t.Fatalf("payment record not persisted")
	}
	if payment.PaymentStatus != enums.PaymentStatusWaiting {
		t.Fatalf("unexpected payment status %s", payment.PaymentStatus)
	}
	if payment.ProcessorPaymentID != "4945313529" {
		t.Fatalf("unexpected processor payment id %q", payment.ProcessorPaymentID)
	}
	if !payment.AmountUSD.Equal(decimal.NewFromInt(34000)) {
		t.Fatalf("unexpected amount %s", payment.AmountUSD)
	}
	if payment.Currency != "eth" {
		t.Fatalf("unexpected currency %q", payment.Currency)
	}
	if details.CheckoutURL != "https://pay.test/invoice/4945313529" {
		t.Fatalf("unexpected checkout url %q", details.CheckoutURL)
	}
}

func TestCreatePaymentIncludesSetupFee(t *testing.T) {
	repo := &stubRepo{}
	processor := &stubProcessor{
		payment: &cryptopay.Payment{
			PaymentID:     "100",
			PaymentStatus: "waiting",
			PayAddress:    "bc1qxyz",
			PayAmount:     decimal.RequireFromString("0.02"),
			InvoiceURL:    "https://pay.test/invoice/100",
		},
	}

	svc := newTestService(t, repo, processor)
	_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		UserID:       uuid.New(),
		PlanID:       "business",
		BillingCycle: "monthly",
		PayCurrency:  "btc",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	// setup fee is added on every creation call, renewals included
	if !processor.lastRequest.PriceAmount.Equal(decimal.NewFromInt(105000)) {
		t.Fatalf("unexpected price %s", processor.lastRequest.PriceAmount)
	}
}

func TestCreatePaymentPlanSwitchResetsStatus(t *testing.T) {
	userID := uuid.New()
	expiry := time.Now().UTC().Add(10 * 24 * time.Hour)
	repo := &stubRepo{
		subscription: &models.Subscription{
			ID:           uuid.New(),
			UserID:       userID,
			PlanID:       "starter",
			Status:       enums.SubscriptionStatusActive,
			BillingCycle: enums.BillingCycleMonthly,
			ExpiresAt:    &expiry,
		},
	}
	processor := &stubProcessor{
		payment: &cryptopay.Payment{
			PaymentID:     "200",
			PaymentStatus: "waiting",
			PayAddress:    "0xdef",
			PayAmount:     decimal.RequireFromString("1.5"),
			InvoiceURL:    "https://pay.test/invoice/200",
		},
	}

	svc := newTestService(t, repo, processor)
	_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		UserID:       userID,
		PlanID:       "pro",
		BillingCycle: "annually",
		PayCurrency:  "eth",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	sub := repo.updatedSubscription
	if sub == nil {
		t.Fatalf("subscription not updated")
	}
	if sub.Status != enums.SubscriptionStatusPending {
		t.Fatalf("plan switch must reset status, got %s", sub.Status)
	}
	if sub.PlanID != "pro" || sub.BillingCycle != enums.BillingCycleAnnually {
		t.Fatalf("plan/cycle not updated: %+v", sub)
	}
	if sub.ExpiresAt == nil || !sub.ExpiresAt.Equal(expiry) {
		t.Fatalf("creation must not touch the old expiry")
	}
}

func TestCreatePaymentRenewalResetsToPending(t *testing.T) {
	userID := uuid.New()
	repo := &stubRepo{
		subscription: &models.Subscription{
			ID:           uuid.New(),
			UserID:       userID,
			PlanID:       "pro",
			Status:       enums.SubscriptionStatusActive,
			BillingCycle: enums.BillingCycleMonthly,
		},
	}
	processor := &stubProcessor{
		payment: &cryptopay.Payment{
			PaymentID:     "201",
			PaymentStatus: "waiting",
			PayAddress:    "0xdef",
			PayAmount:     decimal.RequireFromString("0.1"),
			InvoiceURL:    "https://pay.test/invoice/201",
		},
	}

	svc := newTestService(t, repo, processor)
	_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		UserID:       userID,
		PlanID:       "pro",
		BillingCycle: "annually",
		PayCurrency:  "eth",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	// every creation call parks the row at pending until the new payment
	// confirms, even when only the billing cycle changes
	if repo.updatedSubscription.Status != enums.SubscriptionStatusPending {
		t.Fatalf("creation must reset status to pending, got %s", repo.updatedSubscription.Status)
	}
	if repo.updatedSubscription.BillingCycle != enums.BillingCycleAnnually {
		t.Fatalf("billing cycle not updated: %+v", repo.updatedSubscription)
	}
}

func TestCreatePaymentFallsBackToStoredEmail(t *testing.T) {
	userID := uuid.New()
	repo := &stubRepo{
		user: &models.User{ID: userID, Email: "stored@example.com"},
	}
	processor := &stubProcessor{
		payment: &cryptopay.Payment{
			PaymentID:     "300",
			PaymentStatus: "waiting",
			PayAddress:    "0xdef",
			PayAmount:     decimal.RequireFromString("0.1"),
			InvoiceURL:    "https://pay.test/invoice/300",
		},
	}

	svc := newTestService(t, repo, processor)
	_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		UserID:       userID,
		PlanID:       "pro",
		BillingCycle: "monthly",
		PayCurrency:  "eth",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if processor.lastRequest.CustomerEmail != "stored@example.com" {
		t.Fatalf("expected stored email forwarded, got %q", processor.lastRequest.CustomerEmail)
	}
}

func TestCreatePaymentUnknownPlan(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo, &stubProcessor{})

	_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		UserID:       uuid.New(),
		PlanID:       "enterprise",
		BillingCycle: "monthly",
		PayCurrency:  "btc",
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if repo.createdSubscription != nil {
		t.Fatalf("subscription created for unknown plan")
	}
}

func TestCreatePaymentInvalidCycle(t *testing.T) {
	svc := newTestService(t, &stubRepo{}, &stubProcessor{})
	_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		UserID:       uuid.New(),
		PlanID:       "pro",
		BillingCycle: "weekly",
		PayCurrency:  "btc",
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreatePaymentProcessorFailureLeavesNoRecord(t *testing.T) {
	repo := &stubRepo{}
	processor := &stubProcessor{
		err: pkgerrors.New(pkgerrors.CodeDependency, "payment request failed"),
	}

	svc := newTestService(t, repo, processor)
	_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		UserID:       uuid.New(),
		PlanID:       "starter",
		BillingCycle: "monthly",
		PayCurrency:  "btc",
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if repo.createdPayment != nil {
		t.Fatalf("payment record persisted despite processor failure")
	}
	// pending subscription upsert is idempotent and allowed to remain
	if repo.createdSubscription == nil {
		t.Fatalf("expected pending subscription upsert")
	}
	if !strings.EqualFold(string(repo.createdSubscription.Status), "pending") {
		t.Fatalf("unexpected subscription status %s", repo.createdSubscription.Status)
	}
}
