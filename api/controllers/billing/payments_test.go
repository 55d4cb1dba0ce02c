package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/propdesk/propdesk-backend/api/middleware"
	billingsvc "github.com/propdesk/propdesk-backend/internal/billing"
	"github.com/propdesk/propdesk-backend/pkg/db/models"
	"github.com/propdesk/propdesk-backend/pkg/enums"
	pkgerrors "github.com/propdesk/propdesk-backend/pkg/errors"
	"github.com/propdesk/propdesk-backend/pkg/pagination"
)

type fakePaymentService struct {
	lastInput  billingsvc.CreatePaymentInput
	details    *billingsvc.CheckoutDetails
	history    *billingsvc.PaymentHistory
	lastLimit  int
	lastCursor *pagination.Cursor
	err        error
}

func (f *fakePaymentService) CreatePayment(ctx context.Context, input billingsvc.CreatePaymentInput) (*billingsvc.CheckoutDetails, error) {
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return f.details, nil
}

func (f *fakePaymentService) ListPayments(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) (*billingsvc.PaymentHistory, error) {
	f.lastLimit = limit
	f.lastCursor = cursor
	if f.err != nil {
		return nil, f.err
	}
	return f.history, nil
}

func authedRequest(method, target, body string, userID uuid.UUID) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithUserEmail(ctx, "tenant@propdesk.io")
	return req.WithContext(ctx)
}

func TestPaymentsCreate(t *testing.T) {
	userID := uuid.New()
	sub := &models.Subscription{
		ID:           uuid.New(),
		UserID:       userID,
		PlanID:       "pro",
		Status:       enums.SubscriptionStatusPending,
		BillingCycle: enums.BillingCycleMonthly,
		AutoRenew:    true,
	}
	service := &fakePaymentService{
		details: &billingsvc.CheckoutDetails{
			PaymentID:          uuid.New(),
			ProcessorPaymentID: "4433221100",
			CheckoutURL:        "https://pay.cryptopay.dev/invoice/abc",
			PayAddress:         "0xabc",
			PayAmount:          decimal.RequireFromString("0.145"),
			Currency:           "eth",
			AmountUSD:          decimal.NewFromInt(34000),
			Subscription:       sub,
		},
	}
	handler := PaymentsCreate(service, nil)

	req := authedRequest(http.MethodPost, "/api/v1/billing/payments",
		`{"plan_id":"pro","billing_cycle":"monthly","pay_currency":"eth"}`, userID)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.lastInput.UserID != userID {
		t.Fatalf("expected user id from context, got %s", service.lastInput.UserID)
	}
	if service.lastInput.Email != "tenant@propdesk.io" {
		t.Fatalf("expected email from context, got %q", service.lastInput.Email)
	}

	var envelope struct {
		Data checkoutResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AmountUSD != "34000.00" {
		t.Fatalf("expected amount_usd 34000.00, got %q", envelope.Data.AmountUSD)
	}
	if envelope.Data.Subscription.PlanID != "pro" {
		t.Fatalf("expected pro subscription in response, got %q", envelope.Data.Subscription.PlanID)
	}
}

func TestPaymentsCreateValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "missing plan", body: `{"billing_cycle":"monthly","pay_currency":"eth"}`},
		{name: "bad cycle", body: `{"plan_id":"pro","billing_cycle":"weekly","pay_currency":"eth"}`},
		{name: "unknown field", body: `{"plan_id":"pro","billing_cycle":"monthly","pay_currency":"eth","amount":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := &fakePaymentService{}
			handler := PaymentsCreate(service, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/billing/payments", tc.body, uuid.New()))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestPaymentsCreateMissingIdentity(t *testing.T) {
	service := &fakePaymentService{}
	handler := PaymentsCreate(service, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/payments",
		strings.NewReader(`{"plan_id":"pro","billing_cycle":"monthly","pay_currency":"eth"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rec.Code)
	}
}

func TestPaymentsCreateProcessorDown(t *testing.T) {
	service := &fakePaymentService{err: pkgerrors.New(pkgerrors.CodeDependency, "processor unavailable")}
	handler := PaymentsCreate(service, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/billing/payments",
		`{"plan_id":"pro","billing_cycle":"monthly","pay_currency":"eth"}`, uuid.New()))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestPaymentsList(t *testing.T) {
	next := pagination.Cursor{CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), ID: uuid.New()}
	service := &fakePaymentService{
		history: &billingsvc.PaymentHistory{
			Payments: []models.PaymentRecord{
				{
					ID:                 uuid.New(),
					ProcessorPaymentID: "1",
					PlanID:             "starter",
					AmountUSD:          decimal.NewFromInt(12000),
					CryptoAmount:       decimal.RequireFromString("0.05"),
					Currency:           "eth",
					PaymentStatus:      enums.PaymentStatusFinished,
					Type:               enums.PaymentTypeSubscription,
				},
			},
			NextCursor: &next,
		},
	}
	handler := PaymentsList(service, nil)

	cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), ID: uuid.New()})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/billing/payments?limit=10&cursor="+cursor, "", uuid.New()))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.lastLimit != 10 {
		t.Fatalf("expected limit 10 forwarded, got %d", service.lastLimit)
	}
	if service.lastCursor == nil {
		t.Fatalf("expected cursor forwarded")
	}

	var envelope struct {
		Data paymentListResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Payments) != 1 {
		t.Fatalf("expected one payment, got %d", len(envelope.Data.Payments))
	}
	if envelope.Data.NextCursor == "" {
		t.Fatalf("expected next_cursor in response")
	}
}

func TestPaymentsListInvalidCursor(t *testing.T) {
	service := &fakePaymentService{}
	handler := PaymentsList(service, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/billing/payments?cursor=%21%21", "", uuid.New()))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad cursor, got %d", rec.Code)
	}
}
