package billing

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/propdesk/propdesk-backend/api/middleware"
	"github.com/propdesk/propdesk-backend/api/responses"
	"github.com/propdesk/propdesk-backend/api/validators"
	billingsvc "github.com/propdesk/propdesk-backend/internal/billing"
	"github.com/propdesk/propdesk-backend/pkg/db/models"
	pkgerrors "github.com/propdesk/propdesk-backend/pkg/errors"
	"github.com/propdesk/propdesk-backend/pkg/logger"
	"github.com/propdesk/propdesk-backend/pkg/pagination"
)

// PaymentService describes the billing service methods used by the HTTP controllers.
type PaymentService interface {
	CreatePayment(ctx context.Context, input billingsvc.CreatePaymentInput) (*billingsvc.CheckoutDetails, error)
	ListPayments(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) (*billingsvc.PaymentHistory, error)
}

type createPaymentRequest struct {
	PlanID       string `json:"plan_id" validate:"required"`
	BillingCycle string `json:"billing_cycle" validate:"required,oneof=monthly annually"`
	PayCurrency  string `json:"pay_currency" validate:"required"`
}

type checkoutResponse struct {
	PaymentID          string               `json:"payment_id"`
	ProcessorPaymentID string               `json:"processor_payment_id"`
	CheckoutURL        string               `json:"checkout_url"`
	PayAddress         string               `json:"pay_address"`
	PayAmount          string               `json:"pay_amount"`
	Currency           string               `json:"currency"`
	AmountUSD          string               `json:"amount_usd"`
	Subscription       subscriptionResponse `json:"subscription"`
}

type paymentResponse struct {
	ID                 string  `json:"id"`
	ProcessorPaymentID string  `json:"processor_payment_id"`
	PlanID             string  `json:"plan_id"`
	AmountUSD          string  `json:"amount_usd"`
	CryptoAmount       string  `json:"crypto_amount"`
	Currency           string  `json:"currency"`
	PaymentStatus      string  `json:"payment_status"`
	PayAddress         string  `json:"pay_address,omitempty"`
	PaymentURL         string  `json:"payment_url,omitempty"`
	Type               string  `json:"type"`
	ActivatedAt        *string `json:"activated_at,omitempty"`
	CreatedAt          string  `json:"created_at"`
}

type paymentListResponse struct {
	Payments   []paymentResponse `json:"payments"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

func PaymentsCreate(svc PaymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload createPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		details, err := svc.CreatePayment(ctx, billingsvc.CreatePaymentInput{
			UserID:       userID,
			Email:        middleware.UserEmailFromContext(ctx),
			PlanID:       payload.PlanID,
			BillingCycle: payload.BillingCycle,
			PayCurrency:  payload.PayCurrency,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutToResponse(details))
	}
}

func PaymentsList(svc PaymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		limit := 0
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			parsed, parseErr := strconv.Atoi(raw)
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid limit"))
				return
			}
			limit = parsed
		}

		cursor, err := pagination.ParseCursor(r.URL.Query().Get("cursor"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
			return
		}

		history, err := svc.ListPayments(ctx, userID, limit, cursor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		response := paymentListResponse{Payments: paymentsToResponse(history.Payments)}
		if history.NextCursor != nil {
			response.NextCursor = pagination.EncodeCursor(*history.NextCursor)
		}
		responses.WriteSuccess(w, response)
	}
}

func requestUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}

func checkoutToResponse(details *billingsvc.CheckoutDetails) checkoutResponse {
	return checkoutResponse{
		PaymentID:          details.PaymentID.String(),
		ProcessorPaymentID: details.ProcessorPaymentID,
		CheckoutURL:        details.CheckoutURL,
		PayAddress:         details.PayAddress,
		PayAmount:          details.PayAmount.String(),
		Currency:           details.Currency,
		AmountUSD:          details.AmountUSD.StringFixed(2),
		Subscription:       subscriptionToResponse(details.Subscription),
	}
}

func paymentsToResponse(payments []models.PaymentRecord) []paymentResponse {
	result := make([]paymentResponse, 0, len(payments))
	for i := range payments {
		result = append(result, paymentToResponse(&payments[i]))
	}
	return result
}

func paymentToResponse(payment *models.PaymentRecord) paymentResponse {
	resp := paymentResponse{
		ID:                 payment.ID.String(),
		ProcessorPaymentID: payment.ProcessorPaymentID,
		PlanID:             payment.PlanID,
		AmountUSD:          payment.AmountUSD.StringFixed(2),
		CryptoAmount:       payment.CryptoAmount.String(),
		Currency:           payment.Currency,
		PaymentStatus:      string(payment.PaymentStatus),
		PayAddress:         payment.PayAddress,
		PaymentURL:         payment.PaymentURL,
		Type:               string(payment.Type),
		CreatedAt:          payment.CreatedAt.UTC().Format(time.RFC3339),
	}
	if payment.ActivatedAt != nil {
		formatted := payment.ActivatedAt.UTC().Format(time.RFC3339)
		resp.ActivatedAt = &formatted
	}
	return resp
}
