package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/propdesk/propdesk-backend/api/responses"
	cryptopaywebhook "github.com/propdesk/propdesk-backend/internal/webhooks/cryptopay"
	"github.com/propdesk/propdesk-backend/pkg/cryptopay"
	pkgerrors "github.com/propdesk/propdesk-backend/pkg/errors"
	"github.com/propdesk/propdesk-backend/pkg/logger"
	"github.com/propdesk/propdesk-backend/pkg/metrics"
)

type CryptopayWebhookService interface {
	Process(ctx context.Context, notification cryptopaywebhook.Notification, rawBody []byte) error
}

type ipnSecretSource interface {
	IPNSecret() string
}

// CryptopayWebhook handles payment status notifications from the crypto
// processor. Both signature headers must be present before the body is even
// parsed; a verified notification that matches no stored payment is rejected
// rather than inserted blind.
func CryptopayWebhook(svc CryptopayWebhookService, secrets ipnSecretSource, wm *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if secrets == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ipn secret unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := strings.TrimSpace(r.Header.Get(cryptopay.SignatureHeader))
		timestamp := strings.TrimSpace(r.Header.Get(cryptopay.TimestampHeader))
		if signature == "" || timestamp == "" {
			wm.IncOutcome(metrics.WebhookOutcomeMissingSignature)
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "signature headers missing"))
			return
		}

		if !cryptopay.VerifySignature(secrets.IPNSecret(), timestamp, payload, signature) {
			wm.IncOutcome(metrics.WebhookOutcomeInvalidSignature)
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid signature"))
			return
		}

		var notification cryptopaywebhook.Notification
		if err := json.Unmarshal(payload, &notification); err != nil {
			wm.IncOutcome(metrics.WebhookOutcomeMalformedPayload)
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode notification"))
			return
		}

		if err := svc.Process(ctx, notification, payload); err != nil {
			if appErr := pkgerrors.As(err); appErr != nil {
				switch appErr.Code() {
				case pkgerrors.CodeNotFound:
					wm.IncOutcome(metrics.WebhookOutcomeUnknownPayment)
				case pkgerrors.CodeValidation:
					wm.IncOutcome(metrics.WebhookOutcomeMalformedPayload)
				default:
					wm.IncOutcome(metrics.WebhookOutcomeError)
				}
			} else {
				wm.IncOutcome(metrics.WebhookOutcomeError)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		wm.IncOutcome(metrics.WebhookOutcomeProcessed)
		responses.WriteSuccess(w, nil)
	}
}
