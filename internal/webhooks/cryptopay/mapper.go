package cryptopaywebhook

import (
	"strings"

	"github.com/propdesk/propdesk-backend/pkg/enums"
)

// processorStatusMap is the exhaustive translation from Cryptopay's status
// vocabulary to the canonical enumeration. Never a dynamic pass-through: an
// unseen processor status must not be treatable as terminal-success.
var processorStatusMap = map[string]enums.PaymentStatus{
	"waiting":    enums.PaymentStatusWaiting,
	"confirming": enums.PaymentStatusConfirming,
	"sending":    enums.PaymentStatusConfirming,
	"confirmed":  enums.PaymentStatusConfirmed,
	"finished":   enums.PaymentStatusFinished,
	"failed":     enums.PaymentStatusFailed,
	"expired":    enums.PaymentStatusExpired,
	"refunded":   enums.PaymentStatusRefunded,
}

// MapProcessorStatus translates a processor-native status string. Unrecognized
// statuses map to waiting, the least-committal state, so a payment progressing
// through an unseen intermediate state is neither failed nor activated.
func MapProcessorStatus(raw string) enums.PaymentStatus {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if status, ok := processorStatusMap[normalized]; ok {
		return status
	}
	return enums.PaymentStatusWaiting
}
