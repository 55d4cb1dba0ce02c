package cryptopaywebhook

import (
	"testing"

	"github.com/propdesk/propdesk-backend/pkg/enums"
)

func TestMapProcessorStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want enums.PaymentStatus
	}{
		{"waiting", enums.PaymentStatusWaiting},
		{"confirming", enums.PaymentStatusConfirming},
		{"sending", enums.PaymentStatusConfirming},
		{"confirmed", enums.PaymentStatusConfirmed},
		{"FINISHED", enums.PaymentStatusFinished},
		{" failed ", enums.PaymentStatusFailed},
		{"expired", enums.PaymentStatusExpired},
		{"refunded", enums.PaymentStatusRefunded},
		{"partially_paid", enums.PaymentStatusWaiting},
		{"some_future_state", enums.PaymentStatusWaiting},
		{"", enums.PaymentStatusWaiting},
	}

	for _, tc := range cases {
		if got := MapProcessorStatus(tc.raw); got != tc.want {
			t.Fatalf("MapProcessorStatus(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestUnknownStatusIsNeverTerminalSuccess(t *testing.T) {
	if MapProcessorStatus("partially_paid").IsTerminalSuccess() {
		t.Fatalf("unmapped status treated as terminal success")
	}
}
