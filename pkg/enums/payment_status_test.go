package enums

import "testing"

func TestParsePaymentStatus(t *testing.T) {
	status, err := ParsePaymentStatus("confirming")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if status != PaymentStatusConfirming {
		t.Fatalf("got %s", status)
	}

	if _, err := ParsePaymentStatus("partially_paid"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestPaymentStatusTerminalSuccess(t *testing.T) {
	terminal := map[PaymentStatus]bool{
		PaymentStatusWaiting:    false,
		PaymentStatusConfirming: false,
		PaymentStatusConfirmed:  true,
		PaymentStatusFinished:   true,
		PaymentStatusFailed:     false,
		PaymentStatusExpired:    false,
		PaymentStatusRefunded:   false,
	}
	for status, want := range terminal {
		if got := status.IsTerminalSuccess(); got != want {
			t.Fatalf("%s.IsTerminalSuccess() = %v, want %v", status, got, want)
		}
	}
}

func TestBillingCycleValidation(t *testing.T) {
	if !BillingCycleMonthly.IsValid() || !BillingCycleAnnually.IsValid() {
		t.Fatal("known cycles must validate")
	}
	if BillingCycle("weekly").IsValid() {
		t.Fatal("weekly is not a recognized cycle")
	}
}
