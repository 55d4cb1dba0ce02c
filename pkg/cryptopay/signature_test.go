package cryptopay

import "testing"

func TestVerifySignature(t *testing.T) {
	const secret = "ipn-secret"
	const timestamp = "1700000000"
	body := []byte(`{"payment_id":123,"payment_status":"finished"}`)

	sig := ComputeSignature(secret, timestamp, body)

	if !VerifySignature(secret, timestamp, body, sig) {
		t.Fatalf("expected valid signature")
	}
	if VerifySignature(secret, "1700000001", body, sig) {
		t.Fatalf("timestamp not bound to signature")
	}
	if VerifySignature(secret, timestamp, []byte(`{}`), sig) {
		t.Fatalf("body not bound to signature")
	}
	if VerifySignature("other-secret", timestamp, body, sig) {
		t.Fatalf("secret not bound to signature")
	}
	if VerifySignature(secret, timestamp, body, "") {
		t.Fatalf("empty signature accepted")
	}
	if VerifySignature("", timestamp, body, sig) {
		t.Fatalf("empty secret accepted")
	}
}
