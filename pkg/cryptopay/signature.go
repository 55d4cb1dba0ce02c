package cryptopay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// Notification headers sent by Cryptopay on IPN callbacks.
const (
	SignatureHeader = "X-Cryptopay-Signature"
	TimestampHeader = "Timestamp"
)

// ComputeSignature returns the hex-encoded HMAC-SHA512 of timestamp+body keyed
// by the IPN secret.
func ComputeSignature(ipnSecret string, timestamp string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(ipnSecret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the received signature against the expected one using
// a constant-time compare.
func VerifySignature(ipnSecret string, timestamp string, body []byte, signature string) bool {
	if ipnSecret == "" || signature == "" {
		return false
	}
	expected := ComputeSignature(ipnSecret, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
