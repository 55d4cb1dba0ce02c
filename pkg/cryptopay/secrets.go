package cryptopay

// IPNSecrets carries the webhook signing secret for handlers that verify
// inbound notifications.
type IPNSecrets struct {
	secret string
}

// NewIPNSecrets wraps the configured secret.
func NewIPNSecrets(secret string) IPNSecrets {
	return IPNSecrets{secret: secret}
}

// IPNSecret returns the signing secret.
func (s IPNSecrets) IPNSecret() string {
	return s.secret
}
