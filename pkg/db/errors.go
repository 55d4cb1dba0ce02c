package db

import "strings"

// IsUniqueViolation reports whether err is a Postgres unique violation. With a
// constraintName the match is pinned to that constraint, which is how callers
// tell a duplicate processor_payment_id apart from other conflicts.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value")
}
