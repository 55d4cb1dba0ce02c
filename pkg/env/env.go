package env

import "os"

// Get reads an environment variable, treating empty as unset, and returns the
// fallback when nothing is configured.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
