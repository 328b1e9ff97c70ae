// Package env reads raw process environment variables for the few settings
// needed before the config layer is parsed (the logger's output format, for
// one).
package env

import "os"

// Get looks up key in the environment, returning fallback when the variable
// is unset or empty.
func Get(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
