package cli_config

import "os"

// EnvVar is the name of an environment variable.
type EnvVar string

// GetOr returns the variable's value, or defaultValue when it is unset or empty.
func (s EnvVar) GetOr(defaultValue string) string {
	if value := os.Getenv(string(s)); value != "" {
		return value
	}
	return defaultValue
}
