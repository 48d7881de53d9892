package gcp

import (
	"fmt"
	"os"
	"strconv"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetEnvBool reads a boolean environment variable. Unset or empty values
// yield the fallback.
func GetEnvBool(key string, fallback bool) (bool, error) {
	value := GetEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback, fmt.Errorf("%s must be a boolean, got %q", key, value)
	}
	return b, nil
}

// GetEnvInt64 reads a positive integer environment variable.
func GetEnvInt64(key string, fallback int64) (int64, error) {
	value := GetEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return fallback, fmt.Errorf("%s must be a positive integer, got %q", key, value)
	}
	return n, nil
}
