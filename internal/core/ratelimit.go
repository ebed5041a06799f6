package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig caps requests to MaxRequests per WindowSeconds.
// MaxRequests == 0 disables limiting.
type RateLimitConfig struct {
	MaxRequests   uint16 `json:"max_requests"`
	WindowSeconds uint16 `json:"window_seconds"`
}

// Unlimited reports whether the limiter should never block.
func (c RateLimitConfig) Unlimited() bool {
	return c.MaxRequests == 0
}

// Window returns the window length as a duration.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// String renders the config in the same N:M form ParseRateLimit accepts.
func (c RateLimitConfig) String() string {
	return fmt.Sprintf("%d:%d", c.MaxRequests, c.WindowSeconds)
}

// ConfigError reports a malformed configuration value.
type ConfigError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ParseRateLimit parses "N:M", meaning at most N requests per M seconds.
func ParseRateLimit(value string) (RateLimitConfig, error) {
	raw := strings.TrimSpace(value)
	requests, window, ok := strings.Cut(raw, ":")
	if !ok || strings.Contains(window, ":") {
		return RateLimitConfig{}, &ConfigError{Field: "rate limit", Value: value, Err: fmt.Errorf("expected N:M")}
	}

	n, err := strconv.ParseUint(strings.TrimSpace(requests), 10, 16)
	if err != nil {
		return RateLimitConfig{}, &ConfigError{Field: "rate limit", Value: value, Err: fmt.Errorf("request count: %w", err)}
	}
	m, err := strconv.ParseUint(strings.TrimSpace(window), 10, 16)
	if err != nil {
		return RateLimitConfig{}, &ConfigError{Field: "rate limit", Value: value, Err: fmt.Errorf("window seconds: %w", err)}
	}

	return RateLimitConfig{MaxRequests: uint16(n), WindowSeconds: uint16(m)}, nil
}
