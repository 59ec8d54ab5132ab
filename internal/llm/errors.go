package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrRateLimited marks a provider rate-limit rejection.
var ErrRateLimited = errors.New("rate limited")

// retryablePatterns match transient provider failures worth retrying.
var retryablePatterns = []string{
	"timeout",
	"timed out",
	"connection",
	"429",
	"500",
	"502",
	"503",
	"rate limit",
	"too many requests",
	"server error",
}

// IsRetryable reports whether a provider error is transient.
// Everything else propagates without retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
