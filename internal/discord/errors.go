package discord

import "fmt"

// ValidationError reports a payload that violates a platform limit.
// It is always returned before any network I/O happens.
type ValidationError struct {
	Constraint string // e.g. "embeds.count", "embeds[0].fields[2].value.length"
	Detail     string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return "discord: invalid payload: " + e.Constraint
	}
	return fmt.Sprintf("discord: invalid payload: %s: %s", e.Constraint, e.Detail)
}

// StatusError is a non-2xx webhook response, preserved verbatim so
// callers can inspect the status and body and apply their own policy.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	body := string(e.Body)
	if len(body) > 200 {
		body = body[:197] + "..."
	}
	if body == "" {
		return fmt.Sprintf("discord: webhook returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("discord: webhook returned status %d: %s", e.StatusCode, body)
}

// IsRateLimited reports whether e is the 429 rate-limit status.
func (e *StatusError) IsRateLimited() bool { return e.StatusCode == 429 }
