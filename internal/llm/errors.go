package llm

import (
	"errors"
	"fmt"
)

// RateLimitError reports throttling by the remote service (HTTP 429 or
// RESOURCE_EXHAUSTED). It is the only error the retry policy retries.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	if e.Message == "" {
		return "rate limit exceeded"
	}
	return e.Message
}

// Is lets errors.Is(err, &RateLimitError{}) match wrapped values.
func (e *RateLimitError) Is(target error) bool {
	_, ok := target.(*RateLimitError)
	return ok
}

// EmptyResponseError reports a response without usable text, for example
// one blocked by a safety filter.
type EmptyResponseError struct {
	Message string
}

func (e *EmptyResponseError) Error() string {
	if e.Message == "" {
		return "empty response"
	}
	return e.Message
}

// Is lets errors.Is(err, &EmptyResponseError{}) match wrapped values.
func (e *EmptyResponseError) Is(target error) bool {
	_, ok := target.(*EmptyResponseError)
	return ok
}

// APIError is any other non-success answer from the remote service.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("API request failed with status %d (%s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Message)
}

// IsRateLimit reports whether err is, or wraps, a RateLimitError.
func IsRateLimit(err error) bool {
	return errors.Is(err, &RateLimitError{})
}

// IsEmptyResponse reports whether err is, or wraps, an EmptyResponseError.
func IsEmptyResponse(err error) bool {
	return errors.Is(err, &EmptyResponseError{})
}
