package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Remote catalog errors
	ErrAuthFailed        = fmt.Errorf("authentication failed")
	ErrRemoteAPI         = fmt.Errorf("remote API error")
	ErrMalformedResponse = fmt.Errorf("malformed response")
	ErrRetriesExhausted  = fmt.Errorf("retries exhausted")

	// Cache errors
	ErrCacheUnavailable = fmt.Errorf("cache unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
