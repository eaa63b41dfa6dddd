package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrStoryNotFound indicates the id is absent from the current snapshot
	// (removed between fetches or never existed; callers cannot tell which)
	ErrStoryNotFound = errors.New("story not found")

	// ErrUpstream indicates the catalog source is unreachable or returned a non-2xx status
	ErrUpstream = errors.New("catalog source unavailable")

	// ErrMalformedResponse indicates the catalog source returned a body that could not be parsed
	ErrMalformedResponse = errors.New("malformed catalog response")

	// ErrThrottled indicates an upstream attempt was skipped by the retry limiter
	ErrThrottled = errors.New("catalog refresh throttled")

	// ErrImageUnavailable indicates a story image could not be loaded
	ErrImageUnavailable = errors.New("story image unavailable")
)
