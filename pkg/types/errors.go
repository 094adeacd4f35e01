package types

import (
	"fmt"
	"time"
)

// NetworkError is a transport-level failure reaching a venue.
type NetworkError struct {
	Venue Platform
	Err   error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s network error: %v", e.Venue, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// VenueError is a non-2xx response from a venue. When rate-limit retries are
// exhausted it wraps the last RateLimitError.
type VenueError struct {
	Venue      Platform
	StatusCode int
	Body       string
	Err        error
}

func (e *VenueError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s API error (status %d): %v", e.Venue, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Venue, e.StatusCode, e.Body)
}

func (e *VenueError) Unwrap() error {
	return e.Err
}

// RateLimitError is a 429 response. Adapters retry it internally.
type RateLimitError struct {
	Venue      Platform
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s)", e.Venue, e.RetryAfter)
}

// MalformedRecordError describes a single listing that failed normalization.
type MalformedRecordError struct {
	Venue    Platform
	RecordID string
	Reason   string
}

func (e *MalformedRecordError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("%s malformed record: %s", e.Venue, e.Reason)
	}
	return fmt.Sprintf("%s malformed record %s: %s", e.Venue, e.RecordID, e.Reason)
}

// OrderError is a rejected or unsubmittable order. Body holds the venue's raw response.
type OrderError struct {
	Venue      Platform
	MarketID   string
	Side       Side
	StatusCode int
	Body       string
	Err        error
}

func (e *OrderError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s %s order failed: %v", e.Venue, e.Side, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s order failed (status %d): %s", e.Venue, e.Side, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s %s order failed: %s", e.Venue, e.Side, e.Body)
	}
}

func (e *OrderError) Unwrap() error {
	return e.Err
}
