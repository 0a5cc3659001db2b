package domain

import (
	"fmt"
	"strings"
)

// MaxSnippetBytes bounds the raw body excerpt carried by DecodeError.
const MaxSnippetBytes = 256

// DecodeError reports a body that could not be parsed at all. It is a client error and is never retried.
type DecodeError struct {
	ContentType string
	Snippet     string
	Err         error
}

// NewDecodeError builds a DecodeError with a truncated excerpt of body.
func NewDecodeError(contentType string, body []byte, err error) *DecodeError {
	return &DecodeError{
		ContentType: contentType,
		Snippet:     Snippet(body, MaxSnippetBytes),
		Err:         err,
	}
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed %s body: %v (body: %q)", e.ContentType, e.Err, e.Snippet)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Snippet truncates body to at most limit bytes, marking truncation with "...".
func Snippet(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}

// DestinationFailure is a failed insert for one destination.
type DestinationFailure struct {
	Destination string `json:"destination"`
	Table       string `json:"table"`
	Rows        int    `json:"rows"`
	Err         error  `json:"-"`
}

// SinkError aggregates per-destination insert failures. Destinations not listed were stored.
type SinkError struct {
	Failures []DestinationFailure
}

func (e *SinkError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Destination, f.Err))
	}
	return "sink insert failed: " + strings.Join(parts, "; ")
}

// Destinations lists the failed destination ids.
func (e *SinkError) Destinations() []string {
	ids := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, f.Destination)
	}
	return ids
}
