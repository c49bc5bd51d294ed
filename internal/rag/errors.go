package rag

import (
	"context"
	"errors"
	"net"
)

var (
	// ErrSessionRequired rejects requests without a session id before any
	// external service is touched.
	ErrSessionRequired = errors.New("session id is required")

	// ErrQueryEmbedding marks a question that could not be embedded. Unlike
	// indexing, where a failed unit is skipped, a query without a vector
	// cannot proceed at all.
	ErrQueryEmbedding = errors.New("could not embed question")
)

// IsTimeout reports whether err was caused by a deadline or network timeout
// rather than a service rejecting the request.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
