package domain

import "errors"

var (
	// ErrMalformedDocument signals a document missing required fields.
	ErrMalformedDocument = errors.New("malformed document")
	// ErrSourceFetch signals a network or parse failure in one adapter.
	ErrSourceFetch = errors.New("source fetch failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrVectorDimMismatch signals a vector dimension mismatch on insert.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)
