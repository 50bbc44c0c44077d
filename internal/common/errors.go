// Package common defines shared constants and sentinel errors used across
// the upload pipeline. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Negotiation errors.
	ErrTransientNegotiation = errors.New("transient negotiation failure")
	ErrUnsupportedTicket    = errors.New("upload ticket is missing url or storage identifier")

	// Object store errors.
	ErrTransfer = errors.New("object store transfer failed")

	// Uploader errors.
	ErrRetryExhausted = errors.New("negotiation retries exhausted")

	// Registration errors.
	ErrFinalize = errors.New("finalize call failed")

	// Batch validation errors.
	ErrInvalidBatch = errors.New("invalid batch parameters")

	// Journal errors.
	ErrorNotFound = errors.New("not found")
)
