// Package models defines the records exchanged by the upload pipeline:
// tickets, file descriptors, per-file outcomes and batch results.
package models

// UploadTicket is a single-use authorization to PUT one object directly into
// the storage backing a dataset. A ticket is never reused across attempts.
type UploadTicket struct {
	UploadURL         string
	StorageIdentifier string
	// MaxPartSize is the server-advertised single-part limit in bytes, zero
	// when the server did not send one. It is reported, not enforced.
	MaxPartSize int64
}

// NegotiationStatus tags the result of one negotiation attempt.
type NegotiationStatus int

const (
	// NegotiationSuccess carries a usable ticket.
	NegotiationSuccess NegotiationStatus = iota
	// NegotiationRetryable means the attempt failed transiently and may be
	// repeated while the retry budget lasts.
	NegotiationRetryable
	// NegotiationFatal means no ticket can be issued for this file; retrying
	// will not help.
	NegotiationFatal
)

func (s NegotiationStatus) String() string {
	switch s {
	case NegotiationSuccess:
		return "success"
	case NegotiationRetryable:
		return "retryable"
	case NegotiationFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// NegotiationResult is the outcome of a single negotiation attempt. Ticket is
// set only for NegotiationSuccess; Err is set otherwise.
type NegotiationResult struct {
	Status NegotiationStatus
	Ticket *UploadTicket
	Err    error
}
