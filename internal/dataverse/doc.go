// Package dataverse talks to the repository service that fronts the object
// store.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface) covering the
//     two repository calls of a direct upload: obtaining an upload ticket for
//     a file of known size, and registering a batch of uploaded objects.
//  2. An HTTP implementation (see HTTPClient) that applies a per-request
//     timeout, classifies negotiation responses into an explicit tagged
//     result, and submits the registration payload as multipart form data.
//
// # Error Handling
//
// Negotiation never returns a bare error: the result is tagged
// NegotiationSuccess, NegotiationRetryable (bad status, missing data object,
// transport failure) or NegotiationFatal (ticket without url or storage
// identifier). Registration failures wrap common.ErrFinalize.
package dataverse
