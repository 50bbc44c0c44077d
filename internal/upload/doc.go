// Package upload drives direct uploads into the repository.
//
// A file moves through Pending → Negotiating → {Uploading → Hashing → Done}
// or Aborted. Negotiation is retried while the per-file budget lasts and only
// for retryable results; an unsupported ticket or a failed PUT aborts the file
// at once, since a partially written object needs a fresh ticket.
//
// A batch processes files strictly in input order, one at a time. Per-file
// failures are collected as warnings and never stop the batch. After the pass
// the accumulated descriptors are registered in a single call, even when the
// list is empty.
package upload
