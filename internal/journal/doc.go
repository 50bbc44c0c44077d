// Package journal keeps an append-only SQLite record of upload batches.
//
// Each batch writes one run row, its warning messages and, when registration
// failed, the objects that were stored but never attached to the dataset.
// The journal is read by the history and cleanup commands only; uploads never
// consult it.
package journal
