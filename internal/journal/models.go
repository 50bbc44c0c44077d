package journal

import "time"

// Run is one recorded batch.
type Run struct {
	ID            string
	DatasetPID    string
	Directory     string
	StartedAt     time.Time
	FinishedAt    time.Time
	Files         int
	Uploaded      int
	Failed        int
	Bytes         int64
	Finalized     bool
	FinalizeError string
	Errors        []string
}

// Orphan is an object left in temporary storage by a run whose registration
// failed.
type Orphan struct {
	RunID             string
	DatasetPID        string
	StorageIdentifier string
	FileName          string
	FileSize          int64
}
