package models

// UploadOutcome is the per-file result of a batch: exactly one of Descriptor
// or Err is set. A failed outcome carries StorageIdentifier and FileSize when
// the object reached the store before the failure.
type UploadOutcome struct {
	FileName          string
	Descriptor        *FileDescriptor
	Err               error
	StorageIdentifier string
	FileSize          int64
}

// Succeeded reports whether the file produced a descriptor.
func (o UploadOutcome) Succeeded() bool {
	return o.Descriptor != nil
}

// BatchResult summarizes one batch. Succeeded is true only when no file
// failed; Finalized reflects the registration call alone, so a batch can be
// both failed and finalized.
type BatchResult struct {
	RunID       string
	DatasetPID  string
	Succeeded   bool
	Errors      []string
	Finalized   bool
	FinalizeErr error
	Outcomes    []UploadOutcome
	Descriptors []FileDescriptor
}

// NewBatchResult builds the immutable summary of a finished batch.
func NewBatchResult(runID, datasetPID string, outcomes []UploadOutcome, descriptors []FileDescriptor, errs []string, finalized bool, finalizeErr error) BatchResult {
	if errs == nil {
		errs = []string{}
	}
	if descriptors == nil {
		descriptors = []FileDescriptor{}
	}
	return BatchResult{
		RunID:       runID,
		DatasetPID:  datasetPID,
		Succeeded:   len(errs) == 0,
		Errors:      errs,
		Finalized:   finalized,
		FinalizeErr: finalizeErr,
		Outcomes:    outcomes,
		Descriptors: descriptors,
	}
}

// BytesUploaded sums the sizes of all descriptors in the batch.
func (r BatchResult) BytesUploaded() int64 {
	var n int64
	for _, d := range r.Descriptors {
		n += d.FileSize
	}
	return n
}
