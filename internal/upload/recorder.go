package upload

import "github.com/dmitrijs2005/dvcurate/internal/models"

// Recorder receives pipeline events for metrics.
type Recorder interface {
	NegotiationAttempt(status models.NegotiationStatus)
	FileUploaded(bytes int64)
	FileFailed()
	BatchFinalized(ok bool)
}

type nopRecorder struct{}

func (nopRecorder) NegotiationAttempt(models.NegotiationStatus) {}
func (nopRecorder) FileUploaded(int64)                          {}
func (nopRecorder) FileFailed()                                 {}
func (nopRecorder) BatchFinalized(bool)                         {}
