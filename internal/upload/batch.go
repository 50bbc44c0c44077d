package upload

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/dvcurate/internal/common"
	"github.com/dmitrijs2005/dvcurate/internal/models"
)

// FailureMessage is the warning recorded for a file that did not upload.
func FailureMessage(fileName string) string {
	return fmt.Sprintf("Warning: Failed to upload: %s", fileName)
}

// UploadBatch uploads records from directory one after another and then
// registers every file that made it, in a single call.
//
// Only invalid input is returned as an error; per-file and finalize failures
// are reported in the BatchResult. When ctx is cancelled the remaining files
// are recorded as failed and the accumulated descriptors are still registered;
// a file already in progress is finished first.
func (s *Service) UploadBatch(ctx context.Context, datasetPID, directory string, records []models.FileRecord) (models.BatchResult, error) {
	if datasetPID == "" {
		return models.BatchResult{}, fmt.Errorf("%w: dataset persistent identifier is required", common.ErrInvalidBatch)
	}
	if len(records) == 0 {
		return models.BatchResult{}, fmt.Errorf("%w: no files to upload", common.ErrInvalidBatch)
	}

	runID := s.newRunID()
	log := s.logger.With("run_id", runID, "dataset", datasetPID)
	log.Info(ctx, "starting batch", "files", len(records), "directory", directory, "retries", s.retries)

	var (
		errs        []string
		descriptors []models.FileDescriptor
		outcomes    = make([]models.UploadOutcome, 0, len(records))
	)

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			errs = append(errs, FailureMessage(rec.FileName))
			outcomes = append(outcomes, models.UploadOutcome{FileName: rec.FileName, Err: fmt.Errorf("batch cancelled: %w", err)})
			s.recorder.FileFailed()
			continue
		}

		log.Info(ctx, "uploading file", "directory", directory, "file", rec.FileName,
			"description", rec.Description, "mime_type", rec.MimeType)

		desc, err := s.UploadFile(ctx, datasetPID, directory, rec.FileName, rec.MimeType, s.retries)
		if err != nil {
			msg := FailureMessage(rec.FileName)
			log.Warn(ctx, msg, "err", err)
			errs = append(errs, msg)
			outcome := models.UploadOutcome{FileName: rec.FileName, Err: err}
			var stored *StoredObjectError
			if errors.As(err, &stored) {
				outcome.StorageIdentifier = stored.StorageIdentifier
				outcome.FileSize = stored.Size
			}
			outcomes = append(outcomes, outcome)
			s.recorder.FileFailed()
			continue
		}

		d := desc.WithRecordMetadata(rec)
		descriptors = append(descriptors, d)
		outcomes = append(outcomes, models.UploadOutcome{FileName: rec.FileName, Descriptor: &d})
		s.recorder.FileUploaded(d.FileSize)
	}

	// Registration runs even after cancellation so stored objects are not
	// left unregistered; the client's request timeout still bounds it.
	finalized, finalizeErr := s.client.AddFiles(context.WithoutCancel(ctx), datasetPID, descriptors)
	s.recorder.BatchFinalized(finalized)
	if finalizeErr != nil {
		log.Error(ctx, "finalize failed", "err", finalizeErr, "descriptors", len(descriptors))
	}

	result := models.NewBatchResult(runID, datasetPID, outcomes, descriptors, errs, finalized, finalizeErr)
	log.Info(ctx, "batch finished", "uploaded", len(result.Descriptors), "failed", len(result.Errors),
		"finalized", result.Finalized, "bytes", result.BytesUploaded())

	return result, nil
}
