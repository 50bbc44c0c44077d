package upload

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/dvcurate/internal/common"
	"github.com/dmitrijs2005/dvcurate/internal/filex"
	"github.com/dmitrijs2005/dvcurate/internal/models"
)

// StoredObjectError reports a file whose object was written to the store but
// could not be described, so it will never be registered.
type StoredObjectError struct {
	FileName          string
	StorageIdentifier string
	Size              int64
	Err               error
}

func (e *StoredObjectError) Error() string {
	return fmt.Sprintf("%s stored as %s but not described: %v", e.FileName, e.StorageIdentifier, e.Err)
}

func (e *StoredObjectError) Unwrap() error {
	return e.Err
}

// UploadFile moves one local file into the store behind datasetPID and
// returns its descriptor. retries bounds the number of negotiation attempts.
//
// Once started, a file runs to completion: cancelling ctx does not interrupt
// negotiation or the PUT, which are bounded by the request and transfer
// timeouts instead. Batches observe cancellation between files.
//
// The returned error wraps common.ErrUnsupportedTicket, common.ErrTransfer or
// common.ErrRetryExhausted, is a *StoredObjectError, or reports a local file
// problem.
func (s *Service) UploadFile(ctx context.Context, datasetPID, directory, fileName, mimeType string, retries int) (*models.FileDescriptor, error) {
	ctx = context.WithoutCancel(ctx)

	path := filex.ResolvePath(directory, fileName)
	size, err := filex.Size(path)
	if err != nil {
		return nil, err
	}

	log := s.logger.With("file", fileName, "size", size)

	retriesRemaining := retries
	var lastErr error
	for retriesRemaining > 0 {
		res := s.client.Negotiate(ctx, datasetPID, size)
		s.recorder.NegotiationAttempt(res.Status)

		switch res.Status {
		case models.NegotiationFatal:
			log.Warn(ctx, "no usable upload ticket, giving up", "err", res.Err)
			return nil, res.Err
		case models.NegotiationRetryable:
			retriesRemaining--
			lastErr = res.Err
			log.Warn(ctx, "negotiation failed, retrying", "err", res.Err, "retries_remaining", retriesRemaining)
			if retriesRemaining > 0 {
				s.pause(ctx)
			}
			continue
		}

		return s.transfer(ctx, path, size, directory, fileName, mimeType, res.Ticket)
	}

	if lastErr == nil {
		return nil, fmt.Errorf("%w: budget of %d attempts", common.ErrRetryExhausted, retries)
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", common.ErrRetryExhausted, retries, lastErr)
}

// transfer PUTs the file to the ticket URL, then digests it with a second
// read. A failed PUT is final: the ticket is not reused.
func (s *Service) transfer(ctx context.Context, path string, size int64, directory, fileName, mimeType string, ticket *models.UploadTicket) (*models.FileDescriptor, error) {
	if ticket.MaxPartSize > 0 && size > ticket.MaxPartSize {
		s.logger.Warn(ctx, "file exceeds advertised part size, attempting single PUT",
			"file", fileName, "size", size, "part_size", ticket.MaxPartSize)
	}

	if err := s.put(ctx, path, size, ticket.UploadURL); err != nil {
		s.logger.Warn(ctx, "direct upload to object store failed (giving up)", "file", fileName, "err", err)
		return nil, err
	}

	digest, err := filex.MD5File(path)
	if err != nil {
		return nil, &StoredObjectError{
			FileName:          fileName,
			StorageIdentifier: ticket.StorageIdentifier,
			Size:              size,
			Err:               fmt.Errorf("digest: %w", err),
		}
	}

	desc := &models.FileDescriptor{
		StorageIdentifier: ticket.StorageIdentifier,
		FileName:          fileName,
		MimeType:          mimeType,
		MD5Hash:           digest,
		FileSize:          size,
		DirectoryLabel:    strings.TrimLeft(directory, "/"),
	}
	return desc, nil
}

func (s *Service) put(ctx context.Context, path string, size int64, url string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", common.ErrTransfer, path, err)
	}
	defer f.Close()

	if s.transferTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.transferTimeout)
		defer cancel()
	}

	return s.putter.PutObject(ctx, url, f, size)
}
