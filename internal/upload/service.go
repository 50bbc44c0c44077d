package upload

import (
	"context"
	"io"
	"time"

	"github.com/dmitrijs2005/dvcurate/internal/common"
	"github.com/dmitrijs2005/dvcurate/internal/dataverse"
	"github.com/dmitrijs2005/dvcurate/internal/logging"
	"github.com/google/uuid"
)

// ObjectPutter writes one object to a pre-authorized URL.
type ObjectPutter interface {
	PutObject(ctx context.Context, url string, body io.Reader, size int64) error
}

// Service uploads files into a dataset through a repository client and an
// object store putter.
type Service struct {
	client   dataverse.Client
	putter   ObjectPutter
	logger   logging.Logger
	recorder Recorder

	retries         int
	retryDelay      time.Duration
	transferTimeout time.Duration
	newRunID        func() string
}

// Option configures a Service.
type Option func(*Service)

// WithRetries sets the per-file negotiation budget.
func WithRetries(n int) Option {
	return func(s *Service) { s.retries = n }
}

// WithRetryDelay sets the pause between negotiation attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Service) { s.retryDelay = d }
}

// WithTransferTimeout bounds each object-store PUT.
func WithTransferTimeout(d time.Duration) Option {
	return func(s *Service) { s.transferTimeout = d }
}

// WithRecorder sends pipeline events to r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithRunIDFunc replaces the batch run id generator.
func WithRunIDFunc(fn func() string) Option {
	return func(s *Service) { s.newRunID = fn }
}

// NewService returns a Service with the default retry budget and no delay.
// A nil logger discards output.
func NewService(client dataverse.Client, putter ObjectPutter, logger logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Service{
		client:   client,
		putter:   putter,
		logger:   logger,
		recorder: nopRecorder{},
		retries:  common.DefaultRetries,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) pause(ctx context.Context) {
	if s.retryDelay <= 0 {
		return
	}
	t := time.NewTimer(s.retryDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
