package upload

import (
	"context"
	"io"
	"sync"

	"github.com/dmitrijs2005/dvcurate/internal/models"
	"github.com/stretchr/testify/mock"
)

// mockClient is a testify mock of dataverse.Client.
type mockClient struct {
	mock.Mock
}

func (m *mockClient) Negotiate(ctx context.Context, datasetPID string, size int64) models.NegotiationResult {
	args := m.Called(ctx, datasetPID, size)
	return args.Get(0).(models.NegotiationResult)
}

func (m *mockClient) AddFiles(ctx context.Context, datasetPID string, descriptors []models.FileDescriptor) (bool, error) {
	args := m.Called(ctx, datasetPID, descriptors)
	return args.Bool(0), args.Error(1)
}

// fakePutter records PUTs and returns err (or errFor[url]) for each call.
type fakePutter struct {
	mu      sync.Mutex
	calls   []string
	bodies  [][]byte
	ctxErrs []error
	err     error
	errFor  map[string]error
	onPut   func()
}

func (p *fakePutter) PutObject(ctx context.Context, url string, body io.Reader, size int64) error {
	b, _ := io.ReadAll(body)
	// onPut runs first so ctxErrs shows whether a cancellation it triggers
	// reaches the transfer.
	if p.onPut != nil {
		p.onPut()
	}
	p.mu.Lock()
	p.calls = append(p.calls, url)
	p.bodies = append(p.bodies, b)
	p.ctxErrs = append(p.ctxErrs, ctx.Err())
	p.mu.Unlock()
	if e, ok := p.errFor[url]; ok {
		return e
	}
	return p.err
}

// countingRecorder counts pipeline events.
type countingRecorder struct {
	attempts  map[models.NegotiationStatus]int
	uploaded  int
	bytes     int64
	failed    int
	finalized []bool
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{attempts: map[models.NegotiationStatus]int{}}
}

func (r *countingRecorder) NegotiationAttempt(s models.NegotiationStatus) { r.attempts[s]++ }
func (r *countingRecorder) FileUploaded(n int64)                          { r.uploaded++; r.bytes += n }
func (r *countingRecorder) FileFailed()                                   { r.failed++ }
func (r *countingRecorder) BatchFinalized(ok bool)                        { r.finalized = append(r.finalized, ok) }

func success(url, storageID string) models.NegotiationResult {
	return models.NegotiationResult{
		Status: models.NegotiationSuccess,
		Ticket: &models.UploadTicket{UploadURL: url, StorageIdentifier: storageID},
	}
}
