package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/dvcurate/internal/common"
	"github.com/dmitrijs2005/dvcurate/internal/dataverse"
	"github.com/dmitrijs2005/dvcurate/internal/models"
	"github.com/dmitrijs2005/dvcurate/internal/netx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func threeRecords() []models.FileRecord {
	return []models.FileRecord{
		{FileName: "p1.jpg", Description: "page 1", MimeType: "image/jpeg", Tags: []string{"Image"}},
		{FileName: "p2.jpg", Description: "page 2", MimeType: "image/jpeg", Tags: []string{"Image"}},
		{FileName: "p3.xml", Description: "alto 3", MimeType: "application/xml", Tags: []string{"ALTO"}},
	}
}

func fixedRunID() string { return "run-1" }

func TestUploadBatch_MiddleFileFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p1.jpg", "one")
	writeFile(t, dir, "p2.jpg", "two!")
	writeFile(t, dir, "p3.xml", "<three/>")

	mc := &mockClient{}
	mc.On("Negotiate", mock.Anything, pid, int64(3)).Return(success("http://store/1", "s3://b:1"))
	mc.On("Negotiate", mock.Anything, pid, int64(4)).Return(models.NegotiationResult{
		Status: models.NegotiationRetryable, Err: common.ErrTransientNegotiation,
	})
	mc.On("Negotiate", mock.Anything, pid, int64(8)).Return(success("http://store/3", "s3://b:3"))
	mc.On("AddFiles", mock.Anything, pid, mock.MatchedBy(func(d []models.FileDescriptor) bool {
		return len(d) == 2
	})).Return(true, nil).Once()

	putter := &fakePutter{}
	rec := newCountingRecorder()
	svc := NewService(mc, putter, nil, WithRetries(3), WithRecorder(rec), WithRunIDFunc(fixedRunID))

	res, err := svc.UploadBatch(context.Background(), pid, dir, threeRecords())
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.False(t, res.Succeeded)
	assert.True(t, res.Finalized)
	assert.Equal(t, []string{"Warning: Failed to upload: p2.jpg"}, res.Errors)

	require.Len(t, res.Descriptors, 2)
	assert.Equal(t, "p1.jpg", res.Descriptors[0].FileName)
	assert.Equal(t, "page 1", res.Descriptors[0].Description)
	assert.Equal(t, []string{"Image"}, res.Descriptors[0].Categories)
	assert.Equal(t, "p3.xml", res.Descriptors[1].FileName)
	assert.Equal(t, []string{"ALTO"}, res.Descriptors[1].Categories)

	require.Len(t, res.Outcomes, 3)
	assert.True(t, res.Outcomes[0].Succeeded())
	assert.False(t, res.Outcomes[1].Succeeded())
	assert.ErrorIs(t, res.Outcomes[1].Err, common.ErrRetryExhausted)
	assert.True(t, res.Outcomes[2].Succeeded())

	mc.AssertNumberOfCalls(t, "AddFiles", 1)
	mc.AssertNumberOfCalls(t, "Negotiate", 5)
	assert.Equal(t, []string{"http://store/1", "http://store/3"}, putter.calls)

	assert.Equal(t, 2, rec.uploaded)
	assert.Equal(t, int64(11), rec.bytes)
	assert.Equal(t, 1, rec.failed)
	assert.Equal(t, []bool{true}, rec.finalized)
	assert.Equal(t, int64(11), res.BytesUploaded())
}

func TestUploadBatch_AllFailStillFinalizesEmptyList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p1.jpg", "one")

	mc := &mockClient{}
	mc.On("Negotiate", mock.Anything, pid, mock.Anything).Return(models.NegotiationResult{
		Status: models.NegotiationFatal, Err: common.ErrUnsupportedTicket,
	})
	mc.On("AddFiles", mock.Anything, pid, mock.MatchedBy(func(d []models.FileDescriptor) bool {
		return len(d) == 0
	})).Return(true, nil).Once()

	svc := NewService(mc, &fakePutter{}, nil)
	res, err := svc.UploadBatch(context.Background(), pid, dir, []models.FileRecord{
		{FileName: "p1.jpg"}, {FileName: "missing.jpg"},
	})
	require.NoError(t, err)

	assert.False(t, res.Succeeded)
	assert.True(t, res.Finalized)
	assert.Empty(t, res.Descriptors)
	assert.NotNil(t, res.Descriptors)
	assert.Equal(t, []string{
		"Warning: Failed to upload: p1.jpg",
		"Warning: Failed to upload: missing.jpg",
	}, res.Errors)
	mc.AssertNumberOfCalls(t, "AddFiles", 1)
}

func TestUploadBatch_FinalizeFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p1.jpg", "one")

	finalizeErr := fmt.Errorf("%w: status 500", common.ErrFinalize)
	mc := &mockClient{}
	mc.On("Negotiate", mock.Anything, pid, int64(3)).Return(success("http://store/1", "s3://b:1"))
	mc.On("AddFiles", mock.Anything, pid, mock.Anything).Return(false, finalizeErr).Once()

	rec := newCountingRecorder()
	svc := NewService(mc, &fakePutter{}, nil, WithRecorder(rec))
	res, err := svc.UploadBatch(context.Background(), pid, dir, []models.FileRecord{{FileName: "p1.jpg"}})
	require.NoError(t, err)

	assert.True(t, res.Succeeded)
	assert.False(t, res.Finalized)
	assert.ErrorIs(t, res.FinalizeErr, common.ErrFinalize)
	assert.Len(t, res.Descriptors, 1)
	assert.Equal(t, []bool{false}, rec.finalized)
	mc.AssertNumberOfCalls(t, "AddFiles", 1)
}

func TestUploadBatch_InvalidInput(t *testing.T) {
	mc := &mockClient{}
	svc := NewService(mc, &fakePutter{}, nil)

	_, err := svc.UploadBatch(context.Background(), "", t.TempDir(), threeRecords())
	require.ErrorIs(t, err, common.ErrInvalidBatch)

	_, err = svc.UploadBatch(context.Background(), pid, t.TempDir(), nil)
	require.ErrorIs(t, err, common.ErrInvalidBatch)

	mc.AssertNotCalled(t, "Negotiate", mock.Anything, mock.Anything, mock.Anything)
	mc.AssertNotCalled(t, "AddFiles", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadBatch_CancellationBetweenFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p1.jpg", "one")
	writeFile(t, dir, "p2.jpg", "two!")
	writeFile(t, dir, "p3.xml", "<three/>")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var finalizeCtxErr error
	mc := &mockClient{}
	mc.On("Negotiate", mock.Anything, pid, int64(3)).Return(success("http://store/1", "s3://b:1"))
	mc.On("AddFiles", mock.Anything, pid, mock.MatchedBy(func(d []models.FileDescriptor) bool {
		return len(d) == 1 && d[0].FileName == "p1.jpg"
	})).Run(func(args mock.Arguments) {
		finalizeCtxErr = args.Get(0).(context.Context).Err()
	}).Return(true, nil).Once()

	// The first PUT succeeds and then the caller cancels.
	putter := &fakePutter{onPut: cancel}
	svc := NewService(mc, putter, nil)

	res, err := svc.UploadBatch(ctx, pid, dir, threeRecords())
	require.NoError(t, err)

	assert.Len(t, res.Descriptors, 1)
	assert.Equal(t, []string{
		"Warning: Failed to upload: p2.jpg",
		"Warning: Failed to upload: p3.xml",
	}, res.Errors)
	assert.True(t, errors.Is(res.Outcomes[1].Err, context.Canceled))
	assert.True(t, res.Finalized)
	assert.NoError(t, finalizeCtxErr)
	require.Len(t, putter.ctxErrs, 1)
	assert.NoError(t, putter.ctxErrs[0], "the PUT in flight must not see the cancellation")
	mc.AssertNumberOfCalls(t, "Negotiate", 1)
	mc.AssertNumberOfCalls(t, "AddFiles", 1)
}

func TestUploadBatch_DigestFailureKeepsStorageIdentifier(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p1.jpg", "one")

	mc := &mockClient{}
	mc.On("Negotiate", mock.Anything, pid, int64(3)).Return(success("http://store/1", "s3://b:1"))
	mc.On("AddFiles", mock.Anything, pid, mock.MatchedBy(func(d []models.FileDescriptor) bool {
		return len(d) == 0
	})).Return(true, nil).Once()
	putter := &fakePutter{onPut: func() {
		_ = os.Remove(filepath.Join(dir, "p1.jpg"))
	}}

	svc := NewService(mc, putter, nil)
	res, err := svc.UploadBatch(context.Background(), pid, dir, []models.FileRecord{{FileName: "p1.jpg"}})
	require.NoError(t, err)

	require.Len(t, res.Outcomes, 1)
	o := res.Outcomes[0]
	assert.False(t, o.Succeeded())
	assert.Equal(t, "s3://b:1", o.StorageIdentifier)
	assert.Equal(t, int64(3), o.FileSize)
	assert.Equal(t, []string{"Warning: Failed to upload: p1.jpg"}, res.Errors)
}

// End-to-end against a fake repository and object store speaking HTTP.
func TestUploadBatch_HTTP_RegistersWhatWasStored(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p1.jpg", "one")
	writeFile(t, dir, "p2.jpg", "two!")
	writeFile(t, dir, "p3.xml", "<three/>")

	var (
		mu       sync.Mutex
		tickets  int
		addCalls int
		payload  []models.FileDescriptor
		tagging  []string
	)

	var ts *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/api/datasets/:persistentId/uploadurls", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		tickets++
		n := tickets
		mu.Unlock()
		// p2.jpg (4 bytes) never gets a ticket.
		if r.URL.Query().Get("size") == "4" {
			_, _ = w.Write([]byte(`{"status":"OK"}`))
			return
		}
		fmt.Fprintf(w, `{"data":{"url":"%s/store/%d","storageIdentifier":"s3://bucket:%d","partSize":1024}}`, ts.URL, n, n)
	})
	mux.HandleFunc("/store/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		tagging = append(tagging, r.Header.Get(common.TempTaggingHeader))
		mu.Unlock()
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/datasets/:persistentId/addFiles", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		addCalls++
		mu.Unlock()
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mr := multipart.NewReader(r.Body, params["boundary"])
		part, err := mr.NextPart()
		if err != nil || part.FormName() != "jsonData" {
			http.Error(w, "missing jsonData", http.StatusBadRequest)
			return
		}
		if err := json.NewDecoder(part).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	ts = httptest.NewServer(mux)
	defer ts.Close()

	client := dataverse.NewHTTPClient(ts.URL, "secret", ts.Client(), 0, nil)
	svc := NewService(client, netx.NewPutter(ts.Client()), nil, WithRetries(2))

	res, err := svc.UploadBatch(context.Background(), pid, "/"+strings.TrimLeft(dir, "/"), threeRecords())
	require.NoError(t, err)

	assert.False(t, res.Succeeded)
	assert.True(t, res.Finalized)
	assert.Equal(t, []string{"Warning: Failed to upload: p2.jpg"}, res.Errors)
	assert.Equal(t, 1, addCalls)
	assert.Equal(t, 4, tickets)
	assert.Equal(t, []string{common.TempTaggingValue, common.TempTaggingValue}, tagging)

	require.Len(t, payload, 2)
	assert.Equal(t, "p1.jpg", payload[0].FileName)
	assert.Equal(t, "p3.xml", payload[1].FileName)
	assert.NotEqual(t, payload[0].StorageIdentifier, payload[1].StorageIdentifier)
	for _, d := range payload {
		assert.False(t, strings.HasPrefix(d.DirectoryLabel, "/"))
		assert.Len(t, d.MD5Hash, 32)
	}
	assert.Equal(t, "page 1", payload[0].Description)
	assert.Equal(t, []string{"ALTO"}, payload[1].Categories)
}
