package dataverse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/dvcurate/internal/common"
	"github.com/dmitrijs2005/dvcurate/internal/logging"
	"github.com/dmitrijs2005/dvcurate/internal/models"
)

const (
	uploadURLsPath = "/api/datasets/:persistentId/uploadurls"
	addFilesPath   = "/api/datasets/:persistentId/addFiles"

	// jsonDataField is the multipart field the addFiles endpoint reads.
	jsonDataField = "jsonData"

	maxErrorBody = 4 << 10
)

// HTTPClient talks to the repository's native API over HTTP.
type HTTPClient struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	requestTimeout time.Duration
	logger         logging.Logger
}

// NewHTTPClient returns a client for the repository at baseURL. A zero
// requestTimeout leaves deadlines to the caller's context.
func NewHTTPClient(baseURL, apiKey string, httpClient *http.Client, requestTimeout time.Duration, logger logging.Logger) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &HTTPClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		httpClient:     httpClient,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
}

type uploadURLsResponse struct {
	Status string          `json:"status"`
	Data   *uploadURLsData `json:"data"`
}

type uploadURLsData struct {
	URL               *string `json:"url"`
	StorageIdentifier *string `json:"storageIdentifier"`
	PartSize          *int64  `json:"partSize"`
}

func (c *HTTPClient) endpoint(path string, query url.Values) string {
	return c.baseURL + path + "?" + query.Encode()
}

func (c *HTTPClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.requestTimeout)
}

func retryable(format string, args ...any) models.NegotiationResult {
	return models.NegotiationResult{
		Status: models.NegotiationRetryable,
		Err:    fmt.Errorf("%w: "+format, append([]any{common.ErrTransientNegotiation}, args...)...),
	}
}

func (c *HTTPClient) Negotiate(ctx context.Context, datasetPID string, size int64) models.NegotiationResult {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	q := url.Values{}
	q.Set("persistentId", datasetPID)
	q.Set("key", c.apiKey)
	q.Set("size", strconv.FormatInt(size, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(uploadURLsPath, q), nil)
	if err != nil {
		return models.NegotiationResult{Status: models.NegotiationFatal, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retryable("%v", redact(err, c.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return retryable("received return code %d", resp.StatusCode)
	}

	var body uploadURLsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return retryable("decode response: %v", err)
	}
	if body.Data == nil {
		return retryable("invalid response (no data)")
	}

	// Multi-part tickets carry "urls" instead of "url"; they are not supported.
	if body.Data.URL == nil || body.Data.StorageIdentifier == nil {
		return models.NegotiationResult{Status: models.NegotiationFatal, Err: common.ErrUnsupportedTicket}
	}

	ticket := &models.UploadTicket{
		UploadURL:         *body.Data.URL,
		StorageIdentifier: *body.Data.StorageIdentifier,
	}
	if body.Data.PartSize != nil {
		ticket.MaxPartSize = *body.Data.PartSize
	}

	c.logger.Debug(ctx, "upload ticket issued",
		"storage_id", ticket.StorageIdentifier, "part_size", ticket.MaxPartSize, "size", size)

	return models.NegotiationResult{Status: models.NegotiationSuccess, Ticket: ticket}
}

// encodeDescriptors renders the addFiles payload. A nil slice is sent as an
// empty JSON array.
func encodeDescriptors(descriptors []models.FileDescriptor) ([]byte, error) {
	if descriptors == nil {
		descriptors = []models.FileDescriptor{}
	}
	return json.Marshal(descriptors)
}

func (c *HTTPClient) AddFiles(ctx context.Context, datasetPID string, descriptors []models.FileDescriptor) (bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	payload, err := encodeDescriptors(descriptors)
	if err != nil {
		return false, fmt.Errorf("%w: encode descriptors: %v", common.ErrFinalize, err)
	}

	// The endpoint only accepts multipart bodies, even without file parts.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField(jsonDataField, string(payload)); err != nil {
		return false, fmt.Errorf("%w: %v", common.ErrFinalize, err)
	}
	if err := mw.Close(); err != nil {
		return false, fmt.Errorf("%w: %v", common.ErrFinalize, err)
	}

	q := url.Values{}
	q.Set("persistentId", datasetPID)
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(addFilesPath, q), &buf)
	if err != nil {
		return false, fmt.Errorf("%w: build request: %v", common.ErrFinalize, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", common.ErrFinalize, redact(err, c.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return false, fmt.Errorf("%w: /addFiles call failed. Return code: %d; body: %s", common.ErrFinalize, resp.StatusCode, string(b))
	}

	c.logger.Debug(ctx, "files registered", "dataset", datasetPID, "count", len(descriptors))
	return true, nil
}

// redact strips the API key from transport errors, which echo the request URL.
func redact(err error, key string) string {
	msg := err.Error()
	if key == "" {
		return msg
	}
	return strings.ReplaceAll(msg, url.QueryEscape(key), "REDACTED")
}
