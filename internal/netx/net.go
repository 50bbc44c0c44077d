// Package netx performs the object-store leg of a direct upload: a single PUT
// of the whole file to a pre-authorized URL.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/dvcurate/internal/common"
)

// maxErrorBody caps how much of a failed response is echoed into the error.
const maxErrorBody = 4 << 10

// Putter writes objects to pre-authorized URLs.
type Putter struct {
	client *http.Client
}

// NewPutter returns a Putter using client, or a fresh http.Client when nil.
func NewPutter(client *http.Client) *Putter {
	if client == nil {
		client = &http.Client{}
	}
	return &Putter{client: client}
}

// PutObject streams size bytes from body to url, tagging the object as
// temporary until the repository registers it. Only HTTP 200 counts as
// success; every failure wraps common.ErrTransfer.
func (p *Putter) PutObject(ctx context.Context, url string, body io.Reader, size int64) error {
	// A zero length with a non-nil body would be sent chunked.
	if size == 0 {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrTransfer, err)
	}
	req.ContentLength = size
	req.Header.Set(common.TempTaggingHeader, common.TempTaggingValue)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrTransfer, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: upload failed: %s; body: %s", common.ErrTransfer, resp.Status, string(b))
	}
	return nil
}
