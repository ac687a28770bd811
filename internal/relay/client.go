package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/ariefcatur/go-retail-gudang/internal/apperr"
	"github.com/google/uuid"
)

const (
	// maxResponseSize bounds supplier response reads.
	maxResponseSize int64 = 4 << 20
	// maxErrorBody is how much of a non-2xx body is kept in the error.
	maxErrorBody = 2048
)

// Client makes outbound calls to supplier endpoints. Every failure is an
// apperr upstream error carrying its reason: timeout, connection, status
// or decode.
type Client struct {
	HTTP     *http.Client
	RetailID string
}

func NewClient(timeout time.Duration, retailID string) *Client {
	return &Client{HTTP: &http.Client{Timeout: timeout}, RetailID: retailID}
}

// Do sends body (JSON encoded when non-nil) and returns the raw 2xx body.
func (c *Client) Do(ctx context.Context, method, url string, body any) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("encode relay body: %w", err))
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("build relay request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.RetailID != "" {
		req.Header.Set("X-Retail-Id", c.RetailID)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, classify(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return nil, apperr.Upstream(apperr.ReasonStatus, resp.StatusCode, string(data),
			fmt.Errorf("%s %s: HTTP %d", method, url, resp.StatusCode))
	}
	return data, nil
}

// classify splits transport failures into timeout and connection errors.
func classify(err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return apperr.Upstream(apperr.ReasonTimeout, 0, "", err)
	}
	return apperr.Upstream(apperr.ReasonConnection, 0, "", err)
}

func decodeError(err error) error {
	return apperr.Upstream(apperr.ReasonDecode, 0, "", err)
}
