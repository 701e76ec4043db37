package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/emsuite/internal/common"
)

// NewDefaultHTTPClient creates a simple HTTP client with a timeout
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// WaitForService polls url until it answers 200 OK or timeout elapses. The
// last failure is returned when the service never became ready.
func WaitForService(ctx context.Context, url string, timeout, interval time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client := NewDefaultHTTPClient(2 * time.Second)

	err := common.Poll(timeout, interval, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("service at %s did not become ready within %s: %w", url, timeout, err)
	}
	return nil
}
