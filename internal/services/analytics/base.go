package analytics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	xhttp "TrendCast/pkg/http"
)

var errNotConfigured = errors.New("analytics service url not configured")

// httpServiceBase holds the base URL and client shared by analytics HTTP collaborators.
type httpServiceBase struct {
	baseURL string
	client  *xhttp.Client
}

func newHTTPServiceBase(baseURL string, client *xhttp.Client) httpServiceBase {
	return httpServiceBase{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// postJSON posts payload to path under baseURL and decodes the JSON answer into dest.
func (b httpServiceBase) postJSON(ctx context.Context, path string, payload, dest any) error {
	if b.client == nil || b.baseURL == "" {
		return errNotConfigured
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: http.MethodPost,
		URL:    b.baseURL + path,
		Body:   payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

// postJSONWithRetry retries transport failures and temporary statuses with linear backoff.
func (b httpServiceBase) postJSONWithRetry(ctx context.Context, path string, payload, dest any, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		if err = b.postJSON(ctx, path, payload, dest); err == nil || !retryable(err) || i == attempts {
			return err
		}
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func retryable(err error) bool {
	if errors.Is(err, errNotConfigured) || errors.Is(err, context.Canceled) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}
