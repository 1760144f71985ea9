package devices

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-resty/resty/v2"
)

// Fetcher downloads the raw device catalog.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches the catalog with a plain GET request and no retries.
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher creates a fetcher with the given request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, errors.Wrap(err, "get")
	}

	if resp.IsError() {
		return nil, errors.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	return resp.Body(), nil
}
