package source

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPSource fetches the product list as a JSON array from a URL.
type HTTPSource struct {
	url    string
	client *http.Client
}

type HTTPOption func(*HTTPSource)

// WithHTTPClient replaces the default instrumented client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if c != nil {
			s.client = c
		}
	}
}

func NewHTTPSource(url string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		url:    url,
		client: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HTTPSource) Name() string { return "http" }

func (s *HTTPSource) Fetch(ctx context.Context) ([]catalog.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("source: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source: get %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("source: get %s: unexpected status %d", s.url, resp.StatusCode)
	}

	products, err := decodeProducts(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	return products, nil
}
