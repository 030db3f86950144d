package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultClient is a shared HTTP client with sensible defaults
var DefaultClient = &http.Client{
	Timeout: 15 * time.Second,
}

// NewClient returns a client with the given overall timeout.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		return DefaultClient
	}
	return &http.Client{Timeout: timeout}
}

// StatusError describes a non-200 response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("provider returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}

// Get performs an HTTP GET request with context whatever the status code.
func Get(ctx context.Context, apiURL string, client *http.Client) (*http.Response, error) {
	if client == nil {
		client = DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch results: %w", err)
	}
	return resp, nil
}

// BuildQueryURL builds a URL with query parameters
func BuildQueryURL(baseURL string, params url.Values) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ReadResponseBody reads the entire response body (useful for error messages)
func ReadResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// ErrEmptyBody is returned by DecodeJSONResponse when the provider sent nothing.
var ErrEmptyBody = errors.New("empty response body")

// DecodeJSONResponse decodes a JSON response from an HTTP response body
func DecodeJSONResponse(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
