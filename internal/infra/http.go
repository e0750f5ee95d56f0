// Package infra provides shared infrastructure components used across
// the application: HTTP utilities, rate limiting, and background task
// supervision.
package infra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// defaultClient is the shared HTTP client for provider adapters.
var defaultClient = &http.Client{Timeout: 30 * time.Second}

// browserUserAgent avoids trivial bot blocking on the public fund endpoints.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// DoGet performs a GET request with context and returns the response body.
// The caller must close the returned body.
func DoGet(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := defaultClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, resp.StatusCode, fmt.Errorf("GET %s: HTTP %d: %s", url, resp.StatusCode, string(body))
	}
	return resp.Body, resp.StatusCode, nil
}

// GetBody performs a GET request and returns the full response body as a string.
func GetBody(ctx context.Context, url string, headers map[string]string) (string, error) {
	body, _, err := DoGet(ctx, url, headers)
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, 32<<20))
	if err != nil {
		return "", fmt.Errorf("GET %s: read body: %w", url, err)
	}
	return string(data), nil
}

// DoPost performs a POST request with a JSON body and returns the response
// body. The caller must close the returned body.
func DoPost(ctx context.Context, url string, jsonBody string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := defaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("POST %s: HTTP %d: %s", url, resp.StatusCode, string(body))
	}
	return resp.Body, nil
}
