package queryapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const peoplePath = "/api/people"

// TokenSource supplies the bearer token attached to each query.
type TokenSource interface {
	ServiceToken() (string, error)
}

// StatusError reports a non-2xx answer from the query API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("query api responded %d: %s", e.StatusCode, e.Body)
}

// Client queries a people API over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// NewClient builds a client for the API rooted at baseURL. A nil token
// source sends unauthenticated requests.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

// Query issues GET /api/people with the request parameters.
func (c *Client) Query(ctx context.Context, req Request) (Page, error) {
	endpoint := c.baseURL + peoplePath + "?" + req.Values().Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Page{}, fmt.Errorf("build query request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		token, err := c.tokens.ServiceToken()
		if err != nil {
			return Page{}, fmt.Errorf("issue service token: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Page{}, fmt.Errorf("query people: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Page{}, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return Page{}, fmt.Errorf("decode people page: %w", err)
	}
	return page, nil
}
