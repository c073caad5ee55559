package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultClientTimeout is the default timeout for lookup requests.
const DefaultClientTimeout = 10 * time.Second

// NextResponse is the body of GET /tasks/next.
type NextResponse struct {
	Next *Candidate `json:"next"`
}

// Client fetches the next task from a running lookup service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: DefaultClientTimeout},
	}
}

func (c *Client) Next(ctx context.Context) (*Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/tasks/next", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("lookup error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out NextResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode next task: %w", err)
	}
	return out.Next, nil
}
