// Package calendar is a minimal client for a user-connected calendar
// service. Each user's endpoint and credentials come from their integration
// row; there is no global calendar account.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Event is a calendar event as the remote service represents it.
type Event struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title"`
	StartAt string `json:"startAt"`
	EndAt   string `json:"endAt,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, errors.Wrap(err, "encode event")
	}
	created := &Event{}
	if err := c.do(ctx, http.MethodPost, "/events", bytes.NewReader(payload), created); err != nil {
		return nil, err
	}
	return created, nil
}

// ListEvents returns events between from and to, both RFC 3339.
func (c *Client) ListEvents(ctx context.Context, from, to string) ([]*Event, error) {
	path := fmt.Sprintf("/events?from=%s&to=%s", from, to)
	var events []*Event
	if err := c.do(ctx, http.MethodGet, path, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "build calendar request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "calendar request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("calendar returned %d: %s", resp.StatusCode, msg)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
