package plancheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/swingiq/internal/domain/model"
	"github.com/okian/swingiq/internal/domain/types"
)

const idempotencyHeader = "Idempotency-Key"

// Client is a thin JSON client for the plan API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Health checks /healthz.
func (c *Client) Health(ctx context.Context) error {
	status, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

// Players lists catalog players, optionally filtered by group.
func (c *Client) Players(ctx context.Context, group string) ([]model.Player, error) {
	path := "/api/v1/players"
	if group != "" {
		path += "?group=" + url.QueryEscape(group)
	}
	var players []model.Player
	if err := c.expect(ctx, http.MethodGet, path, nil, nil, &players, http.StatusOK); err != nil {
		return nil, err
	}
	return players, nil
}

// Plan fetches the current plan for a player.
func (c *Client) Plan(ctx context.Context, playerID string) (types.PlanView, error) {
	var view types.PlanView
	err := c.expect(ctx, http.MethodGet, "/api/v1/players/"+url.PathEscape(playerID)+"/plan", nil, nil, &view, http.StatusOK)
	return view, err
}

// Reanalyze runs a synchronous re-analysis and returns the new plan.
func (c *Client) Reanalyze(ctx context.Context, playerID string) (types.PlanView, error) {
	var view types.PlanView
	path := "/api/v1/players/" + url.PathEscape(playerID) + "/plan/reanalyze?sync=true"
	err := c.expect(ctx, http.MethodPost, path, nil, nil, &view, http.StatusOK)
	return view, err
}

// AddNote posts a note and returns the answer plus the HTTP status, which
// distinguishes a new note (201) from a duplicate (200).
func (c *Client) AddNote(ctx context.Context, playerID, author, text, key string) (types.NoteAck, int, error) {
	var ack types.NoteAck
	headers := map[string]string{}
	if key != "" {
		headers[idempotencyHeader] = key
	}
	body := map[string]string{"author": author, "text": text}
	status, err := c.do(ctx, http.MethodPost, "/api/v1/players/"+url.PathEscape(playerID)+"/notes", headers, body, &ack)
	if err != nil {
		return ack, status, err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return ack, status, fmt.Errorf("add note: unexpected status %d", status)
	}
	return ack, status, nil
}

func (c *Client) expect(ctx context.Context, method, path string, headers map[string]string, body, out any, want int) error {
	status, err := c.do(ctx, method, path, headers, body, out)
	if err != nil {
		return err
	}
	if status != want {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, status)
	}
	return nil
}

// do performs the request and decodes a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil || resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return resp.StatusCode, nil
}
