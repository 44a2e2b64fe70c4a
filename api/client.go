// Package api is the HTTP client for the hosted wisp services: action
// discovery and invocation on the agent side, metadata updates and
// transaction creation on the toolkit side.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/danmuck/wisp/config"
	"github.com/danmuck/wisp/internal/logging"
)

// DefaultCallTimeout bounds CallAction when the caller's context carries
// no earlier deadline. Remote actions may do real work; this stays long.
const DefaultCallTimeout = 50 * time.Second

var ErrRequestFailed = errors.New("api: request failed")

// Client talks to the wisp HTTP services. Safe for concurrent use.
type Client struct {
	cfg  config.Config
	http *http.Client
}

// NewClient validates cfg (after defaults and env overlay) and returns a
// ready client. The API key is sent raw in the Authorization header.
func NewClient(cfg config.Config) (*Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{},
	}, nil
}

// ToolkitInfo is a toolkit's public display metadata.
type ToolkitInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TransactionRequest opens a transaction for one action call. This
// endpoint spells its identifiers agentId/actionId, unlike the WS layer.
type TransactionRequest struct {
	AgentID    uint64 `json:"agentId"`
	ActionID   uint64 `json:"actionId"`
	ActionName string `json:"actionName"`
	Type       string `json:"type"`
	Payload    any    `json:"payload"`
}

// SearchActions queries the action catalog. limit <= 0 leaves the result
// size to the backend default.
func (c *Client) SearchActions(ctx context.Context, query string, limit int) (json.RawMessage, error) {
	u, err := url.Parse(c.cfg.Endpoints.BackendAPI + "/actions/search")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("query", query)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	u.RawQuery = q.Encode()
	return c.do(ctx, http.MethodGet, u.String(), nil)
}

type callActionBody struct {
	Action  string  `json:"action"`
	Payload any     `json:"payload"`
	Payment *uint64 `json:"payment"`
}

// CallAction invokes one action through the backend and returns the raw
// response body. payload may be a structured value or a string of
// encoded JSON; the backend forwards it either way.
func (c *Client) CallAction(ctx context.Context, action string, payload any, payment *uint64) (json.RawMessage, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCallTimeout)
		defer cancel()
	}
	body := callActionBody{Action: action, Payload: payload, Payment: payment}
	return c.do(ctx, http.MethodPost, c.cfg.Endpoints.BackendAPI+"/actions/call", body)
}

// UpdateInfo publishes the toolkit's display name and description.
func (c *Client) UpdateInfo(ctx context.Context, info ToolkitInfo) error {
	// Route spelling includes the trailing slash; the backend 404s without it.
	_, err := c.do(ctx, http.MethodPost, c.cfg.Endpoints.FrontendAPI+"/toolkits/fields/", info)
	return err
}

// CreateTransaction opens a transaction for a paid action call and
// returns the backend's transaction record.
func (c *Client) CreateTransaction(ctx context.Context, req TransactionRequest) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, c.cfg.Endpoints.Transaction+"/tx/create", req)
}

func (c *Client) do(ctx context.Context, method, target string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.cfg.APIKey)
	req.Header.Set("X-Request-Id", uuid.NewString())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	logging.Debugf("api.Client.do method=%s url=%s status=%d dur=%s", method, target, resp.StatusCode, time.Since(start))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %s %s status=%d body=%q", ErrRequestFailed, method, target, resp.StatusCode, snippet(raw))
	}
	return json.RawMessage(raw), nil
}

func snippet(raw []byte) string {
	const max = 256
	if len(raw) <= max {
		return string(raw)
	}
	return string(raw[:max]) + "..."
}
