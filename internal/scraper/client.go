// Package scraper proxies the Apify actor API used for Google Maps and
// Instagram lead extraction.
package scraper

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
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the Apify REST API root.
const DefaultBaseURL = "https://api.apify.com/v2"

// Errors returned by the client.
var (
	ErrNotFound      = errors.New("apify resource not found")
	ErrInvalidInput  = errors.New("invalid scraper input")
	ErrNotConfigured = errors.New("apify api key not configured")
)

// Run statuses reported by Apify.
const (
	StatusReady     = "READY"
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusAborted   = "ABORTED"
	StatusTimedOut  = "TIMED-OUT"
)

// APIError is a non-2xx Apify response.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("apify: status %d", e.StatusCode)
	}
	return fmt.Sprintf("apify: status %d: %s", e.StatusCode, e.Message)
}

// Run is an actor run.
type Run struct {
	ID               string     `json:"id"`
	ActID            string     `json:"actId"`
	Status           string     `json:"status"`
	StartedAt        *time.Time `json:"startedAt,omitempty"`
	FinishedAt       *time.Time `json:"finishedAt,omitempty"`
	DefaultDatasetID string     `json:"defaultDatasetId"`
}

// Terminal reports whether the run has stopped.
func (r Run) Terminal() bool {
	switch r.Status {
	case StatusSucceeded, StatusFailed, StatusAborted, StatusTimedOut:
		return true
	}
	return false
}

// Config controls the Apify client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is a minimal Apify v2 client.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient builds a client. An empty BaseURL targets the public API.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.token != "" }

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("new apify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("apify %s %s: %w", method, path, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("failed to close apify response body", zap.Error(cerr))
		}
	}()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return fmt.Errorf("read apify response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(payload, &envelope) == nil {
			apiErr.Type = envelope.Error.Type
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode apify response: %w", err)
	}
	return nil
}

// StartRun starts actorID with input, which must be a JSON object.
func (c *Client) StartRun(ctx context.Context, actorID string, input json.RawMessage) (Run, error) {
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}
	var out struct {
		Data Run `json:"data"`
	}
	path := "/acts/" + url.PathEscape(actorID) + "/runs"
	if err := c.do(ctx, http.MethodPost, path, nil, input, &out); err != nil {
		return Run{}, err
	}
	c.logger.Info("apify run started", zap.String("actor_id", actorID), zap.String("run_id", out.Data.ID))
	return out.Data, nil
}

// GetRun fetches the state of runID.
func (c *Client) GetRun(ctx context.Context, runID string) (Run, error) {
	var out struct {
		Data Run `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/actor-runs/"+url.PathEscape(runID), nil, nil, &out); err != nil {
		return Run{}, err
	}
	return out.Data, nil
}

// DatasetItems returns up to limit items of datasetID. limit <= 0 means all.
func (c *Client) DatasetItems(ctx context.Context, datasetID string, limit int) ([]json.RawMessage, error) {
	q := url.Values{"format": {"json"}, "clean": {"true"}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var items []json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/datasets/"+url.PathEscape(datasetID)+"/items", q, nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, nil
}
