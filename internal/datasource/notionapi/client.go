// Package notionapi is the HTTP transport for the Notion REST API. It
// retrieves database schema documents and pages of query results as generic
// JSON documents for the notion package to interpret.
package notionapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"notionsqlite/internal/datasource"
	"notionsqlite/internal/datasource/httpds"
	"notionsqlite/internal/notion"
)

const (
	// DefaultBaseURL is the public Notion API endpoint.
	DefaultBaseURL = "https://api.notion.com"
	// DefaultNotionVersion pins the API version the document layouts are
	// read against.
	DefaultNotionVersion = "2022-02-22"
)

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("notionapi: api key is required")

// APIError is a non-success answer from the API: either an "object":"error"
// document or a non-2xx response without one.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notionapi: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("notionapi: status %d: %s: %s", e.Status, e.Code, e.Message)
}

// Config configures a Client.
type Config struct {
	BaseURL       string
	APIKey        string
	NotionVersion string
	Timeout       time.Duration
	MaxRetries    int
	// Transport overrides the HTTP round tripper, mainly for tests.
	Transport http.RoundTripper
	Logger    *zap.Logger
}

// Client talks to one Notion workspace with a single integration token.
type Client struct {
	http    *httpds.Client
	baseURL string
	log     *zap.Logger
}

// New returns a Client. BaseURL and NotionVersion default to the public API
// and DefaultNotionVersion.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.NotionVersion == "" {
		cfg.NotionVersion = DefaultNotionVersion
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("notionapi: base url: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	hc := httpds.NewClient(httpds.Config{
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		Transport:  cfg.Transport,
		Logger:     log,
		BaseHeaders: http.Header{
			"Authorization":  {"Bearer " + cfg.APIKey},
			"Notion-Version": {cfg.NotionVersion},
		},
	})
	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		log:     log,
	}, nil
}

// GetDatabase fetches the schema document of database id.
func (c *Client) GetDatabase(ctx context.Context, id string) (any, error) {
	if id == "" {
		return nil, fmt.Errorf("notionapi: database id is required")
	}
	u := c.baseURL + "/v1/databases/" + url.PathEscape(id)
	return c.call(ctx, http.MethodGet, u, nil)
}

type sortSpec struct {
	Timestamp string `json:"timestamp"`
	Direction string `json:"direction"`
}

type queryRequest struct {
	PageSize    int            `json:"page_size"`
	Sorts       []sortSpec     `json:"sorts"`
	StartCursor string         `json:"start_cursor,omitempty"`
	Filter      map[string]any `json:"filter,omitempty"`
}

// QueryDatabase fetches one page of database id in ascending creation order,
// starting at cursor (zero for the first page).
func (c *Client) QueryDatabase(ctx context.Context, id string, pageSize int, cursor notion.Cursor) (any, error) {
	return c.query(ctx, id, pageSize, cursor, nil)
}

func (c *Client) query(ctx context.Context, id string, pageSize int, cursor notion.Cursor, filter map[string]any) (any, error) {
	if id == "" {
		return nil, fmt.Errorf("notionapi: database id is required")
	}
	body := queryRequest{
		PageSize:    pageSize,
		Sorts:       []sortSpec{{Timestamp: "created_time", Direction: "ascending"}},
		StartCursor: string(cursor),
		Filter:      filter,
	}
	u := c.baseURL + "/v1/databases/" + url.PathEscape(id) + "/query"
	return c.call(ctx, http.MethodPost, u, body)
}

// Fetcher binds QueryDatabase to database id.
func (c *Client) Fetcher(id string) notion.FetchFunc {
	return func(ctx context.Context, pageSize int, cursor notion.Cursor) (any, error) {
		return c.QueryDatabase(ctx, id, pageSize, cursor)
	}
}

// Database binds c to one database. A non-empty filter is sent as the
// query "filter" object with every page request.
func (c *Client) Database(id string, filter map[string]any) *Database {
	if len(filter) == 0 {
		filter = nil
	}
	return &Database{c: c, id: id, filter: filter}
}

var _ datasource.Database = (*Database)(nil)

// Database serves one Notion database over the API.
type Database struct {
	c      *Client
	id     string
	filter map[string]any
}

// Schema fetches the database document.
func (d *Database) Schema(ctx context.Context) (any, error) {
	return d.c.GetDatabase(ctx, d.id)
}

// Fetch queries one page of results.
func (d *Database) Fetch(ctx context.Context, pageSize int, cursor notion.Cursor) (any, error) {
	return d.c.query(ctx, d.id, pageSize, cursor, d.filter)
}

func (c *Client) call(ctx context.Context, method, u string, payload any) (any, error) {
	status, body, err := c.http.DoJSON(ctx, method, u, payload, nil)
	if err != nil {
		return nil, err
	}
	c.log.Debug("notion api call", zap.String("method", method), zap.String("url", u), zap.Int("status", status))

	doc, decErr := notion.DecodeDocument(bytes.NewReader(body))
	if decErr != nil {
		if status < 200 || status > 299 {
			return nil, &APIError{Status: status, Message: snippet(body)}
		}
		return nil, decErr
	}

	if obj, _ := doc.(map[string]any); obj != nil && obj["object"] == "error" {
		e := &APIError{Status: status}
		e.Code, _ = obj["code"].(string)
		e.Message, _ = obj["message"].(string)
		return nil, e
	}
	if status < 200 || status > 299 {
		return nil, &APIError{Status: status, Message: snippet(body)}
	}
	return doc, nil
}

func snippet(b []byte) string {
	const max = 256
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		s = s[:max] + "..."
	}
	if s == "" {
		s = "empty response body"
	}
	return s
}
