// Package datastore is a client for the hosted REST data store. The store
// exposes one endpoint per table with PostgREST-style query parameters and
// Range-header pagination.
package datastore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/lodestar-research/satwatch/internal/resilience"
)

// PageSize is the server's maximum rows per request. GetAll pages past it.
const PageSize = 1000

// Client issues authenticated requests against the hosted data store.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request rate.
func WithRateLimit(rps rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rps, burst)
	}
}

// WithRetry overrides the default retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// NewClient creates a data store client. baseURL is the root of the REST API;
// apiKey is the service credential sent on every request.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(10, 10),
		retry:   resilience.DefaultRetryConfig("datastore"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches a single page of rows from a table into out (a pointer to a
// slice). The query uses the store's filter syntax, e.g.
// {"posted_at": "gte.2026-08-01T00:00:00Z", "order": "posted_at.desc"}.
func (c *Client) Get(ctx context.Context, table string, query url.Values, out any) error {
	body, err := c.do(ctx, http.MethodGet, table, query, nil, -1)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "datastore: decode %s response", table)
	}
	return nil
}

// GetAll fetches all rows matching the query, paging at PageSize until a
// short page is returned. Rows are returned raw for the caller to decode.
func (c *Client) GetAll(ctx context.Context, table string, query url.Values) ([]json.RawMessage, error) {
	var all []json.RawMessage
	for offset := 0; ; offset += PageSize {
		body, err := c.do(ctx, http.MethodGet, table, query, nil, offset)
		if err != nil {
			return nil, err
		}
		var page []json.RawMessage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, eris.Wrapf(err, "datastore: decode %s page at offset %d", table, offset)
		}
		all = append(all, page...)
		if len(page) < PageSize {
			return all, nil
		}
	}
}

// Post inserts a row into a table.
func (c *Client) Post(ctx context.Context, table string, row any) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return eris.Wrapf(err, "datastore: encode %s row", table)
	}
	if _, err := c.do(ctx, http.MethodPost, table, nil, payload, -1); err != nil {
		return err
	}
	return nil
}

// Patch updates rows matching the query filters.
func (c *Client) Patch(ctx context.Context, table string, query url.Values, row any) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return eris.Wrapf(err, "datastore: encode %s patch", table)
	}
	if _, err := c.do(ctx, http.MethodPatch, table, query, payload, -1); err != nil {
		return err
	}
	return nil
}

// GetTyped fetches all rows matching the query and decodes them into T.
func GetTyped[T any](ctx context.Context, c *Client, table string, query url.Values) ([]T, error) {
	raw, err := c.GetAll(ctx, table, query)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, eris.Wrapf(err, "datastore: decode %s row", table)
		}
		out = append(out, v)
	}
	return out, nil
}

// do runs a single request under the rate limiter and retry policy.
// offset >= 0 requests the page [offset, offset+PageSize) via a Range header.
func (c *Client) do(ctx context.Context, method, table string, query url.Values, payload []byte, offset int) ([]byte, error) {
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "datastore: rate limiter")
		}

		u := fmt.Sprintf("%s/%s", c.baseURL, table)
		if len(query) > 0 {
			u += "?" + query.Encode()
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, body)
		if err != nil {
			return nil, eris.Wrapf(err, "datastore: build %s %s", method, table)
		}
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if method == http.MethodPost {
			req.Header.Set("Prefer", "return=minimal")
		}
		if offset >= 0 {
			req.Header.Set("Range-Unit", "items")
			req.Header.Set("Range", fmt.Sprintf("%d-%d", offset, offset+PageSize-1))
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrapf(err, "datastore: %s %s", method, table)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrapf(err, "datastore: read %s response", table)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			err := eris.Errorf("datastore: %s %s returned %d: %s", method, table, resp.StatusCode, truncate(respBody, 200))
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(err, resp.StatusCode)
			}
			return nil, err
		}

		return respBody, nil
	})
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
