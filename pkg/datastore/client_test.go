package datastore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestar-research/satwatch/internal/resilience"
)

func fastRetry(attempts int) resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Service:        "datastore-test",
	}
}

func TestClient_Get_SendsAuthHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "/signals", r.URL.Path)
		assert.Equal(t, "eq.abc", r.URL.Query().Get("fingerprint"))
		fmt.Fprint(w, `[{"id":"1"}]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", WithRetry(fastRetry(1)))
	var rows []map[string]string
	q := url.Values{}
	q.Set("fingerprint", "eq.abc")
	require.NoError(t, c.Get(context.Background(), "signals", q, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0]["id"])
}

func TestClient_GetAll_PaginatesUntilShortPage(t *testing.T) {
	var ranges []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ranges = append(ranges, r.Header.Get("Range"))
		var page []map[string]int
		if len(ranges) == 1 {
			// Full first page forces a second request.
			for i := 0; i < PageSize; i++ {
				page = append(page, map[string]int{"n": i})
			}
		} else {
			page = []map[string]int{{"n": PageSize}}
		}
		json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", WithRetry(fastRetry(1)), WithRateLimit(10000, 10000))
	rows, err := c.GetAll(context.Background(), "social_posts", nil)
	require.NoError(t, err)
	assert.Len(t, rows, PageSize+1)
	require.Len(t, ranges, 2)
	assert.Equal(t, "0-999", ranges[0])
	assert.Equal(t, "1000-1999", ranges[1])
}

func TestClient_Post_SendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))
		var row map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&row))
		assert.Equal(t, "abc", row["fingerprint"])
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", WithRetry(fastRetry(1)))
	err := c.Post(context.Background(), "signals", map[string]string{"fingerprint": "abc"})
	require.NoError(t, err)
}

func TestClient_Patch_SendsBodyAndFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Prefer"))
		assert.Equal(t, "eq.abc", r.URL.Query().Get("fingerprint"))
		var row map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&row))
		assert.Equal(t, "high", row["severity"])
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", WithRetry(fastRetry(1)))
	q := url.Values{}
	q.Set("fingerprint", "eq.abc")
	err := c.Patch(context.Background(), "signals", q, map[string]string{"severity": "high"})
	require.NoError(t, err)
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", WithRetry(fastRetry(3)))
	var rows []map[string]string
	require.NoError(t, c.Get(context.Background(), "filings", nil, &rows))
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no such table", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", WithRetry(fastRetry(3)))
	var rows []map[string]string
	err := c.Get(context.Background(), "bogus", nil, &rows)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "404"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetTyped_DecodesRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":"a","shares_short":100},{"id":"b","shares_short":200}]`)
	}))
	defer srv.Close()

	type report struct {
		ID          string `json:"id"`
		SharesShort int64  `json:"shares_short"`
	}
	c := NewClient(srv.URL, "k", WithRetry(fastRetry(1)))
	rows, err := GetTyped[report](context.Background(), c, "short_interest", nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(200), rows[1].SharesShort)
}
