package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestar-research/satwatch/internal/model"
	"github.com/lodestar-research/satwatch/pkg/datastore"
)

// recordedRequest captures one request the fake store server saw.
type recordedRequest struct {
	method string
	path   string
	query  map[string]string
	body   []byte
}

func newRESTFixture(t *testing.T, respond func(w http.ResponseWriter, r *http.Request)) (*RESTStore, *[]recordedRequest) {
	t.Helper()
	var seen []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		q := map[string]string{}
		for k := range r.URL.Query() {
			q[k] = r.URL.Query().Get(k)
		}
		seen = append(seen, recordedRequest{method: r.Method, path: r.URL.Path, query: q, body: body})
		respond(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewREST(datastore.NewClient(srv.URL, "test-key")), &seen
}

func respondJSON(payload string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}
}

func TestRESTStore_SocialPostsQuery(t *testing.T) {
	st, seen := newRESTFixture(t, respondJSON(`[
		{"id": "p1", "sentiment": "bullish", "posted_at": "2026-08-30T10:00:00Z"}
	]`))

	since := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	posts, err := st.SocialPosts(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "p1", posts[0].ID)
	assert.Equal(t, "bullish", posts[0].Sentiment)

	req := (*seen)[0]
	assert.Equal(t, "/social_posts", req.path)
	assert.Equal(t, "gte.2026-08-24T00:00:00Z", req.query["posted_at"])
	assert.Equal(t, "posted_at.desc", req.query["order"])
}

func TestRESTStore_FilingsTableBySource(t *testing.T) {
	st, seen := newRESTFixture(t, respondJSON(`[
		{"id": "f1", "title": "STA request", "filed_at": "2026-08-30T10:00:00Z"}
	]`))

	since := time.Now().UTC().Add(-48 * time.Hour)
	filings, err := st.Filings(context.Background(), model.FilingSourceFCC, since)
	require.NoError(t, err)
	require.Len(t, filings, 1)
	assert.Equal(t, model.FilingSourceFCC, filings[0].Source)
	assert.Equal(t, "/fcc_filings", (*seen)[0].path)

	_, err = st.Filings(context.Background(), model.FilingSourceSEC, since)
	require.NoError(t, err)
	assert.Equal(t, "/sec_filings", (*seen)[1].path)
}

func TestRESTStore_ShortInterestLimitAndOrder(t *testing.T) {
	st, seen := newRESTFixture(t, respondJSON(`[
		{"id": "si2", "report_date": "2026-08-28T00:00:00Z", "shares_short": 1150000},
		{"id": "si1", "report_date": "2026-08-14T00:00:00Z", "shares_short": 1000000}
	]`))

	reports, err := st.ShortInterest(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.EqualValues(t, 1150000, reports[0].SharesShort)

	req := (*seen)[0]
	assert.Equal(t, "/short_interest", req.path)
	assert.Equal(t, "report_date.desc", req.query["order"])
	assert.Equal(t, "2", req.query["limit"])
}

func TestRESTStore_SignalExists(t *testing.T) {
	st, seen := newRESTFixture(t, respondJSON(`[{"fingerprint": "abc123"}]`))

	exists, err := st.SignalExists(context.Background(), "abc123")
	require.NoError(t, err)
	assert.True(t, exists)

	req := (*seen)[0]
	assert.Equal(t, "/signals", req.path)
	assert.Equal(t, "eq.abc123", req.query["fingerprint"])
	assert.Equal(t, "fingerprint", req.query["select"])
	assert.Equal(t, "1", req.query["limit"])
}

func TestRESTStore_SignalExistsFalseOnEmpty(t *testing.T) {
	st, _ := newRESTFixture(t, respondJSON(`[]`))

	exists, err := st.SignalExists(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRESTStore_InsertSignalPostsRow(t *testing.T) {
	st, seen := newRESTFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	sig := &model.Signal{
		Type:        model.SignalShortSpike,
		Severity:    model.SeverityMedium,
		Title:       "Short interest up 15.0%",
		Fingerprint: "abc123",
		DetectedAt:  time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, st.InsertSignal(context.Background(), sig))

	req := (*seen)[0]
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/signals", req.path)

	var row map[string]any
	require.NoError(t, json.Unmarshal(req.body, &row))
	assert.Equal(t, "short_interest_spike", row["signal_type"])
	assert.Equal(t, "abc123", row["fingerprint"])
}

func TestRESTStore_ListSignalsFilters(t *testing.T) {
	st, seen := newRESTFixture(t, respondJSON(`[
		{"signal_type": "fcc_status_change", "severity": "high", "fingerprint": "fp1"}
	]`))

	signals, err := st.ListSignals(context.Background(), SignalFilter{
		Type:     model.SignalFCCStatusChange,
		Severity: model.SeverityHigh,
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, model.SignalFCCStatusChange, signals[0].Type)

	req := (*seen)[0]
	assert.Equal(t, "eq.fcc_status_change", req.query["signal_type"])
	assert.Equal(t, "eq.high", req.query["severity"])
	assert.Equal(t, "10", req.query["limit"])
	assert.Equal(t, "detected_at.desc", req.query["order"])
}

func TestRESTStore_ListSignalsNoFilters(t *testing.T) {
	st, seen := newRESTFixture(t, respondJSON(`[]`))

	_, err := st.ListSignals(context.Background(), SignalFilter{})
	require.NoError(t, err)

	req := (*seen)[0]
	_, hasType := req.query["signal_type"]
	_, hasSeverity := req.query["severity"]
	_, hasLimit := req.query["limit"]
	assert.False(t, hasType)
	assert.False(t, hasSeverity)
	assert.False(t, hasLimit)
}

func TestRESTStore_ServerErrorSurfaces(t *testing.T) {
	st, _ := newRESTFixture(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad filter", http.StatusBadRequest)
	})

	_, err := st.SocialPosts(context.Background(), time.Now().UTC())
	assert.Error(t, err)
}

func TestRESTStore_MigrateUnsupported(t *testing.T) {
	st, _ := newRESTFixture(t, respondJSON(`[]`))
	assert.Error(t, st.Migrate(context.Background()))
}
