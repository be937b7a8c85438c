package store

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/lodestar-research/satwatch/internal/model"
	"github.com/lodestar-research/satwatch/pkg/datastore"
)

// Table names in the hosted store.
const (
	tableSocialPosts   = "social_posts"
	tableSECFilings    = "sec_filings"
	tableFCCFilings    = "fcc_filings"
	tablePressReleases = "press_releases"
	tableShortInterest = "short_interest"
	tablePatents       = "patents"
	tableTranscripts   = "earnings_transcripts"
	tableContent       = "web_content"
	tableSignals       = "signals"
)

// RESTStore implements Store against the hosted REST data store.
type RESTStore struct {
	client *datastore.Client
}

// NewREST creates a RESTStore over an existing datastore client.
func NewREST(client *datastore.Client) *RESTStore {
	return &RESTStore{client: client}
}

func sinceQuery(col string, since time.Time) url.Values {
	q := url.Values{}
	q.Set(col, "gte."+since.UTC().Format(time.RFC3339))
	q.Set("order", col+".desc")
	return q
}

func (s *RESTStore) SocialPosts(ctx context.Context, since time.Time) ([]model.SocialPost, error) {
	return datastore.GetTyped[model.SocialPost](ctx, s.client, tableSocialPosts, sinceQuery("posted_at", since))
}

func (s *RESTStore) Filings(ctx context.Context, source string, since time.Time) ([]model.Filing, error) {
	table := tableSECFilings
	if source == model.FilingSourceFCC {
		table = tableFCCFilings
	}
	filings, err := datastore.GetTyped[model.Filing](ctx, s.client, table, sinceQuery("filed_at", since))
	if err != nil {
		return nil, err
	}
	for i := range filings {
		filings[i].Source = source
	}
	return filings, nil
}

func (s *RESTStore) PressReleases(ctx context.Context, since time.Time) ([]model.PressRelease, error) {
	return datastore.GetTyped[model.PressRelease](ctx, s.client, tablePressReleases, sinceQuery("published_at", since))
}

func (s *RESTStore) ShortInterest(ctx context.Context, limit int) ([]model.ShortInterestReport, error) {
	q := url.Values{}
	q.Set("order", "report_date.desc")
	q.Set("limit", strconv.Itoa(limit))
	var reports []model.ShortInterestReport
	if err := s.client.Get(ctx, tableShortInterest, q, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *RESTStore) Patents(ctx context.Context, since time.Time) ([]model.Patent, error) {
	return datastore.GetTyped[model.Patent](ctx, s.client, tablePatents, sinceQuery("published_at", since))
}

func (s *RESTStore) Transcripts(ctx context.Context, limit int) ([]model.Transcript, error) {
	q := url.Values{}
	q.Set("order", "call_date.desc")
	q.Set("limit", strconv.Itoa(limit))
	var transcripts []model.Transcript
	if err := s.client.Get(ctx, tableTranscripts, q, &transcripts); err != nil {
		return nil, err
	}
	return transcripts, nil
}

func (s *RESTStore) ContentItems(ctx context.Context, since time.Time) ([]model.ContentItem, error) {
	return datastore.GetTyped[model.ContentItem](ctx, s.client, tableContent, sinceQuery("first_seen", since))
}

func (s *RESTStore) SignalExists(ctx context.Context, fingerprint string) (bool, error) {
	q := url.Values{}
	q.Set("fingerprint", "eq."+fingerprint)
	q.Set("select", "fingerprint")
	q.Set("limit", "1")
	var rows []struct {
		Fingerprint string `json:"fingerprint"`
	}
	if err := s.client.Get(ctx, tableSignals, q, &rows); err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (s *RESTStore) InsertSignal(ctx context.Context, sig *model.Signal) error {
	return s.client.Post(ctx, tableSignals, sig)
}

func (s *RESTStore) ListSignals(ctx context.Context, filter SignalFilter) ([]model.Signal, error) {
	q := url.Values{}
	q.Set("order", "detected_at.desc")
	if filter.Type != "" {
		q.Set("signal_type", "eq."+string(filter.Type))
	}
	if filter.Severity != "" {
		q.Set("severity", "eq."+string(filter.Severity))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	var signals []model.Signal
	if err := s.client.Get(ctx, tableSignals, q, &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

// Migrate is not supported for the hosted store; its schema is managed by the
// ingestion workers.
func (s *RESTStore) Migrate(ctx context.Context) error {
	return eris.New("rest: schema is managed by the hosted store")
}

func (s *RESTStore) Close() error { return nil }
