package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/lodestar-research/satwatch/internal/model"
)

// Pool is the subset of pgxpool.Pool used by the store, satisfied by
// pgxmock for unit testing.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore implements Store using pgxpool for self-hosted deployments.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 5
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS signals (
	id               TEXT PRIMARY KEY,
	signal_type      TEXT NOT NULL,
	severity         TEXT NOT NULL,
	category         TEXT NOT NULL,
	confidence_score DOUBLE PRECISION NOT NULL,
	title            TEXT NOT NULL,
	description      TEXT,
	source_refs      JSONB,
	metrics          JSONB,
	fingerprint      TEXT NOT NULL UNIQUE,
	detected_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS social_posts (
	id        TEXT PRIMARY KEY,
	author    TEXT,
	text      TEXT,
	sentiment TEXT NOT NULL DEFAULT 'neutral',
	posted_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS sec_filings (
	id          TEXT PRIMARY KEY,
	filing_type TEXT,
	title       TEXT NOT NULL,
	status      TEXT,
	status_date TIMESTAMPTZ,
	text        TEXT,
	filed_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS fcc_filings (
	id          TEXT PRIMARY KEY,
	filing_type TEXT,
	title       TEXT NOT NULL,
	status      TEXT,
	status_date TIMESTAMPTZ,
	text        TEXT,
	filed_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS press_releases (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	body         TEXT,
	published_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS short_interest (
	id               TEXT PRIMARY KEY,
	report_date      DATE NOT NULL UNIQUE,
	shares_short     BIGINT NOT NULL,
	avg_daily_volume BIGINT,
	days_to_cover    DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS patents (
	id           TEXT PRIMARY KEY,
	number       TEXT NOT NULL,
	title        TEXT NOT NULL,
	abstract     TEXT,
	published_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS earnings_transcripts (
	id        TEXT PRIMARY KEY,
	quarter   TEXT,
	call_date TIMESTAMPTZ NOT NULL,
	text      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS web_content (
	id         TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	title      TEXT,
	first_seen TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_signals_fingerprint ON signals(fingerprint);
CREATE INDEX IF NOT EXISTS idx_signals_detected_at ON signals(detected_at DESC);
CREATE INDEX IF NOT EXISTS idx_social_posts_posted_at ON social_posts(posted_at DESC);
CREATE INDEX IF NOT EXISTS idx_sec_filings_filed_at ON sec_filings(filed_at DESC);
CREATE INDEX IF NOT EXISTS idx_fcc_filings_filed_at ON fcc_filings(filed_at DESC);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

func (s *PostgresStore) SocialPosts(ctx context.Context, since time.Time) ([]model.SocialPost, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, COALESCE(author, ''), COALESCE(text, ''), sentiment, posted_at
		 FROM social_posts WHERE posted_at >= $1 ORDER BY posted_at DESC`, since)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query social posts")
	}
	defer rows.Close()

	var posts []model.SocialPost
	for rows.Next() {
		var p model.SocialPost
		if err := rows.Scan(&p.ID, &p.Author, &p.Text, &p.Sentiment, &p.PostedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan social post")
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *PostgresStore) Filings(ctx context.Context, source string, since time.Time) ([]model.Filing, error) {
	table := "sec_filings"
	if source == model.FilingSourceFCC {
		table = "fcc_filings"
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, COALESCE(filing_type, ''), title, COALESCE(status, ''), status_date, COALESCE(text, ''), filed_at
		 FROM `+table+` WHERE filed_at >= $1 ORDER BY filed_at DESC`, since)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: query %s", table)
	}
	defer rows.Close()

	var filings []model.Filing
	for rows.Next() {
		f := model.Filing{Source: source}
		if err := rows.Scan(&f.ID, &f.FilingType, &f.Title, &f.Status, &f.StatusDate, &f.Text, &f.FiledAt); err != nil {
			return nil, eris.Wrapf(err, "postgres: scan %s row", table)
		}
		filings = append(filings, f)
	}
	return filings, rows.Err()
}

func (s *PostgresStore) PressReleases(ctx context.Context, since time.Time) ([]model.PressRelease, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, COALESCE(body, ''), published_at
		 FROM press_releases WHERE published_at >= $1 ORDER BY published_at DESC`, since)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query press releases")
	}
	defer rows.Close()

	var releases []model.PressRelease
	for rows.Next() {
		var r model.PressRelease
		if err := rows.Scan(&r.ID, &r.Title, &r.Body, &r.PublishedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan press release")
		}
		releases = append(releases, r)
	}
	return releases, rows.Err()
}

func (s *PostgresStore) ShortInterest(ctx context.Context, limit int) ([]model.ShortInterestReport, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, report_date, shares_short, COALESCE(avg_daily_volume, 0), COALESCE(days_to_cover, 0)
		 FROM short_interest ORDER BY report_date DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query short interest")
	}
	defer rows.Close()

	var reports []model.ShortInterestReport
	for rows.Next() {
		var r model.ShortInterestReport
		if err := rows.Scan(&r.ID, &r.ReportDate, &r.SharesShort, &r.AvgDailyVolume, &r.DaysToCover); err != nil {
			return nil, eris.Wrap(err, "postgres: scan short interest report")
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (s *PostgresStore) Patents(ctx context.Context, since time.Time) ([]model.Patent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, number, title, COALESCE(abstract, ''), published_at
		 FROM patents WHERE published_at >= $1 ORDER BY published_at DESC`, since)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query patents")
	}
	defer rows.Close()

	var patents []model.Patent
	for rows.Next() {
		var p model.Patent
		if err := rows.Scan(&p.ID, &p.Number, &p.Title, &p.Abstract, &p.PublishedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan patent")
		}
		patents = append(patents, p)
	}
	return patents, rows.Err()
}

func (s *PostgresStore) Transcripts(ctx context.Context, limit int) ([]model.Transcript, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, COALESCE(quarter, ''), call_date, text
		 FROM earnings_transcripts ORDER BY call_date DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query transcripts")
	}
	defer rows.Close()

	var transcripts []model.Transcript
	for rows.Next() {
		var tr model.Transcript
		if err := rows.Scan(&tr.ID, &tr.Quarter, &tr.CallDate, &tr.Text); err != nil {
			return nil, eris.Wrap(err, "postgres: scan transcript")
		}
		transcripts = append(transcripts, tr)
	}
	return transcripts, rows.Err()
}

func (s *PostgresStore) ContentItems(ctx context.Context, since time.Time) ([]model.ContentItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, url, COALESCE(title, ''), first_seen
		 FROM web_content WHERE first_seen >= $1 ORDER BY first_seen DESC`, since)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query web content")
	}
	defer rows.Close()

	var items []model.ContentItem
	for rows.Next() {
		var it model.ContentItem
		if err := rows.Scan(&it.ID, &it.URL, &it.Title, &it.FirstSeen); err != nil {
			return nil, eris.Wrap(err, "postgres: scan content item")
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *PostgresStore) SignalExists(ctx context.Context, fingerprint string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM signals WHERE fingerprint = $1)`, fingerprint).Scan(&exists)
	if err != nil {
		return false, eris.Wrap(err, "postgres: check signal fingerprint")
	}
	return exists, nil
}

func (s *PostgresStore) InsertSignal(ctx context.Context, sig *model.Signal) error {
	if sig.ID == "" {
		sig.ID = uuid.NewString()
	}

	refsJSON, err := json.Marshal(sig.SourceRefs)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal source refs")
	}
	metricsJSON, err := json.Marshal(sig.Metrics)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal metrics")
	}

	// ON CONFLICT DO NOTHING preserves insert-only semantics under the
	// check-then-insert race.
	_, err = s.pool.Exec(ctx,
		`INSERT INTO signals (id, signal_type, severity, category, confidence_score,
		                      title, description, source_refs, metrics, fingerprint,
		                      detected_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (fingerprint) DO NOTHING`,
		sig.ID, sig.Type, sig.Severity, sig.Category, sig.ConfidenceScore,
		sig.Title, sig.Description, refsJSON, metricsJSON, sig.Fingerprint,
		sig.DetectedAt, sig.ExpiresAt)
	if err != nil {
		return eris.Wrap(err, "postgres: insert signal")
	}
	return nil
}

func (s *PostgresStore) ListSignals(ctx context.Context, filter SignalFilter) ([]model.Signal, error) {
	query := `SELECT id, signal_type, severity, category, confidence_score,
	                 COALESCE(description, ''), title, source_refs, metrics,
	                 fingerprint, detected_at, expires_at
	          FROM signals`
	var conds []string
	var args []any
	if filter.Type != "" {
		args = append(args, filter.Type)
		conds = append(conds, "signal_type = $"+strconv.Itoa(len(args)))
	}
	if filter.Severity != "" {
		args = append(args, filter.Severity)
		conds = append(conds, "severity = $"+strconv.Itoa(len(args)))
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY detected_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list signals")
	}
	defer rows.Close()

	var signals []model.Signal
	for rows.Next() {
		var sig model.Signal
		var refsJSON, metricsJSON []byte
		if err := rows.Scan(&sig.ID, &sig.Type, &sig.Severity, &sig.Category,
			&sig.ConfidenceScore, &sig.Description, &sig.Title, &refsJSON,
			&metricsJSON, &sig.Fingerprint, &sig.DetectedAt, &sig.ExpiresAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan signal")
		}
		if len(refsJSON) > 0 {
			if err := json.Unmarshal(refsJSON, &sig.SourceRefs); err != nil {
				return nil, eris.Wrap(err, "postgres: decode source refs")
			}
		}
		if len(metricsJSON) > 0 {
			if err := json.Unmarshal(metricsJSON, &sig.Metrics); err != nil {
				return nil, eris.Wrap(err, "postgres: decode metrics")
			}
		}
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
