// Package store provides read access to the ingestion tables and insert-only
// persistence for detected signals. Two drivers exist: the hosted REST data
// store (primary) and direct Postgres for self-hosted deployments.
package store

import (
	"context"
	"time"

	"github.com/lodestar-research/satwatch/internal/model"
)

// SignalFilter specifies criteria for listing stored signals.
type SignalFilter struct {
	Type     model.SignalType `json:"type,omitempty"`
	Severity model.Severity   `json:"severity,omitempty"`
	Limit    int              `json:"limit,omitempty"`
}

// Store defines the persistence interface for the scanner.
type Store interface {
	// Ingestion table reads (newest first).
	SocialPosts(ctx context.Context, since time.Time) ([]model.SocialPost, error)
	Filings(ctx context.Context, source string, since time.Time) ([]model.Filing, error)
	PressReleases(ctx context.Context, since time.Time) ([]model.PressRelease, error)
	ShortInterest(ctx context.Context, limit int) ([]model.ShortInterestReport, error)
	Patents(ctx context.Context, since time.Time) ([]model.Patent, error)
	Transcripts(ctx context.Context, limit int) ([]model.Transcript, error)
	ContentItems(ctx context.Context, since time.Time) ([]model.ContentItem, error)

	// Signals. Insert-only: stored signals are never updated.
	SignalExists(ctx context.Context, fingerprint string) (bool, error)
	InsertSignal(ctx context.Context, sig *model.Signal) error
	ListSignals(ctx context.Context, filter SignalFilter) ([]model.Signal, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
