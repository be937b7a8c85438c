package signal

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lodestar-research/satwatch/internal/model"
	"github.com/lodestar-research/satwatch/internal/store"
)

// Sink stores signal drafts, deduplicating by fingerprint. Stored signals
// are never updated: a draft whose fingerprint already exists is dropped.
type Sink struct {
	store  store.Store
	dryRun bool
	now    func() time.Time
}

// NewSink creates a Sink. With dryRun set, drafts are logged but never stored.
func NewSink(s store.Store, dryRun bool) *Sink {
	return &Sink{store: s, dryRun: dryRun, now: time.Now}
}

// WithClock overrides the sink's clock, for tests.
func (s *Sink) WithClock(now func() time.Time) *Sink {
	s.now = now
	return s
}

// Publish fills in derived fields and persists the draft if its fingerprint
// is new. It returns true when the signal was stored (or would have been,
// under dry-run), false when it was a duplicate.
func (s *Sink) Publish(ctx context.Context, sig *model.Signal) (bool, error) {
	if sig.Fingerprint == "" {
		return false, eris.Errorf("signal: %s draft has no fingerprint", sig.Type)
	}

	// Category, confidence, and expiry derive statically from the type.
	profile := model.Profile(sig.Type)
	if sig.Category == "" {
		sig.Category = profile.Category
	}
	if sig.ConfidenceScore == 0 {
		sig.ConfidenceScore = profile.Confidence
	}
	if sig.DetectedAt.IsZero() {
		sig.DetectedAt = s.now().UTC()
	}
	if sig.ExpiresAt.IsZero() {
		sig.ExpiresAt = sig.DetectedAt.Add(profile.TTL)
	}

	log := zap.L().With(
		zap.String("signal_type", string(sig.Type)),
		zap.String("severity", string(sig.Severity)),
		zap.String("fingerprint", sig.Fingerprint),
	)

	if s.dryRun {
		log.Info("dry run: signal not stored", zap.String("title", sig.Title))
		return true, nil
	}

	exists, err := s.store.SignalExists(ctx, sig.Fingerprint)
	if err != nil {
		return false, eris.Wrap(err, "signal: fingerprint lookup")
	}
	if exists {
		log.Debug("duplicate signal skipped")
		return false, nil
	}

	if err := s.store.InsertSignal(ctx, sig); err != nil {
		return false, eris.Wrap(err, "signal: insert")
	}
	log.Info("signal stored", zap.String("title", sig.Title))
	return true, nil
}
