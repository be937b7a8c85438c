// Package storetest provides an in-memory Store for unit tests.
package storetest

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/lodestar-research/satwatch/internal/model"
	"github.com/lodestar-research/satwatch/internal/store"
)

// Fake is an in-memory store.Store. Populate the exported slices directly;
// reads filter and order them the way the real drivers do.
type Fake struct {
	Posts       []model.SocialPost
	SECFilings  []model.Filing
	FCCFilings  []model.Filing
	Releases    []model.PressRelease
	Reports     []model.ShortInterestReport
	PatentRows  []model.Patent
	Calls       []model.Transcript
	Content     []model.ContentItem
	Signals     []model.Signal

	// Err, when set, is returned by every method.
	Err error
	// FailOn makes only the named method fail.
	FailOn string
}

var _ store.Store = (*Fake)(nil)

func (f *Fake) fail(method string) error {
	if f.Err != nil {
		return f.Err
	}
	if f.FailOn == method {
		return eris.Errorf("storetest: %s failed", method)
	}
	return nil
}

func (f *Fake) SocialPosts(ctx context.Context, since time.Time) ([]model.SocialPost, error) {
	if err := f.fail("SocialPosts"); err != nil {
		return nil, err
	}
	var out []model.SocialPost
	for _, p := range f.Posts {
		if !p.PostedAt.Before(since) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PostedAt.After(out[j].PostedAt) })
	return out, nil
}

func (f *Fake) Filings(ctx context.Context, source string, since time.Time) ([]model.Filing, error) {
	if err := f.fail("Filings"); err != nil {
		return nil, err
	}
	src := f.SECFilings
	if source == model.FilingSourceFCC {
		src = f.FCCFilings
	}
	var out []model.Filing
	for _, fl := range src {
		if !fl.FiledAt.Before(since) {
			fl.Source = source
			out = append(out, fl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiledAt.After(out[j].FiledAt) })
	return out, nil
}

func (f *Fake) PressReleases(ctx context.Context, since time.Time) ([]model.PressRelease, error) {
	if err := f.fail("PressReleases"); err != nil {
		return nil, err
	}
	var out []model.PressRelease
	for _, r := range f.Releases {
		if !r.PublishedAt.Before(since) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	return out, nil
}

func (f *Fake) ShortInterest(ctx context.Context, limit int) ([]model.ShortInterestReport, error) {
	if err := f.fail("ShortInterest"); err != nil {
		return nil, err
	}
	out := append([]model.ShortInterestReport(nil), f.Reports...)
	sort.Slice(out, func(i, j int) bool { return out[i].ReportDate.After(out[j].ReportDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *Fake) Patents(ctx context.Context, since time.Time) ([]model.Patent, error) {
	if err := f.fail("Patents"); err != nil {
		return nil, err
	}
	var out []model.Patent
	for _, p := range f.PatentRows {
		if !p.PublishedAt.Before(since) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	return out, nil
}

func (f *Fake) Transcripts(ctx context.Context, limit int) ([]model.Transcript, error) {
	if err := f.fail("Transcripts"); err != nil {
		return nil, err
	}
	out := append([]model.Transcript(nil), f.Calls...)
	sort.Slice(out, func(i, j int) bool { return out[i].CallDate.After(out[j].CallDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *Fake) ContentItems(ctx context.Context, since time.Time) ([]model.ContentItem, error) {
	if err := f.fail("ContentItems"); err != nil {
		return nil, err
	}
	var out []model.ContentItem
	for _, it := range f.Content {
		if !it.FirstSeen.Before(since) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *Fake) SignalExists(ctx context.Context, fingerprint string) (bool, error) {
	if err := f.fail("SignalExists"); err != nil {
		return false, err
	}
	for _, s := range f.Signals {
		if s.Fingerprint == fingerprint {
			return true, nil
		}
	}
	return false, nil
}

func (f *Fake) InsertSignal(ctx context.Context, sig *model.Signal) error {
	if err := f.fail("InsertSignal"); err != nil {
		return err
	}
	for _, s := range f.Signals {
		if s.Fingerprint == sig.Fingerprint {
			// Insert-only: duplicates are silently dropped like the
			// postgres driver's ON CONFLICT DO NOTHING.
			return nil
		}
	}
	f.Signals = append(f.Signals, *sig)
	return nil
}

func (f *Fake) ListSignals(ctx context.Context, filter store.SignalFilter) ([]model.Signal, error) {
	if err := f.fail("ListSignals"); err != nil {
		return nil, err
	}
	var out []model.Signal
	for _, s := range f.Signals {
		if filter.Type != "" && s.Type != filter.Type {
			continue
		}
		if filter.Severity != "" && s.Severity != filter.Severity {
			continue
		}
		out = append(out, s)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *Fake) Migrate(ctx context.Context) error { return f.fail("Migrate") }
func (f *Fake) Close() error                      { return nil }
