package detect

import (
	"context"
	"fmt"
	"time"

	"github.com/lodestar-research/satwatch/internal/model"
	"github.com/lodestar-research/satwatch/internal/signal"
)

// crossSourceDetector correlates regulatory/press events with social volume:
// it flags events whose following 24 hours saw social post volume well above
// the 14-day daily average.
type crossSourceDetector struct{}

func (crossSourceDetector) Name() string { return "cross" }

// crossEvent is a filing or press release that social volume is measured
// against.
type crossEvent struct {
	table string
	id    string
	title string
	at    time.Time
}

func (crossSourceDetector) Scan(ctx context.Context, deps Deps) ([]model.Signal, error) {
	now := deps.now()
	baselineDays := deps.Cfg.CrossBaselineDays
	if baselineDays <= 0 {
		baselineDays = 14
	}

	posts, err := deps.Store.SocialPosts(ctx, now.AddDate(0, 0, -baselineDays))
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}
	// A baseline from a few hours of posts overstates every burst; require
	// history that actually spans the window. Posts come back newest first.
	oldest := posts[len(posts)-1]
	if now.Sub(oldest.PostedAt) < time.Duration(baselineDays-1)*24*time.Hour {
		return nil, nil
	}
	baseline := float64(len(posts)) / float64(baselineDays)

	var events []crossEvent
	weekAgo := now.AddDate(0, 0, -7)
	filings, err := deps.Store.Filings(ctx, model.FilingSourceSEC, weekAgo)
	if err != nil {
		return nil, err
	}
	for _, f := range filings {
		events = append(events, crossEvent{table: "sec_filings", id: f.ID, title: f.Title, at: f.FiledAt})
	}
	releases, err := deps.Store.PressReleases(ctx, weekAgo)
	if err != nil {
		return nil, err
	}
	for _, r := range releases {
		events = append(events, crossEvent{table: "press_releases", id: r.ID, title: r.Title, at: r.PublishedAt})
	}

	var signals []model.Signal
	for _, ev := range events {
		windowEnd := ev.at.Add(24 * time.Hour)
		if windowEnd.After(now) {
			// The 24h reaction window hasn't closed yet.
			continue
		}
		var count int
		for _, p := range posts {
			if p.PostedAt.After(ev.at) && !p.PostedAt.After(windowEnd) {
				count++
			}
		}
		ratio := float64(count) / baseline
		if ratio <= deps.Cfg.CrossRatio {
			continue
		}

		severity := model.SeverityMedium
		if ratio > deps.Cfg.CrossRatioHigh {
			severity = model.SeverityHigh
		}

		title := fmt.Sprintf("Social surge after %q: %.1fx daily average", ev.title, ratio)
		fallback := fmt.Sprintf(
			"%d social posts appeared in the 24 hours after %q, %.1f times the %d-day daily average of %.1f.",
			count, ev.title, ratio, baselineDays, baseline)
		prompt := fmt.Sprintf(
			"In two sentences, characterize the social reaction to %q: %d posts in 24 hours vs a daily average of %.1f.",
			ev.title, count, baseline)

		signals = append(signals, model.Signal{
			Type:        model.SignalCrossSource,
			Severity:    severity,
			Title:       title,
			Description: describe(ctx, deps, "cross", prompt, fallback),
			SourceRefs: []model.SourceRef{{
				Table: ev.table,
				ID:    ev.id,
				Title: ev.title,
				Date:  ev.at,
			}},
			Metrics: map[string]any{
				"event_table":    ev.table,
				"posts_24h":      count,
				"baseline_daily": round2(baseline),
				"ratio":          round2(ratio),
			},
			Fingerprint: signal.Fingerprint(string(model.SignalCrossSource), ev.table, ev.id),
		})
	}
	return signals, nil
}
