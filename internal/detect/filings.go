package detect

import (
	"context"
	"fmt"
	"time"

	"github.com/lodestar-research/satwatch/internal/model"
	"github.com/lodestar-research/satwatch/internal/signal"
)

// filingClusterDetector flags bursts of regulatory filings: FCC filings in a
// 48-hour window and SEC filings in a 7-day window, with per-source minimums.
type filingClusterDetector struct{}

func (filingClusterDetector) Name() string { return "filing" }

func (d filingClusterDetector) Scan(ctx context.Context, deps Deps) ([]model.Signal, error) {
	var signals []model.Signal

	fcc, err := d.clusterFor(ctx, deps, model.FilingSourceFCC,
		time.Duration(deps.Cfg.FCCClusterWindowHours)*time.Hour, deps.Cfg.FCCClusterMin)
	if err != nil {
		return nil, err
	}
	signals = append(signals, fcc...)

	sec, err := d.clusterFor(ctx, deps, model.FilingSourceSEC,
		time.Duration(deps.Cfg.SECClusterWindowHours)*time.Hour, deps.Cfg.SECClusterMin)
	if err != nil {
		return nil, err
	}
	signals = append(signals, sec...)

	return signals, nil
}

func (filingClusterDetector) clusterFor(ctx context.Context, deps Deps, source string, window time.Duration, minCount int) ([]model.Signal, error) {
	filings, err := deps.Store.Filings(ctx, source, deps.now().Add(-window))
	if err != nil {
		return nil, err
	}
	if len(filings) < minCount {
		return nil, nil
	}

	severity := model.SeverityMedium
	if len(filings) >= 2*minCount {
		severity = model.SeverityHigh
	}

	// Filings come back newest first; the earliest one anchors the
	// fingerprint so a growing cluster stays a single signal.
	earliest := filings[len(filings)-1]

	refs := make([]model.SourceRef, 0, len(filings))
	for _, f := range filings {
		refs = append(refs, model.SourceRef{
			Table: source + "_filings",
			ID:    f.ID,
			Title: f.Title,
			Date:  f.FiledAt,
		})
	}

	windowLabel := fmt.Sprintf("%dh", int(window.Hours()))
	title := fmt.Sprintf("%s filing cluster: %d filings in %s", sourceLabel(source), len(filings), windowLabel)
	fallback := fmt.Sprintf("%d %s filings landed within %s, starting with %q.",
		len(filings), sourceLabel(source), windowLabel, earliest.Title)
	prompt := fmt.Sprintf(
		"In two sentences, explain the likely significance of %d %s regulatory filings arriving within %s. Titles: %s",
		len(filings), sourceLabel(source), windowLabel, filingTitles(filings, 5))

	return []model.Signal{{
		Type:        model.SignalFilingCluster,
		Severity:    severity,
		Title:       title,
		Description: describe(ctx, deps, "filing", prompt, fallback),
		SourceRefs:  refs,
		Metrics: map[string]any{
			"source":       source,
			"count":        len(filings),
			"window_hours": int(window.Hours()),
		},
		Fingerprint: signal.Fingerprint(string(model.SignalFilingCluster), source, earliest.ID),
	}}, nil
}

func sourceLabel(source string) string {
	switch source {
	case model.FilingSourceSEC:
		return "SEC"
	case model.FilingSourceFCC:
		return "FCC"
	default:
		return source
	}
}

func filingTitles(filings []model.Filing, limit int) string {
	out := ""
	for i, f := range filings {
		if i >= limit {
			break
		}
		if i > 0 {
			out += "; "
		}
		out += f.Title
	}
	return out
}
