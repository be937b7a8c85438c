package detect

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/lodestar-research/satwatch/internal/model"
	"github.com/lodestar-research/satwatch/internal/signal"
)

// patentCrossrefDetector looks for recent patents whose technical vocabulary
// overlaps recent regulatory filing text. The keyword vocabulary is
// configuration, not a fixed contract; matches are capped per run.
type patentCrossrefDetector struct{}

func (patentCrossrefDetector) Name() string { return "patent_crossref" }

func (patentCrossrefDetector) Scan(ctx context.Context, deps Deps) ([]model.Signal, error) {
	now := deps.now()
	patents, err := deps.Store.Patents(ctx, now.AddDate(0, 0, -deps.Cfg.PatentLookbackDays))
	if err != nil {
		return nil, err
	}
	if len(patents) == 0 {
		return nil, nil
	}

	filingCutoff := now.AddDate(0, 0, -deps.Cfg.FilingLookbackDays)
	var filings []model.Filing
	for _, source := range []string{model.FilingSourceSEC, model.FilingSourceFCC} {
		fs, err := deps.Store.Filings(ctx, source, filingCutoff)
		if err != nil {
			return nil, err
		}
		filings = append(filings, fs...)
	}
	if len(filings) == 0 {
		return nil, nil
	}

	minOverlap := deps.Cfg.PatentMinOverlap
	if minOverlap <= 0 {
		minOverlap = 2
	}
	maxMatches := deps.Cfg.PatentMaxMatches
	if maxMatches <= 0 {
		maxMatches = 5
	}

	var signals []model.Signal
	for _, p := range patents {
		keywords := extractKeywords(p.Title+" "+p.Abstract, deps.Cfg.PatentKeywords)
		if len(keywords) < minOverlap {
			continue
		}
		for _, f := range filings {
			shared := overlap(keywords, foldText(f.Title+" "+f.Text))
			if len(shared) < minOverlap {
				continue
			}

			title := fmt.Sprintf("Patent %s overlaps %s filing %q (%d shared terms)",
				p.Number, sourceLabel(f.Source), f.Title, len(shared))
			fallback := fmt.Sprintf(
				"Patent %s (%q) shares technical vocabulary with %s filing %q: %s.",
				p.Number, p.Title, sourceLabel(f.Source), f.Title, strings.Join(shared, ", "))
			prompt := fmt.Sprintf(
				"In two sentences, explain why patent %q overlapping regulatory filing %q on the terms [%s] might matter strategically.",
				p.Title, f.Title, strings.Join(shared, ", "))

			signals = append(signals, model.Signal{
				Type:        model.SignalPatentCrossref,
				Severity:    model.SeverityMedium,
				Title:       title,
				Description: describe(ctx, deps, "patent_crossref", prompt, fallback),
				SourceRefs: []model.SourceRef{
					{Table: "patents", ID: p.ID, Title: p.Title, Date: p.PublishedAt},
					{Table: f.Source + "_filings", ID: f.ID, Title: f.Title, Date: f.FiledAt},
				},
				Metrics: map[string]any{
					"patent_number": p.Number,
					"filing_id":     f.ID,
					"shared_terms":  shared,
					"overlap":       len(shared),
				},
				Fingerprint: signal.Fingerprint(string(model.SignalPatentCrossref), p.Number, f.ID),
			})
			if len(signals) >= maxMatches {
				return signals, nil
			}
		}
	}
	return signals, nil
}

// foldText normalizes text for matching. Unicode case folding handles
// patent abstracts that arrive with inconsistent casing.
func foldText(s string) string {
	return cases.Fold().String(s)
}

// extractKeywords returns the vocabulary terms present in text, sorted.
func extractKeywords(text string, vocabulary []string) []string {
	folded := foldText(text)
	var found []string
	for _, term := range vocabulary {
		if term != "" && strings.Contains(folded, foldText(term)) {
			found = append(found, foldText(term))
		}
	}
	sort.Strings(found)
	return found
}

// overlap returns the keywords also present in haystack (already folded).
func overlap(keywords []string, haystack string) []string {
	var shared []string
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			shared = append(shared, kw)
		}
	}
	return shared
}
