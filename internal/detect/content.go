package detect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lodestar-research/satwatch/internal/model"
	"github.com/lodestar-research/satwatch/internal/signal"
)

// newContentDetector flags pages and documents that first appeared on
// monitored company properties within the lookback window.
type newContentDetector struct{}

func (newContentDetector) Name() string { return "content" }

func (newContentDetector) Scan(ctx context.Context, deps Deps) ([]model.Signal, error) {
	window := time.Duration(deps.Cfg.ContentWindowHours) * time.Hour
	items, err := deps.Store.ContentItems(ctx, deps.now().Add(-window))
	if err != nil {
		return nil, err
	}

	var signals []model.Signal
	for _, item := range items {
		severity := model.SeverityLow
		matched := watchKeyword(item, deps.Cfg.ContentWatchKeywords)
		if matched != "" {
			severity = model.SeverityMedium
		}

		label := item.Title
		if label == "" {
			label = item.URL
		}
		sig := model.Signal{
			Type:     model.SignalNewContent,
			Severity: severity,
			Title:    fmt.Sprintf("New content: %s", label),
			Description: fmt.Sprintf("New page first seen %s: %s",
				item.FirstSeen.Format(time.DateOnly), item.URL),
			SourceRefs: []model.SourceRef{{
				Table: "web_content",
				ID:    item.ID,
				Title: item.Title,
				Date:  item.FirstSeen,
			}},
			Metrics: map[string]any{
				"url": item.URL,
			},
			Fingerprint: signal.Fingerprint(string(model.SignalNewContent), item.ID),
		}
		if matched != "" {
			sig.Metrics["matched_keyword"] = matched
		}
		signals = append(signals, sig)
	}
	return signals, nil
}

// watchKeyword returns the first configured keyword the item matches, or "".
func watchKeyword(item model.ContentItem, keywords []string) string {
	haystack := strings.ToLower(item.Title + " " + item.URL)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(haystack, strings.ToLower(kw)) {
			return kw
		}
	}
	return ""
}
