package detect

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/lodestar-research/satwatch/internal/model"
	"github.com/lodestar-research/satwatch/internal/signal"
)

// shortInterestDetector compares the two most recent short interest reports
// and flags large swings in shares short.
type shortInterestDetector struct{}

func (shortInterestDetector) Name() string { return "short" }

func (shortInterestDetector) Scan(ctx context.Context, deps Deps) ([]model.Signal, error) {
	reports, err := deps.Store.ShortInterest(ctx, 2)
	if err != nil {
		return nil, err
	}
	if len(reports) < 2 {
		return nil, nil
	}
	latest, prior := reports[0], reports[1]
	if prior.SharesShort == 0 {
		return nil, nil
	}

	changePct := float64(latest.SharesShort-prior.SharesShort) / float64(prior.SharesShort) * 100
	changePct = math.Round(changePct*10) / 10

	if math.Abs(changePct) < deps.Cfg.ShortChangePct {
		return nil, nil
	}

	severity := model.SeverityMedium
	if math.Abs(changePct) >= deps.Cfg.ShortChangePctHigh {
		severity = model.SeverityHigh
	}

	direction := "increase"
	if changePct < 0 {
		direction = "decrease"
	}

	title := fmt.Sprintf("Short interest %s: %+.1f%% vs prior period", direction, changePct)
	fallback := fmt.Sprintf(
		"Shares short moved from %d (%s) to %d (%s), a %.1f%% %s.",
		prior.SharesShort, prior.ReportDate.Format(time.DateOnly),
		latest.SharesShort, latest.ReportDate.Format(time.DateOnly),
		math.Abs(changePct), direction)
	prompt := fmt.Sprintf(
		"In two sentences, explain what a %.1f%% %s in short interest (from %d to %d shares) suggests about market positioning.",
		math.Abs(changePct), direction, prior.SharesShort, latest.SharesShort)

	return []model.Signal{{
		Type:        model.SignalShortSpike,
		Severity:    severity,
		Title:       title,
		Description: describe(ctx, deps, "short", prompt, fallback),
		SourceRefs: []model.SourceRef{
			{Table: "short_interest", ID: latest.ID, Date: latest.ReportDate},
			{Table: "short_interest", ID: prior.ID, Date: prior.ReportDate},
		},
		Metrics: map[string]any{
			"prior_shares_short":  prior.SharesShort,
			"latest_shares_short": latest.SharesShort,
			"change_pct":          changePct,
			"report_date":         latest.ReportDate.Format(time.DateOnly),
			"direction":           direction,
		},
		Fingerprint: signal.Fingerprint(string(model.SignalShortSpike), latest.ReportDate.Format(time.DateOnly)),
	}}, nil
}
