package detect

import (
	"context"
	"fmt"
	"strings"

	"github.com/lodestar-research/satwatch/internal/model"
	"github.com/lodestar-research/satwatch/internal/signal"
)

// fccStatusDetector flags FCC filings whose status reached a notable
// disposition within the last 7 days. Fingerprinting on (filing, status)
// makes each transition fire exactly once.
type fccStatusDetector struct{}

func (fccStatusDetector) Name() string { return "fcc" }

// notableStatuses are dispositions worth a signal, with the severity each
// carries.
var notableStatuses = map[string]model.Severity{
	"granted":       model.SeverityHigh,
	"denied":        model.SeverityHigh,
	"partial grant": model.SeverityMedium,
	"dismissed":     model.SeverityMedium,
	"action taken":  model.SeverityMedium,
}

func (fccStatusDetector) Scan(ctx context.Context, deps Deps) ([]model.Signal, error) {
	now := deps.now()
	// Pull a wider window than the status cutoff: status can change long
	// after filing.
	filings, err := deps.Store.Filings(ctx, model.FilingSourceFCC, now.AddDate(0, 0, -90))
	if err != nil {
		return nil, err
	}

	statusCutoff := now.AddDate(0, 0, -7)
	var signals []model.Signal
	for _, f := range filings {
		status := strings.ToLower(strings.TrimSpace(f.Status))
		severity, notable := notableStatuses[status]
		if !notable || f.StatusDate == nil || f.StatusDate.Before(statusCutoff) {
			continue
		}

		title := fmt.Sprintf("FCC filing %s: %s", status, f.Title)
		fallback := fmt.Sprintf("FCC filing %q moved to status %q on %s.",
			f.Title, status, f.StatusDate.Format("2006-01-02"))
		prompt := fmt.Sprintf(
			"In two sentences, explain what it means for the company that FCC filing %q (type %s) is now %q.",
			f.Title, f.FilingType, status)

		signals = append(signals, model.Signal{
			Type:        model.SignalFCCStatusChange,
			Severity:    severity,
			Title:       title,
			Description: describe(ctx, deps, "fcc", prompt, fallback),
			SourceRefs: []model.SourceRef{{
				Table: "fcc_filings",
				ID:    f.ID,
				Title: f.Title,
				Date:  *f.StatusDate,
			}},
			Metrics: map[string]any{
				"status":      status,
				"filing_type": f.FilingType,
				"status_date": f.StatusDate.Format("2006-01-02"),
			},
			Fingerprint: signal.Fingerprint(string(model.SignalFCCStatusChange), f.ID, status),
		})
	}
	return signals, nil
}
