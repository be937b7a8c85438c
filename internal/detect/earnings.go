package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lodestar-research/satwatch/internal/model"
	"github.com/lodestar-research/satwatch/internal/signal"
)

// earningsShiftDetector diffs the two most recent earnings-call transcripts
// via an LLM prompt. Unlike the other detectors, the LLM is load-bearing
// here: no parseable topic shifts means no signal, and a failed or
// malformed response is treated as "no shift detected" rather than an error.
type earningsShiftDetector struct{}

func (earningsShiftDetector) Name() string { return "earnings" }

// topicShift is one entry in the LLM's JSON output.
type topicShift struct {
	Topic  string `json:"topic"`
	Change string `json:"change"` // new | dropped | expanded | reduced
	Note   string `json:"note,omitempty"`
}

// transcriptExcerptLen caps how much of each transcript goes into the prompt.
const transcriptExcerptLen = 8000

func (earningsShiftDetector) Scan(ctx context.Context, deps Deps) ([]model.Signal, error) {
	if deps.LLM == nil || !deps.LLM.Enabled() {
		// Without an LLM this detector has nothing to diff with.
		return nil, nil
	}

	transcripts, err := deps.Store.Transcripts(ctx, 2)
	if err != nil {
		return nil, err
	}
	if len(transcripts) < 2 {
		return nil, nil
	}
	latest, prior := transcripts[0], transcripts[1]

	prompt := fmt.Sprintf(`Compare these two earnings call transcripts and list topic shifts.
Respond with ONLY a JSON array, no prose. Each element: {"topic": str, "change": "new"|"dropped"|"expanded"|"reduced", "note": str}.
Respond with [] if nothing changed materially.

PRIOR CALL (%s):
%s

LATEST CALL (%s):
%s`,
		prior.CallDate.Format(time.DateOnly), excerpt(prior.Text),
		latest.CallDate.Format(time.DateOnly), excerpt(latest.Text))

	maxTokens := deps.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	text, err := deps.LLM.Complete(ctx, prompt, maxTokens)
	if err != nil {
		zap.L().Warn("earnings transcript diff failed", zap.Error(err))
		return nil, nil
	}

	shifts := parseTopicShifts(text)
	if len(shifts) == 0 {
		return nil, nil
	}

	severity := model.SeverityMedium
	if len(shifts) >= 4 {
		severity = model.SeverityHigh
	}

	topics := make([]string, len(shifts))
	shiftMetrics := make([]map[string]string, len(shifts))
	for i, s := range shifts {
		topics[i] = fmt.Sprintf("%s (%s)", s.Topic, s.Change)
		shiftMetrics[i] = map[string]string{"topic": s.Topic, "change": s.Change, "note": s.Note}
	}

	return []model.Signal{{
		Type:     model.SignalEarningsShift,
		Severity: severity,
		Title:    fmt.Sprintf("Earnings call language shift: %d topic changes", len(shifts)),
		Description: fmt.Sprintf("Management language shifted between the %s and %s calls: %s.",
			prior.CallDate.Format(time.DateOnly), latest.CallDate.Format(time.DateOnly),
			strings.Join(topics, "; ")),
		SourceRefs: []model.SourceRef{
			{Table: "earnings_transcripts", ID: latest.ID, Title: latest.Quarter, Date: latest.CallDate},
			{Table: "earnings_transcripts", ID: prior.ID, Title: prior.Quarter, Date: prior.CallDate},
		},
		Metrics: map[string]any{
			"shift_count": len(shifts),
			"shifts":      shiftMetrics,
		},
		Fingerprint: signal.Fingerprint(string(model.SignalEarningsShift), latest.ID),
	}}, nil
}

func excerpt(text string) string {
	if len(text) <= transcriptExcerptLen {
		return text
	}
	return text[:transcriptExcerptLen]
}

// parseTopicShifts extracts a JSON array from LLM output, tolerating code
// fences and surrounding prose. Anything unparseable yields nil.
func parseTopicShifts(text string) []topicShift {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil
	}

	var shifts []topicShift
	if err := json.Unmarshal([]byte(text[start:end+1]), &shifts); err != nil {
		return nil
	}

	// Entries without a topic carry no information.
	out := shifts[:0]
	for _, s := range shifts {
		if strings.TrimSpace(s.Topic) != "" {
			out = append(out, s)
		}
	}
	return out
}
