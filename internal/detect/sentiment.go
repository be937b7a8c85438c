package detect

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/lodestar-research/satwatch/internal/model"
	"github.com/lodestar-research/satwatch/internal/signal"
)

// sentimentDetector compares social sentiment over the last 7 days against
// the 30-day baseline.
type sentimentDetector struct{}

func (sentimentDetector) Name() string { return "sentiment" }

func (sentimentDetector) Scan(ctx context.Context, deps Deps) ([]model.Signal, error) {
	now := deps.now()
	posts, err := deps.Store.SocialPosts(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}

	recentCutoff := now.AddDate(0, 0, -7)
	var recent []model.SocialPost
	for _, p := range posts {
		if !p.PostedAt.Before(recentCutoff) {
			recent = append(recent, p)
		}
	}

	// Insufficient-sample guard: thin windows produce noise, not signals.
	if len(posts) < deps.Cfg.SentimentMinBaseline || len(recent) < deps.Cfg.SentimentMinRecent {
		return nil, nil
	}

	baselineScore := sentimentScore(posts)
	recentScore := sentimentScore(recent)
	delta := recentScore - baselineScore

	if math.Abs(delta) < deps.Cfg.SentimentDelta {
		return nil, nil
	}

	severity := model.SeverityMedium
	if math.Abs(delta) >= deps.Cfg.SentimentDeltaHigh {
		severity = model.SeverityHigh
	}

	direction := "bullish"
	if delta < 0 {
		direction = "bearish"
	}

	title := fmt.Sprintf("Social sentiment shift: %s (%+.2f vs 30d baseline)", direction, delta)
	fallback := fmt.Sprintf(
		"Sentiment over the last 7 days scored %.2f across %d posts, against a 30-day baseline of %.2f across %d posts (delta %+.2f, %s).",
		recentScore, len(recent), baselineScore, len(posts), delta, direction)
	prompt := fmt.Sprintf(
		"In two sentences, describe for an investor-relations analyst what a %s social sentiment shift means: 7-day score %.2f (%d posts) vs 30-day score %.2f (%d posts).",
		direction, recentScore, len(recent), baselineScore, len(posts))

	return []model.Signal{{
		Type:        model.SignalSentimentShift,
		Severity:    severity,
		Title:       title,
		Description: describe(ctx, deps, "sentiment", prompt, fallback),
		Metrics: map[string]any{
			"score_7d":  round2(recentScore),
			"score_30d": round2(baselineScore),
			"delta":     round2(delta),
			"posts_7d":  len(recent),
			"posts_30d": len(posts),
			"direction": direction,
		},
		Fingerprint: signal.Fingerprint(string(model.SignalSentimentShift), now.Format(time.DateOnly), direction),
	}}, nil
}

// sentimentScore is (bullish - bearish) / total in [-1, 1].
func sentimentScore(posts []model.SocialPost) float64 {
	var bullish, bearish int
	for _, p := range posts {
		switch p.Sentiment {
		case "bullish":
			bullish++
		case "bearish":
			bearish++
		}
	}
	if len(posts) == 0 {
		return 0
	}
	return float64(bullish-bearish) / float64(len(posts))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
