package detect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestar-research/satwatch/internal/model"
	"github.com/lodestar-research/satwatch/internal/store/storetest"
)

// posts builds n posts with the given sentiment at an offset before scanTime.
func posts(n int, sentiment string, age time.Duration) []model.SocialPost {
	out := make([]model.SocialPost, n)
	for i := range out {
		out[i] = model.SocialPost{
			ID:        sentiment + time.Duration(age).String() + string(rune('a'+i)),
			Sentiment: sentiment,
			PostedAt:  scanTime.Add(-age - time.Duration(i)*time.Minute),
		}
	}
	return out
}

func TestSentiment_HighSeverityShift(t *testing.T) {
	fake := &storetest.Fake{}
	// 7d window: 8 bullish, 2 bearish → score 0.6
	fake.Posts = append(fake.Posts, posts(8, "bullish", 24*time.Hour)...)
	fake.Posts = append(fake.Posts, posts(2, "bearish", 24*time.Hour)...)
	// Older posts (7-30d): 2 bullish, 8 bearish → 30d total 10/10, score 0
	fake.Posts = append(fake.Posts, posts(2, "bullish", 10*24*time.Hour)...)
	fake.Posts = append(fake.Posts, posts(8, "bearish", 10*24*time.Hour)...)

	sigs, err := sentimentDetector{}.Scan(context.Background(), testDeps(fake, nil))
	require.NoError(t, err)
	require.Len(t, sigs, 1)

	sig := sigs[0]
	assert.Equal(t, model.SignalSentimentShift, sig.Type)
	assert.Equal(t, model.SeverityHigh, sig.Severity)
	assert.Equal(t, "bullish", sig.Metrics["direction"])
	assert.InDelta(t, 0.6, sig.Metrics["delta"].(float64), 0.001)
	assert.InDelta(t, 0.6, sig.Metrics["score_7d"].(float64), 0.001)
	assert.InDelta(t, 0.0, sig.Metrics["score_30d"].(float64), 0.001)
	assert.NotEmpty(t, sig.Fingerprint)
}

func TestSentiment_MediumSeverity(t *testing.T) {
	fake := &storetest.Fake{}
	// 7d: 6 bullish, 4 bearish → 0.2; 30d adds 10 neutral-split older posts.
	fake.Posts = append(fake.Posts, posts(6, "bullish", 24*time.Hour)...)
	fake.Posts = append(fake.Posts, posts(4, "bearish", 24*time.Hour)...)
	fake.Posts = append(fake.Posts, posts(7, "bullish", 10*24*time.Hour)...)
	fake.Posts = append(fake.Posts, posts(9, "bearish", 10*24*time.Hour)...)
	// 30d: 13 bullish, 13 bearish of 26 → score 0; delta 0.2 → medium.

	sigs, err := sentimentDetector{}.Scan(context.Background(), testDeps(fake, nil))
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, model.SeverityMedium, sigs[0].Severity)
}

func TestSentiment_InsufficientBaselineSkips(t *testing.T) {
	fake := &storetest.Fake{}
	// Extreme shift but only 15 posts in 30 days.
	fake.Posts = append(fake.Posts, posts(10, "bullish", 24*time.Hour)...)
	fake.Posts = append(fake.Posts, posts(5, "bearish", 10*24*time.Hour)...)

	sigs, err := sentimentDetector{}.Scan(context.Background(), testDeps(fake, nil))
	require.NoError(t, err)
	assert.Empty(t, sigs)
}

func TestSentiment_InsufficientRecentSkips(t *testing.T) {
	fake := &storetest.Fake{}
	fake.Posts = append(fake.Posts, posts(3, "bullish", 24*time.Hour)...)
	fake.Posts = append(fake.Posts, posts(25, "bearish", 10*24*time.Hour)...)

	sigs, err := sentimentDetector{}.Scan(context.Background(), testDeps(fake, nil))
	require.NoError(t, err)
	assert.Empty(t, sigs)
}

func TestSentiment_SmallDeltaSkips(t *testing.T) {
	fake := &storetest.Fake{}
	fake.Posts = append(fake.Posts, posts(5, "bullish", 24*time.Hour)...)
	fake.Posts = append(fake.Posts, posts(5, "bearish", 24*time.Hour)...)
	fake.Posts = append(fake.Posts, posts(10, "bullish", 10*24*time.Hour)...)
	fake.Posts = append(fake.Posts, posts(10, "bearish", 10*24*time.Hour)...)

	sigs, err := sentimentDetector{}.Scan(context.Background(), testDeps(fake, nil))
	require.NoError(t, err)
	assert.Empty(t, sigs)
}

func TestSentiment_LLMFailureStillEmits(t *testing.T) {
	fake := &storetest.Fake{}
	fake.Posts = append(fake.Posts, posts(8, "bullish", 24*time.Hour)...)
	fake.Posts = append(fake.Posts, posts(2, "bearish", 24*time.Hour)...)
	fake.Posts = append(fake.Posts, posts(2, "bullish", 10*24*time.Hour)...)
	fake.Posts = append(fake.Posts, posts(8, "bearish", 10*24*time.Hour)...)

	sigs, err := sentimentDetector{}.Scan(context.Background(), testDeps(fake, failingLLM()))
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Contains(t, sigs[0].Description, "30-day baseline")
}

func TestSentiment_FingerprintStablePerDayAndDirection(t *testing.T) {
	fake := &storetest.Fake{}
	fake.Posts = append(fake.Posts, posts(8, "bullish", 24*time.Hour)...)
	fake.Posts = append(fake.Posts, posts(2, "bearish", 24*time.Hour)...)
	fake.Posts = append(fake.Posts, posts(2, "bullish", 10*24*time.Hour)...)
	fake.Posts = append(fake.Posts, posts(8, "bearish", 10*24*time.Hour)...)

	a, err := sentimentDetector{}.Scan(context.Background(), testDeps(fake, nil))
	require.NoError(t, err)
	b, err := sentimentDetector{}.Scan(context.Background(), testDeps(fake, nil))
	require.NoError(t, err)
	assert.Equal(t, a[0].Fingerprint, b[0].Fingerprint)
}
