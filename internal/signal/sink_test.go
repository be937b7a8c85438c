package signal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestar-research/satwatch/internal/model"
	"github.com/lodestar-research/satwatch/internal/store/storetest"
)

func testClock() func() time.Time {
	fixed := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return fixed }
}

func TestSink_PopulatesDerivedFields(t *testing.T) {
	fake := &storetest.Fake{}
	sink := NewSink(fake, false).WithClock(testClock())

	sig := &model.Signal{
		Type:        model.SignalShortSpike,
		Severity:    model.SeverityMedium,
		Title:       "Short interest up 15.0%",
		Fingerprint: Fingerprint("short_interest_spike", "2026-08-15"),
	}
	stored, err := sink.Publish(context.Background(), sig)
	require.NoError(t, err)
	assert.True(t, stored)

	profile := model.Profile(model.SignalShortSpike)
	assert.Equal(t, profile.Category, sig.Category)
	assert.InDelta(t, profile.Confidence, sig.ConfidenceScore, 0.001)
	assert.Equal(t, testClock()(), sig.DetectedAt)
	assert.Equal(t, testClock()().Add(profile.TTL), sig.ExpiresAt)
	require.Len(t, fake.Signals, 1)
}

func TestSink_PreservesExplicitFields(t *testing.T) {
	fake := &storetest.Fake{}
	sink := NewSink(fake, false).WithClock(testClock())

	sig := &model.Signal{
		Type:            model.SignalSentimentShift,
		Severity:        model.SeverityHigh,
		Category:        model.CategoryMarket,
		ConfidenceScore: 0.95,
		Title:           "custom",
		Fingerprint:     "abc123",
	}
	_, err := sink.Publish(context.Background(), sig)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryMarket, sig.Category)
	assert.InDelta(t, 0.95, sig.ConfidenceScore, 0.001)
}

func TestSink_DuplicateIsSkippedNotUpdated(t *testing.T) {
	fake := &storetest.Fake{}
	sink := NewSink(fake, false).WithClock(testClock())

	first := &model.Signal{
		Type:        model.SignalFilingCluster,
		Severity:    model.SeverityMedium,
		Title:       "FCC filing cluster: 2 filings in 48h",
		Fingerprint: "samefp",
	}
	stored, err := sink.Publish(context.Background(), first)
	require.NoError(t, err)
	assert.True(t, stored)

	// Re-detection with a grown cluster keeps the original record.
	second := &model.Signal{
		Type:        model.SignalFilingCluster,
		Severity:    model.SeverityHigh,
		Title:       "FCC filing cluster: 5 filings in 48h",
		Fingerprint: "samefp",
	}
	stored, err = sink.Publish(context.Background(), second)
	require.NoError(t, err)
	assert.False(t, stored)

	require.Len(t, fake.Signals, 1)
	assert.Equal(t, "FCC filing cluster: 2 filings in 48h", fake.Signals[0].Title)
}

func TestSink_MissingFingerprintIsError(t *testing.T) {
	sink := NewSink(&storetest.Fake{}, false)
	_, err := sink.Publish(context.Background(), &model.Signal{Type: model.SignalNewContent})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fingerprint")
}

func TestSink_DryRunNeverTouchesStore(t *testing.T) {
	fake := &storetest.Fake{FailOn: "SignalExists"}
	sink := NewSink(fake, true).WithClock(testClock())

	stored, err := sink.Publish(context.Background(), &model.Signal{
		Type:        model.SignalNewContent,
		Severity:    model.SeverityLow,
		Fingerprint: "fp1",
	})
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Empty(t, fake.Signals)
}

func TestSink_StoreErrorSurfaces(t *testing.T) {
	fake := &storetest.Fake{FailOn: "InsertSignal"}
	sink := NewSink(fake, false).WithClock(testClock())

	_, err := sink.Publish(context.Background(), &model.Signal{
		Type:        model.SignalNewContent,
		Severity:    model.SeverityLow,
		Fingerprint: "fp2",
	})
	require.Error(t, err)
}
