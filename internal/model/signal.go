package model

import "time"

// SignalType identifies the kind of anomaly a detector looks for.
type SignalType string

const (
	SignalSentimentShift   SignalType = "sentiment_shift"
	SignalFilingCluster    SignalType = "filing_cluster"
	SignalFCCStatusChange  SignalType = "fcc_status_change"
	SignalCrossSource      SignalType = "cross_source"
	SignalShortSpike       SignalType = "short_interest_spike"
	SignalNewContent       SignalType = "new_content"
	SignalPatentCrossref   SignalType = "patent_regulatory_crossref"
	SignalEarningsShift    SignalType = "earnings_language_shift"
)

// AllSignalTypes lists every signal type in registry order.
var AllSignalTypes = []SignalType{
	SignalSentimentShift,
	SignalFilingCluster,
	SignalFCCStatusChange,
	SignalCrossSource,
	SignalShortSpike,
	SignalNewContent,
	SignalPatentCrossref,
	SignalEarningsShift,
}

// Severity is an ordered category assigned by detector thresholds.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities for sorting and comparison.
var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the ordinal position of the severity (low=0 .. critical=3),
// or -1 for unknown values.
func (s Severity) Rank() int {
	r, ok := severityRank[s]
	if !ok {
		return -1
	}
	return r
}

// Category groups signal types for downstream consumers.
type Category string

const (
	CategoryRegulatory Category = "regulatory"
	CategoryMarket     Category = "market"
	CategorySocial     Category = "social"
	CategoryInnovation Category = "innovation"
)

// TypeProfile holds the static attributes derived from a signal type.
type TypeProfile struct {
	Category   Category
	Confidence float64
	TTL        time.Duration
}

// Profile returns the static category, confidence score, and expiry window
// for a signal type. The switch is exhaustive over AllSignalTypes; unknown
// types get a conservative default.
func Profile(t SignalType) TypeProfile {
	const day = 24 * time.Hour
	switch t {
	case SignalSentimentShift:
		return TypeProfile{CategorySocial, 0.6, 7 * day}
	case SignalFilingCluster:
		return TypeProfile{CategoryRegulatory, 0.7, 14 * day}
	case SignalFCCStatusChange:
		return TypeProfile{CategoryRegulatory, 0.9, 30 * day}
	case SignalCrossSource:
		return TypeProfile{CategorySocial, 0.5, 3 * day}
	case SignalShortSpike:
		return TypeProfile{CategoryMarket, 0.8, 30 * day}
	case SignalNewContent:
		return TypeProfile{CategoryMarket, 0.6, 7 * day}
	case SignalPatentCrossref:
		return TypeProfile{CategoryInnovation, 0.7, 90 * day}
	case SignalEarningsShift:
		return TypeProfile{CategoryMarket, 0.7, 90 * day}
	default:
		return TypeProfile{CategoryMarket, 0.5, 7 * day}
	}
}

// SourceRef points at a row in the external data store. Signals reference
// source records instead of embedding copies.
type SourceRef struct {
	Table string    `json:"table"`
	ID    string    `json:"id"`
	Title string    `json:"title,omitempty"`
	Date  time.Time `json:"date"`
}

// Signal is a detected cross-source anomaly. Signals are insert-only: once
// stored, a signal is never updated; re-detection of the same underlying
// condition is deduplicated by fingerprint and skipped.
type Signal struct {
	ID              string         `json:"id,omitempty"`
	Type            SignalType     `json:"signal_type"`
	Severity        Severity       `json:"severity"`
	Category        Category       `json:"category,omitempty"`
	ConfidenceScore float64        `json:"confidence_score,omitempty"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	SourceRefs      []SourceRef    `json:"source_refs,omitempty"`
	Metrics         map[string]any `json:"metrics,omitempty"`
	Fingerprint     string         `json:"fingerprint"`
	DetectedAt      time.Time      `json:"detected_at"`
	ExpiresAt       time.Time      `json:"expires_at"`
}
