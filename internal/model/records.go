package model

import "time"

// Upstream read models. These tables are populated by the ingestion workers;
// the scanner only reads them.

// SocialPost is a classified social media post about the tracked company.
type SocialPost struct {
	ID        string    `json:"id"`
	Author    string    `json:"author,omitempty"`
	Text      string    `json:"text,omitempty"`
	Sentiment string    `json:"sentiment"` // bullish | bearish | neutral
	PostedAt  time.Time `json:"posted_at"`
}

// Filing source identifiers.
const (
	FilingSourceSEC = "sec"
	FilingSourceFCC = "fcc"
)

// Filing is a regulatory filing (SEC or FCC).
type Filing struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	FilingType string     `json:"filing_type,omitempty"`
	Title      string     `json:"title"`
	Status     string     `json:"status,omitempty"`
	StatusDate *time.Time `json:"status_date,omitempty"`
	Text       string     `json:"text,omitempty"`
	FiledAt    time.Time  `json:"filed_at"`
}

// PressRelease is a company press release.
type PressRelease struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// ShortInterestReport is one exchange-published short interest period.
type ShortInterestReport struct {
	ID             string    `json:"id"`
	ReportDate     time.Time `json:"report_date"`
	SharesShort    int64     `json:"shares_short"`
	AvgDailyVolume int64     `json:"avg_daily_volume,omitempty"`
	DaysToCover    float64   `json:"days_to_cover,omitempty"`
}

// Patent is a published patent or application.
type Patent struct {
	ID          string    `json:"id"`
	Number      string    `json:"number"`
	Title       string    `json:"title"`
	Abstract    string    `json:"abstract,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Transcript is an earnings-call transcript.
type Transcript struct {
	ID       string    `json:"id"`
	Quarter  string    `json:"quarter,omitempty"`
	CallDate time.Time `json:"call_date"`
	Text     string    `json:"text"`
}

// ContentItem is a page or document discovered by the web content monitor.
type ContentItem struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title,omitempty"`
	FirstSeen time.Time `json:"first_seen"`
}
