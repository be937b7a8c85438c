// Package detect holds the eight anomaly detectors. Each detector is a
// stateless function of the current time and a fixed lookback window over
// the ingestion tables; it emits zero or more signal drafts.
package detect

import (
	"context"
	"time"

	"github.com/lodestar-research/satwatch/internal/config"
	"github.com/lodestar-research/satwatch/internal/model"
	"github.com/lodestar-research/satwatch/internal/store"
	"github.com/lodestar-research/satwatch/pkg/anthropic"
)

// Deps carries everything a detector may use. Detectors hold no state of
// their own; prior signals influence nothing but dedup, which happens in
// the sink.
type Deps struct {
	Store store.Store
	LLM   anthropic.Client
	Cfg   config.ScanConfig

	// Now supplies the clock; tests pin it.
	Now func() time.Time

	// MaxTokens caps LLM description synthesis.
	MaxTokens int64
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

// Detector inspects one slice of external data and conditionally emits
// signal drafts. Insufficient historical data means skip: no drafts, no error.
type Detector interface {
	Name() string
	Scan(ctx context.Context, deps Deps) ([]model.Signal, error)
}

// Registry returns all detectors in their fixed execution order. Names match
// the --detector CLI flag values.
func Registry() []Detector {
	return []Detector{
		sentimentDetector{},
		filingClusterDetector{},
		fccStatusDetector{},
		crossSourceDetector{},
		shortInterestDetector{},
		newContentDetector{},
		patentCrossrefDetector{},
		earningsShiftDetector{},
	}
}

// Lookup returns the named detector, or nil.
func Lookup(name string) Detector {
	for _, d := range Registry() {
		if d.Name() == name {
			return d
		}
	}
	return nil
}

// Names lists the registry's detector names in order.
func Names() []string {
	reg := Registry()
	names := make([]string, len(reg))
	for i, d := range reg {
		names[i] = d.Name()
	}
	return names
}
