// Package scan orchestrates a detector run: it executes each detector in
// order, publishes their drafts through the dedup sink, and aggregates a
// run summary. Detector failures are isolated; one broken data source must
// not block the rest of the scan.
package scan

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lodestar-research/satwatch/internal/detect"
	"github.com/lodestar-research/satwatch/internal/model"
	"github.com/lodestar-research/satwatch/internal/signal"
)

// DetectorResult is the per-detector slice of a run summary.
type DetectorResult struct {
	Name       string
	Emitted    int
	Stored     int
	Duplicates int
	Err        error
}

// Summary aggregates one full scan.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	Duration   time.Duration
	Detectors  []DetectorResult
	BySeverity map[model.Severity]int
}

// Stored totals newly stored signals across detectors.
func (s Summary) Stored() int {
	total := 0
	for _, d := range s.Detectors {
		total += d.Stored
	}
	return total
}

// Failed lists detectors that returned an error.
func (s Summary) Failed() []string {
	var names []string
	for _, d := range s.Detectors {
		if d.Err != nil {
			names = append(names, d.Name)
		}
	}
	return names
}

// Runner executes a set of detectors against shared dependencies.
type Runner struct {
	detectors []detect.Detector
	deps      detect.Deps
	sink      *signal.Sink
}

// NewRunner wires detectors to their dependencies and the signal sink.
func NewRunner(detectors []detect.Detector, deps detect.Deps, sink *signal.Sink) *Runner {
	return &Runner{detectors: detectors, deps: deps, sink: sink}
}

// Run executes every detector in order. A detector error is recorded in the
// summary and logged, then the run moves on; Run itself only fails when no
// detectors were configured.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if len(r.detectors) == 0 {
		return Summary{}, eris.New("scan: no detectors selected")
	}

	summary := Summary{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now().UTC(),
		BySeverity: map[model.Severity]int{},
	}
	log := zap.L().With(zap.String("run_id", summary.RunID))
	log.Info("scan started", zap.Int("detectors", len(r.detectors)))

	for _, d := range r.detectors {
		result := DetectorResult{Name: d.Name()}
		dlog := log.With(zap.String("detector", d.Name()))

		drafts, err := d.Scan(ctx, r.deps)
		if err != nil {
			result.Err = eris.Wrapf(err, "scan: detector %s", d.Name())
			dlog.Error("detector failed", zap.Error(err))
			summary.Detectors = append(summary.Detectors, result)
			continue
		}
		result.Emitted = len(drafts)

		for i := range drafts {
			stored, err := r.sink.Publish(ctx, &drafts[i])
			if err != nil {
				result.Err = eris.Wrapf(err, "scan: detector %s", d.Name())
				dlog.Error("signal publish failed", zap.Error(err))
				break
			}
			if stored {
				result.Stored++
				summary.BySeverity[drafts[i].Severity]++
			} else {
				result.Duplicates++
			}
		}

		dlog.Info("detector finished",
			zap.Int("emitted", result.Emitted),
			zap.Int("stored", result.Stored),
			zap.Int("duplicates", result.Duplicates))
		summary.Detectors = append(summary.Detectors, result)
	}

	summary.Duration = time.Since(summary.StartedAt)
	log.Info("scan finished",
		zap.Int("stored", summary.Stored()),
		zap.Strings("failed", summary.Failed()),
		zap.Duration("duration", summary.Duration))
	return summary, nil
}
