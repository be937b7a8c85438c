package detect

import (
	"context"

	"go.uber.org/zap"
)

// describe asks the LLM for a short prose description of a signal. Any
// failure (no credential, API error, empty output) falls back to the
// deterministic template the detector supplied; detectors never abort over
// description synthesis.
func describe(ctx context.Context, deps Deps, detector, prompt, fallback string) string {
	if deps.LLM == nil || !deps.LLM.Enabled() {
		return fallback
	}

	maxTokens := deps.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 512
	}

	text, err := deps.LLM.Complete(ctx, prompt, maxTokens)
	if err != nil || text == "" {
		zap.L().Warn("description synthesis failed, using template",
			zap.String("detector", detector),
			zap.Error(err),
		)
		return fallback
	}
	return text
}
