package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"ytsummarizer/internal/domain"
)

const DefaultMaxConcurrent = 2

// Generator turns transcripts into summaries with a shared Model. At most
// maxConcurrent generations run at once.
type Generator struct {
	model  Model
	config DecodingConfig
	slots  *semaphore.Weighted
	log    *slog.Logger
}

func NewGenerator(model Model, maxConcurrent int, log *slog.Logger) *Generator {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}

	return &Generator{
		model:  model,
		config: DefaultDecodingConfig(),
		slots:  semaphore.NewWeighted(int64(maxConcurrent)),
		log:    log,
	}
}

func (g *Generator) Checkpoint() string {
	return g.model.Checkpoint()
}

// GenerateSummary summarises transcript. Every failure wraps
// domain.ErrGeneration.
func (g *Generator) GenerateSummary(ctx context.Context, transcript string) (string, error) {
	if err := g.slots.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("%w: acquire inference slot: %w", domain.ErrGeneration, err)
	}
	defer g.slots.Release(1)

	prompt := BuildPrompt(transcript)
	start := time.Now()

	raw, err := g.model.Generate(ctx, prompt, g.config)
	if err != nil {
		if errors.Is(err, domain.ErrGeneration) {
			return "", err
		}

		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}

	summary := StripSpecialTokens(raw)
	if summary == "" {
		return "", fmt.Errorf("%w: model %s returned empty output", domain.ErrGeneration, g.model.Checkpoint())
	}

	g.log.InfoContext(ctx, "Summary is generated",
		"checkpoint", g.model.Checkpoint(),
		"promptLength", len(prompt),
		"summaryLength", len(summary),
		"durationSeconds", time.Since(start).Seconds())

	return summary, nil
}
