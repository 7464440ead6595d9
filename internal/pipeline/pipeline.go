package pipeline

import (
	"context"
	"log/slog"
	"time"

	"ytsummarizer/internal/domain"
	"ytsummarizer/internal/youtube"
)

type TranscriptExtractor interface {
	Extract(ctx context.Context, id domain.VideoID) (*domain.Transcript, error)
}

type SummaryGenerator interface {
	Checkpoint() string
	GenerateSummary(ctx context.Context, transcript string) (string, error)
}

// HistoryRecorder stores completed runs for display. It is never read back
// to skip work.
type HistoryRecorder interface {
	SaveSummary(ctx context.Context, record domain.SummaryRecord) (int64, error)
}

type Pipeline struct {
	extractor TranscriptExtractor
	generator SummaryGenerator
	history   HistoryRecorder
	now       func() time.Time
	log       *slog.Logger
}

// New builds a pipeline. history may be nil.
func New(
	extractor TranscriptExtractor,
	generator SummaryGenerator,
	history HistoryRecorder,
	log *slog.Logger,
) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		generator: generator,
		history:   history,
		now:       time.Now,
		log:       log,
	}
}

// Run derives the video ID, fetches the transcript and summarises it. The
// returned error belongs to the domain taxonomy; the generator is never
// called when the transcript cannot be retrieved.
func (p *Pipeline) Run(ctx context.Context, rawURL string) (*domain.Result, error) {
	start := p.now()

	id, err := youtube.ParseVideoID(rawURL)
	if err != nil {
		p.log.InfoContext(ctx, "Failed to parse video URL",
			"error", err,
			"url", rawURL)

		return nil, err
	}

	result := &domain.Result{
		VideoID:      id,
		URL:          rawURL,
		ThumbnailURL: youtube.ThumbnailURL(id),
		Checkpoint:   p.generator.Checkpoint(),
	}

	transcript, err := p.extractor.Extract(ctx, id)
	if err != nil {
		p.log.WarnContext(ctx, "Failed to extract transcript",
			"error", err,
			"videoID", id,
			"kind", domain.KindOf(err).String())

		return result, err
	}

	result.Title = transcript.Title
	result.Transcript = transcript.Text

	summary, err := p.generator.GenerateSummary(ctx, transcript.Text)
	if err != nil {
		p.log.ErrorContext(ctx, "Failed to generate summary",
			"error", err,
			"videoID", id,
			"transcriptLength", len(transcript.Text),
			"checkpoint", result.Checkpoint)

		return result, err
	}

	result.Summary = summary
	result.CreatedAt = p.now().UTC()

	p.record(ctx, result)

	p.log.InfoContext(ctx, "Video is summarized",
		"videoID", id,
		"transcriptLength", len(result.Transcript),
		"summaryLength", len(result.Summary),
		"durationSeconds", p.now().Sub(start).Seconds())

	return result, nil
}

func (p *Pipeline) record(ctx context.Context, result *domain.Result) {
	if p.history == nil {
		return
	}

	id, err := p.history.SaveSummary(ctx, domain.SummaryRecord{
		VideoID:    result.VideoID,
		URL:        result.URL,
		Title:      result.Title,
		Summary:    result.Summary,
		Checkpoint: result.Checkpoint,
		CreatedAt:  result.CreatedAt,
	})
	if err != nil {
		p.log.ErrorContext(ctx, "Failed to save summary to history",
			"error", err,
			"videoID", result.VideoID)

		return
	}

	p.log.DebugContext(ctx, "Summary is saved to history",
		"recordID", id,
		"videoID", result.VideoID)
}
