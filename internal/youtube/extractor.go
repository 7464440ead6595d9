package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ytsummarizer/internal/domain"
)

// TranscriptService retrieves a video's transcript with its timed segments in
// chronological order. Implementations report missing captions with
// domain.ErrTranscriptUnavailable.
type TranscriptService interface {
	Fetch(ctx context.Context, id domain.VideoID) (*domain.Transcript, error)
}

type Extractor struct {
	service TranscriptService
	log     *slog.Logger
}

func NewExtractor(service TranscriptService, log *slog.Logger) *Extractor {
	return &Extractor{
		service: service,
		log:     log,
	}
}

// ExtractTranscript is the URL-level entry point: it derives the video ID
// from rawURL and returns the concatenated transcript text. The shells go
// through pipeline.Pipeline, which parses the ID once and calls Extract.
func (e *Extractor) ExtractTranscript(ctx context.Context, rawURL string) (string, error) {
	id, err := ParseVideoID(rawURL)
	if err != nil {
		return "", err
	}

	transcript, err := e.Extract(ctx, id)
	if err != nil {
		return "", err
	}

	return transcript.Text, nil
}

func (e *Extractor) Extract(ctx context.Context, id domain.VideoID) (*domain.Transcript, error) {
	transcript, err := e.service.Fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch transcript: %w", err)
	}

	transcript.Text = JoinSegments(transcript.Segments)

	e.log.DebugContext(ctx, "Transcript is fetched",
		"videoID", id,
		"language", transcript.Language,
		"segmentCount", len(transcript.Segments),
		"textLength", len(transcript.Text))

	return transcript, nil
}

// JoinSegments appends a single space after every segment text, so the
// result keeps a trailing space.
func JoinSegments(segments []domain.TranscriptSegment) string {
	size := 0
	for _, s := range segments {
		size += len(s.Text) + 1
	}

	var b strings.Builder
	b.Grow(size)

	for _, s := range segments {
		b.WriteString(s.Text)
		b.WriteByte(' ')
	}

	return b.String()
}
