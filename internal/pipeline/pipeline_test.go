package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytsummarizer/internal/domain"
	"ytsummarizer/internal/pipeline"
	"ytsummarizer/internal/youtube"
)

type stubService struct {
	segments []domain.TranscriptSegment
	err      error
}

func (s *stubService) Fetch(_ context.Context, id domain.VideoID) (*domain.Transcript, error) {
	if s.err != nil {
		return nil, s.err
	}

	return &domain.Transcript{VideoID: id, Title: "A talk", Segments: s.segments}, nil
}

type stubGenerator struct {
	mu          sync.Mutex
	transcripts []string
	err         error
}

func (g *stubGenerator) Checkpoint() string {
	return "t5-small"
}

func (g *stubGenerator) GenerateSummary(_ context.Context, transcript string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transcripts = append(g.transcripts, transcript)

	if g.err != nil {
		return "", g.err
	}

	return "summary of " + transcript, nil
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.transcripts)
}

type stubHistory struct {
	mu      sync.Mutex
	records []domain.SummaryRecord
	err     error
}

func (h *stubHistory) SaveSummary(_ context.Context, record domain.SummaryRecord) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.err != nil {
		return 0, h.err
	}

	h.records = append(h.records, record)

	return int64(len(h.records)), nil
}

func newPipeline(svc *stubService, gen *stubGenerator, history pipeline.HistoryRecorder) *pipeline.Pipeline {
	return pipeline.New(youtube.NewExtractor(svc, slog.Default()), gen, history, slog.Default())
}

func TestRun(t *testing.T) {
	svc := &stubService{segments: []domain.TranscriptSegment{{Text: "a"}, {Text: "b"}, {Text: "c"}}}
	gen := &stubGenerator{}
	history := &stubHistory{}

	result, err := newPipeline(svc, gen, history).Run(context.Background(), "https://www.youtube.com/watch?v=abc123")
	require.NoError(t, err)

	assert.Equal(t, domain.VideoID("abc123"), result.VideoID)
	assert.Equal(t, "http://img.youtube.com/vi/abc123/0.jpg", result.ThumbnailURL)
	assert.Equal(t, "a b c ", result.Transcript)
	assert.Equal(t, "summary of a b c ", result.Summary)
	assert.Equal(t, "A talk", result.Title)
	assert.Equal(t, "t5-small", result.Checkpoint)
	assert.False(t, result.CreatedAt.IsZero())

	require.Len(t, history.records, 1)
	assert.Equal(t, domain.VideoID("abc123"), history.records[0].VideoID)
	assert.Equal(t, result.Summary, history.records[0].Summary)
}

func TestRunURLParseError(t *testing.T) {
	gen := &stubGenerator{}

	result, err := newPipeline(&stubService{}, gen, nil).Run(context.Background(), "https://youtu.be/abc123")
	require.ErrorIs(t, err, domain.ErrURLParse)
	assert.Nil(t, result)
	assert.Zero(t, gen.callCount())
}

func TestRunTranscriptUnavailableSkipsGenerator(t *testing.T) {
	svc := &stubService{err: fmt.Errorf("%w: no captions", domain.ErrTranscriptUnavailable)}
	gen := &stubGenerator{}
	history := &stubHistory{}

	result, err := newPipeline(svc, gen, history).Run(context.Background(), "https://www.youtube.com/watch?v=abc123")
	require.ErrorIs(t, err, domain.ErrTranscriptUnavailable)
	assert.Zero(t, gen.callCount(), "generator must never be invoked without a transcript")
	assert.Empty(t, history.records)

	require.NotNil(t, result)
	assert.Equal(t, "http://img.youtube.com/vi/abc123/0.jpg", result.ThumbnailURL)
}

func TestRunGenerationError(t *testing.T) {
	svc := &stubService{segments: []domain.TranscriptSegment{{Text: "a"}}}
	gen := &stubGenerator{err: fmt.Errorf("%w: out of memory", domain.ErrGeneration)}
	history := &stubHistory{}

	_, err := newPipeline(svc, gen, history).Run(context.Background(), "https://www.youtube.com/watch?v=abc123")
	require.ErrorIs(t, err, domain.ErrGeneration)
	assert.Empty(t, history.records)
}

func TestRunHistoryFailureDoesNotFailRun(t *testing.T) {
	svc := &stubService{segments: []domain.TranscriptSegment{{Text: "a"}}}
	history := &stubHistory{err: errors.New("disk full")}

	result, err := newPipeline(svc, &stubGenerator{}, history).Run(context.Background(), "https://www.youtube.com/watch?v=abc123")
	require.NoError(t, err)
	assert.Equal(t, "summary of a ", result.Summary)
}

func TestDescribe(t *testing.T) {
	messages := map[string]bool{}

	for _, err := range []error{
		fmt.Errorf("x: %w", domain.ErrURLParse),
		fmt.Errorf("x: %w", domain.ErrTranscriptUnavailable),
		fmt.Errorf("x: %w", domain.ErrGeneration),
		errors.New("connection reset"),
	} {
		msg := pipeline.Describe(err)
		assert.NotEmpty(t, msg)
		messages[msg] = true
	}

	assert.Len(t, messages, 4, "every error kind needs a distinct message")
	assert.Empty(t, pipeline.Describe(nil))
}
