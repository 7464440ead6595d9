package domain

import (
	"errors"
	"time"
)

var (
	// ErrURLParse is returned when a video identifier cannot be derived from a URL.
	ErrURLParse = errors.New("url parse error")
	// ErrTranscriptUnavailable is returned when no transcript can be retrieved for a video.
	ErrTranscriptUnavailable = errors.New("transcript unavailable")
	// ErrGeneration is returned on tokenizer or model runtime faults.
	ErrGeneration = errors.New("generation error")
)

type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindURLParse
	KindTranscriptUnavailable
	KindGeneration
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindURLParse:
		return "url_parse"
	case KindTranscriptUnavailable:
		return "transcript_unavailable"
	case KindGeneration:
		return "generation"
	default:
		return "unknown"
	}
}

// KindOf reports which member of the error taxonomy err belongs to.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrURLParse):
		return KindURLParse
	case errors.Is(err, ErrTranscriptUnavailable):
		return KindTranscriptUnavailable
	case errors.Is(err, ErrGeneration):
		return KindGeneration
	default:
		return KindUnknown
	}
}

type VideoID string

type TranscriptSegment struct {
	Text     string
	Start    time.Duration
	Duration time.Duration
}

// Transcript is a video's caption track. Text holds the segments joined for
// summarization.
type Transcript struct {
	VideoID  VideoID
	Title    string
	Language string
	Segments []TranscriptSegment
	Text     string
}

type Result struct {
	VideoID      VideoID
	URL          string
	ThumbnailURL string
	Title        string
	Transcript   string
	Summary      string
	Checkpoint   string
	CreatedAt    time.Time
}

type SummaryRecord struct {
	ID         int64
	VideoID    VideoID
	URL        string
	Title      string
	Summary    string
	Checkpoint string
	CreatedAt  time.Time
}
