package pipeline

import "ytsummarizer/internal/domain"

// Describe returns the message shown to users for err.
func Describe(err error) string {
	switch domain.KindOf(err) {
	case domain.KindNone:
		return ""
	case domain.KindURLParse:
		return "That does not look like a YouTube video link. Paste a link such as https://www.youtube.com/watch?v=VIDEO_ID."
	case domain.KindTranscriptUnavailable:
		return "No transcript is available for this video. Captions may be disabled or missing in a supported language."
	case domain.KindGeneration:
		return "The summary could not be generated. The transcript may be too long for the model, try again later."
	default:
		return "Something went wrong while summarizing this video. Try again later."
	}
}
