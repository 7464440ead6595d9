package summarizer

import (
	"context"
)

const promptPrefix = "summarise: "

// DecodingConfig holds the beam search parameters passed to the model.
type DecodingConfig struct {
	NumBeams          int
	NoRepeatNGramSize int
	// MinLength and MaxLength are measured in output tokens.
	MinLength     int
	MaxLength     int
	EarlyStopping bool
}

// DefaultDecodingConfig returns the fixed configuration every summary is
// generated with.
func DefaultDecodingConfig() DecodingConfig {
	return DecodingConfig{
		NumBeams:          4,
		NoRepeatNGramSize: 3,
		MinLength:         100,
		MaxLength:         400,
		EarlyStopping:     false,
	}
}

// Model is a loaded pretrained text-to-text model together with its
// tokenizer. Implementations are read-only after construction and safe for
// concurrent use. Generate returns the decoded output, which may still carry
// control tokens.
type Model interface {
	Checkpoint() string
	Generate(ctx context.Context, prompt string, cfg DecodingConfig) (string, error)
}

// BuildPrompt prefixes the transcript with the task instruction. The
// transcript is not truncated.
func BuildPrompt(transcript string) string {
	return promptPrefix + transcript
}
