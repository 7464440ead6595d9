package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"

	"ytsummarizer/internal/domain"
)

const (
	// Reasoning tokens count towards the output budget, so the budget may grow
	// up to this multiple of MaxLength when nothing visible was produced.
	maxOutputTokensGrowthLimit = 4

	statusIncomplete          = "incomplete"
	incompleteMaxOutputTokens = "max_output_tokens"

	instructionsTemplate = `You receive a task prefix followed by a video transcript.
Follow the prefix and write detailed notes of the transcript as plain prose.

Rules:
- At least %d and at most %d tokens.
- Never repeat any sequence of %d words.
- No introductions like "This video is about".
- Output in the same language as the transcript.`
)

type OpenAIConfig struct {
	APIKey string
	// Model defaults to gpt-5-mini.
	Model string
	// BaseURL overrides the API endpoint, mostly in tests.
	BaseURL string
}

// OpenAIModel calls OpenAI's Responses API. Beam search parameters cannot be
// passed through, so the length bounds and the n-gram rule are stated as
// instructions and MaxLength caps the output budget.
type OpenAIModel struct {
	client openai.Client
	model  openai.ChatModel
}

func NewOpenAIModel(cfg OpenAIConfig) (*OpenAIModel, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("API key is empty")
	}

	model := openai.ChatModelGPT5Mini2025_08_07
	if m := strings.TrimSpace(cfg.Model); m != "" {
		model = openai.ChatModel(m)
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIModel{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

func (m *OpenAIModel) Checkpoint() string {
	return string(m.model)
}

func (m *OpenAIModel) Generate(ctx context.Context, prompt string, cfg DecodingConfig) (string, error) {
	instructions := fmt.Sprintf(instructionsTemplate, cfg.MinLength, cfg.MaxLength, cfg.NoRepeatNGramSize)

	maxOutputTokens := int64(cfg.MaxLength)
	limitMaxOutputTokens := maxOutputTokens * maxOutputTokensGrowthLimit

	for {
		resp, err := m.client.Responses.New(ctx, responses.ResponseNewParams{
			Model:           m.model,
			ServiceTier:     responses.ResponseNewParamsServiceTierFlex,
			MaxOutputTokens: openai.Int(maxOutputTokens),
			Reasoning: responses.ReasoningParam{
				Effort: openai.ReasoningEffortLow,
			},
			Instructions: openai.String(instructions),
			Input: responses.ResponseNewParamsInputUnion{
				OfString: openai.String(prompt),
			},
		})
		if err != nil {
			return "", fmt.Errorf("%w: do request: %w", domain.ErrGeneration, err)
		}

		text := strings.TrimSpace(resp.OutputText())

		if resp.Status == statusIncomplete {
			reason := resp.IncompleteDetails.Reason
			switch {
			case reason == incompleteMaxOutputTokens && text != "":
				// Output cut at MaxLength, same as beam search hitting max_length.
				return text, nil
			case reason == incompleteMaxOutputTokens && maxOutputTokens < limitMaxOutputTokens:
				maxOutputTokens = min(maxOutputTokens*2, limitMaxOutputTokens)
				continue
			default:
				return "", fmt.Errorf(
					"%w: response is incomplete (reason = %s, maxOutputTokens = %d)",
					domain.ErrGeneration,
					reason,
					maxOutputTokens,
				)
			}
		}

		if text == "" {
			return "", fmt.Errorf("%w: output text is missing (status = %s)", domain.ErrGeneration, resp.Status)
		}

		return text, nil
	}
}
