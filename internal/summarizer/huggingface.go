package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"ytsummarizer/internal/domain"
)

const (
	DefaultHuggingFaceURL = "https://api-inference.huggingface.co/models"

	maxInferenceResponseBytes = 1 << 20
)

type HuggingFaceConfig struct {
	// BaseURL is the inference endpoint prefix; the checkpoint is appended.
	BaseURL    string
	Checkpoint string
	Token      string
	HTTPClient *http.Client
}

// HuggingFaceModel runs a hosted checkpoint through the Hugging Face
// inference API, which tokenizes, decodes with the given generation
// parameters and detokenizes server side.
type HuggingFaceModel struct {
	client     *http.Client
	endpoint   string
	checkpoint string
	token      string
	log        *slog.Logger
}

func NewHuggingFaceModel(cfg HuggingFaceConfig, log *slog.Logger) (*HuggingFaceModel, error) {
	checkpoint := strings.Trim(strings.TrimSpace(cfg.Checkpoint), "/")
	if checkpoint == "" {
		return nil, errors.New("checkpoint is empty")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultHuggingFaceURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &HuggingFaceModel{
		client:     client,
		endpoint:   baseURL + "/" + checkpoint,
		checkpoint: checkpoint,
		token:      strings.TrimSpace(cfg.Token),
		log:        log,
	}, nil
}

func (m *HuggingFaceModel) Checkpoint() string {
	return m.checkpoint
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfParameters struct {
	NumBeams          int  `json:"num_beams"`
	NoRepeatNGramSize int  `json:"no_repeat_ngram_size"`
	MinLength         int  `json:"min_length"`
	MaxLength         int  `json:"max_length"`
	EarlyStopping     bool `json:"early_stopping"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

// hfOutput covers the text2text, summarization and translation pipelines.
// t5 checkpoints are tagged as translation models on the Hub.
type hfOutput struct {
	GeneratedText   string `json:"generated_text"`
	SummaryText     string `json:"summary_text"`
	TranslationText string `json:"translation_text"`
}

func (o hfOutput) text() string {
	for _, t := range []string{o.GeneratedText, o.SummaryText, o.TranslationText} {
		if t != "" {
			return t
		}
	}

	return ""
}

type hfError struct {
	Error string `json:"error"`
}

func (m *HuggingFaceModel) Generate(ctx context.Context, prompt string, cfg DecodingConfig) (string, error) {
	body, err := json.Marshal(hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			NumBeams:          cfg.NumBeams,
			NoRepeatNGramSize: cfg.NoRepeatNGramSize,
			MinLength:         cfg.MinLength,
			MaxLength:         cfg.MaxLength,
			EarlyStopping:     cfg.EarlyStopping,
		},
		Options: hfOptions{
			WaitForModel: true,
			UseCache:     false,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: do request: %w", domain.ErrGeneration, err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			m.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"checkpoint", m.checkpoint)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxInferenceResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", domain.ErrGeneration, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr hfError
		if jsonErr := json.Unmarshal(data, &apiErr); jsonErr == nil && apiErr.Error != "" {
			return "", fmt.Errorf("%w: inference API returned %d: %s",
				domain.ErrGeneration, resp.StatusCode, apiErr.Error)
		}

		return "", fmt.Errorf("%w: inference API returned %d", domain.ErrGeneration, resp.StatusCode)
	}

	var outputs []hfOutput
	if err = json.Unmarshal(data, &outputs); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", domain.ErrGeneration, err)
	}

	if len(outputs) == 0 {
		return "", fmt.Errorf("%w: inference API returned no sequences", domain.ErrGeneration)
	}

	return outputs[0].text(), nil
}
