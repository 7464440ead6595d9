package summarizer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytsummarizer/internal/domain"
	"ytsummarizer/internal/summarizer"
)

const (
	completedResponse = `{
		"id": "resp_2",
		"object": "response",
		"created_at": 1700000000,
		"status": "completed",
		"model": "gpt-5-mini",
		"output": [{
			"type": "message",
			"id": "msg_1",
			"status": "completed",
			"role": "assistant",
			"content": [{"type": "output_text", "text": " detailed notes ", "annotations": []}]
		}]
	}`

	reasoningOnlyIncompleteResponse = `{
		"id": "resp_1",
		"object": "response",
		"created_at": 1700000000,
		"status": "incomplete",
		"incomplete_details": {"reason": "max_output_tokens"},
		"model": "gpt-5-mini",
		"output": [{"type": "reasoning", "id": "rs_1", "summary": []}]
	}`

	filteredResponse = `{
		"id": "resp_3",
		"object": "response",
		"created_at": 1700000000,
		"status": "incomplete",
		"incomplete_details": {"reason": "content_filter"},
		"model": "gpt-5-mini",
		"output": []
	}`
)

type fakeResponsesAPI struct {
	mu        sync.Mutex
	responses []string
	bodies    []map[string]any
}

func (f *fakeResponsesAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.bodies = append(f.bodies, body)
	idx := min(len(f.bodies)-1, len(f.responses)-1)
	resp := f.responses[idx]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(resp))
}

func (f *fakeResponsesAPI) requests() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]map[string]any(nil), f.bodies...)
}

func newOpenAIModel(t *testing.T, api *fakeResponsesAPI) *summarizer.OpenAIModel {
	t.Helper()

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	model, err := summarizer.NewOpenAIModel(summarizer.OpenAIConfig{
		APIKey:  "sk-test",
		Model:   "gpt-5-mini",
		BaseURL: srv.URL + "/",
	})
	require.NoError(t, err)

	return model
}

func TestOpenAIModelGenerate(t *testing.T) {
	api := &fakeResponsesAPI{responses: []string{completedResponse}}
	model := newOpenAIModel(t, api)

	got, err := model.Generate(context.Background(), "summarise: text ", summarizer.DefaultDecodingConfig())
	require.NoError(t, err)
	assert.Equal(t, "detailed notes", got)
	assert.Equal(t, "gpt-5-mini", model.Checkpoint())

	reqs := api.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "summarise: text ", reqs[0]["input"])
	assert.Equal(t, float64(400), reqs[0]["max_output_tokens"])
	assert.Contains(t, reqs[0]["instructions"], "At least 100 and at most 400 tokens")
}

func TestOpenAIModelGrowsBudgetWhenOnlyReasoningFits(t *testing.T) {
	api := &fakeResponsesAPI{responses: []string{reasoningOnlyIncompleteResponse, completedResponse}}
	model := newOpenAIModel(t, api)

	got, err := model.Generate(context.Background(), "summarise: text ", summarizer.DefaultDecodingConfig())
	require.NoError(t, err)
	assert.Equal(t, "detailed notes", got)

	reqs := api.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, float64(400), reqs[0]["max_output_tokens"])
	assert.Equal(t, float64(800), reqs[1]["max_output_tokens"])
}

func TestOpenAIModelGivesUpAtBudgetLimit(t *testing.T) {
	api := &fakeResponsesAPI{responses: []string{reasoningOnlyIncompleteResponse}}
	model := newOpenAIModel(t, api)

	_, err := model.Generate(context.Background(), "summarise: text ", summarizer.DefaultDecodingConfig())
	require.ErrorIs(t, err, domain.ErrGeneration)

	assert.Len(t, api.requests(), 3)
}

func TestOpenAIModelIncompleteForOtherReason(t *testing.T) {
	api := &fakeResponsesAPI{responses: []string{filteredResponse}}
	model := newOpenAIModel(t, api)

	_, err := model.Generate(context.Background(), "summarise: text ", summarizer.DefaultDecodingConfig())
	require.ErrorIs(t, err, domain.ErrGeneration)
	assert.Contains(t, err.Error(), "content_filter")
}

func TestNewOpenAIModelRequiresAPIKey(t *testing.T) {
	_, err := summarizer.NewOpenAIModel(summarizer.OpenAIConfig{APIKey: " "})
	require.Error(t, err)
}
