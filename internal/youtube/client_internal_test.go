package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytsummarizer/internal/domain"
)

const watchPageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta name="title" content="Meta title">
<script>window.ytcfg = {"x": "ytInitialPlayerResponse"};</script>
</head>
<body>
<script>var ytInitialPlayerResponse = %s;var meta = {"a": 1};</script>
</body>
</html>`

const timedTextBody = `<?xml version="1.0" encoding="utf-8" ?>
<transcript>
<text start="0.5" dur="1.25">Hello &amp;amp; welcome</text>
<text start="1.75" dur="2">it&amp;#39;s &lt;font color=&quot;#fff&quot;&gt;fine&lt;/font&gt;</text>
<text start="3.75" dur="1"></text>
</transcript>`

type fakeYouTube struct {
	mu          sync.Mutex
	srv         *httptest.Server
	player      func(baseURL string) string
	watchStatus int
	timedFormat string
	timedHits   int
}

func newFakeYouTube(t *testing.T, player func(baseURL string) string) *fakeYouTube {
	t.Helper()

	f := &fakeYouTube{player: player, watchStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		status := f.watchStatus
		f.mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, watchPageTemplate, f.player(f.srv.URL))
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.timedHits++
		f.timedFormat = r.URL.Query().Get("fmt")
		f.mu.Unlock()

		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(timedTextBody))
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)

	return f
}

func (f *fakeYouTube) setWatchStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watchStatus = status
}

func (f *fakeYouTube) timedTextRequests() (int, string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.timedHits, f.timedFormat
}

func okPlayer(tracks string) func(string) string {
	return func(baseURL string) string {
		return fmt.Sprintf(`{
			"playabilityStatus": {"status": "OK"},
			"videoDetails": {"videoId": "abc123", "title": "Test {video}"},
			"captions": {"playerCaptionsTracklistRenderer": {"captionTracks": [%s]}}
		}`, strings.ReplaceAll(tracks, "BASE", baseURL))
	}
}

func newTestClient(f *fakeYouTube, languages ...string) *Client {
	return NewClient(ClientConfig{
		HTTPClient: f.srv.Client(),
		BaseURL:    f.srv.URL,
		Languages:  languages,
	}, slog.Default())
}

func TestClientFetch(t *testing.T) {
	f := newFakeYouTube(t, okPlayer(
		`{"baseUrl": "BASE/api/timedtext?v=abc123&lang=en&fmt=srv3", "languageCode": "en", "kind": "asr"}`,
	))

	transcript, err := newTestClient(f).Fetch(context.Background(), "abc123")
	require.NoError(t, err)

	assert.Equal(t, domain.VideoID("abc123"), transcript.VideoID)
	assert.Equal(t, "Test {video}", transcript.Title)
	assert.Equal(t, "en", transcript.Language)
	assert.Equal(t, []domain.TranscriptSegment{
		{Text: "Hello & welcome", Start: 500 * time.Millisecond, Duration: 1250 * time.Millisecond},
		{Text: "it's fine", Start: 1750 * time.Millisecond, Duration: 2 * time.Second},
	}, transcript.Segments)
	hits, format := f.timedTextRequests()
	assert.Equal(t, 1, hits)
	assert.Empty(t, format, "fmt override must be dropped")
}

func TestExtractorWithClient(t *testing.T) {
	f := newFakeYouTube(t, okPlayer(
		`{"baseUrl": "BASE/api/timedtext?v=abc123&lang=en", "languageCode": "en"}`,
	))

	ex := NewExtractor(newTestClient(f), slog.Default())

	text, err := ex.ExtractTranscript(context.Background(), "https://www.youtube.com/watch?v=abc123")
	require.NoError(t, err)
	assert.Equal(t, "Hello & welcome it's fine ", text)
}

func TestClientFetchUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		player func(string) string
		langs  []string
	}{
		{
			"Transcripts disabled",
			func(string) string {
				return `{"playabilityStatus": {"status": "OK"}, "videoDetails": {"title": "x"}}`
			},
			nil,
		},
		{
			"Video unplayable",
			func(string) string {
				return `{"playabilityStatus": {"status": "LOGIN_REQUIRED", "reason": "Sign in"}}`
			},
			nil,
		},
		{
			"No track in preferred language",
			okPlayer(`{"baseUrl": "BASE/api/timedtext?lang=de", "languageCode": "de"}`),
			[]string{"en"},
		},
		{
			"Empty track list",
			okPlayer(``),
			nil,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newFakeYouTube(t, test.player)

			_, err := newTestClient(f, test.langs...).Fetch(context.Background(), "abc123")
			require.ErrorIs(t, err, domain.ErrTranscriptUnavailable)
			hits, _ := f.timedTextRequests()
			assert.Zero(t, hits)
		})
	}
}

func TestClientFetchWatchPageNotFound(t *testing.T) {
	f := newFakeYouTube(t, okPlayer(``))
	f.setWatchStatus(http.StatusNotFound)

	_, err := newTestClient(f).Fetch(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrTranscriptUnavailable)
}

func TestClientFetchServerError(t *testing.T) {
	f := newFakeYouTube(t, okPlayer(``))
	f.setWatchStatus(http.StatusInternalServerError)

	_, err := newTestClient(f).Fetch(context.Background(), "abc123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrTranscriptUnavailable)
}

func TestPickTrackPrefersManualTracks(t *testing.T) {
	tracks := []captionTrack{
		{BaseURL: "asr-en", LanguageCode: "en", Kind: "asr"},
		{BaseURL: "manual-fr", LanguageCode: "fr"},
		{BaseURL: "manual-en", LanguageCode: "en"},
	}

	got, ok := pickTrack(tracks, []string{"en"})
	require.True(t, ok)
	assert.Equal(t, "manual-en", got.BaseURL)

	got, ok = pickTrack(tracks, []string{"de", "fr", "en"})
	require.True(t, ok)
	assert.Equal(t, "manual-fr", got.BaseURL)

	got, ok = pickTrack(tracks[:1], []string{"en"})
	require.True(t, ok)
	assert.Equal(t, "asr-en", got.BaseURL)

	_, ok = pickTrack(tracks, []string{"de"})
	assert.False(t, ok)
}

func TestExtractJSONObject(t *testing.T) {
	data := []byte(`{"a": "}{\"", "b": {"c": [1, 2]}};var x = {};`)

	got := extractJSONObject(data)
	assert.Equal(t, `{"a": "}{\"", "b": {"c": [1, 2]}}`, string(got))

	assert.Nil(t, extractJSONObject([]byte(`{"unterminated": 1`)))
	assert.Nil(t, extractJSONObject([]byte(`null`)))
}

func TestParseTimedTextInvalidXML(t *testing.T) {
	_, err := parseTimedText([]byte("<transcript><text>"))
	require.Error(t, err)

	_, err = parseTimedText([]byte("   "))
	require.ErrorIs(t, err, domain.ErrTranscriptUnavailable)
}

func TestParseTimedTextBadTimestamps(t *testing.T) {
	_, err := parseTimedText([]byte(`<transcript><text start="x" dur="1">a</text></transcript>`))
	require.Error(t, err)

	segments, err := parseTimedText([]byte(`<transcript><text>a</text><text start="1" dur="y">b</text></transcript>`))
	require.NoError(t, err)
	assert.Equal(t, []domain.TranscriptSegment{{Text: "a"}}, segments)
}
