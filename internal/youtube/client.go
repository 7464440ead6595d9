package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"ytsummarizer/internal/domain"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

	defaultBaseURL     = "https://www.youtube.com"
	watchPath          = "/watch"
	playerResponseName = "ytInitialPlayerResponse"
	playerResponseMark = playerResponseName + " = "

	maxWatchPageBytes = 6 << 20
	maxTimedTextBytes = 2 << 20

	playabilityOK = "OK"
	kindASR       = "asr"
)

var DefaultLanguages = []string{"en"}

type ClientConfig struct {
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	// BaseURL replaces https://www.youtube.com, mostly in tests.
	BaseURL string
	// Languages lists caption languages in order of preference.
	Languages []string
	// RequestsPerSecond throttles outbound requests; zero disables throttling.
	RequestsPerSecond float64
}

// Client scrapes the watch page for caption tracks and downloads the
// timedtext XML of the best matching track.
type Client struct {
	httpClient *http.Client
	baseURL    string
	languages  []string
	limiter    *rate.Limiter
	log        *slog.Logger
}

func NewClient(cfg ClientConfig, log *slog.Logger) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	languages := make([]string, 0, len(cfg.Languages))
	for _, l := range cfg.Languages {
		if l = strings.TrimSpace(l); l != "" {
			languages = append(languages, l)
		}
	}
	if len(languages) == 0 {
		languages = DefaultLanguages
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		languages:  languages,
		limiter:    rate.NewLimiter(limit, 1),
		log:        log,
	}
}

type playerResponse struct {
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails *struct {
		VideoID string `json:"videoId"`
		Title   string `json:"title"`
	} `json:"videoDetails"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type watchPage struct {
	title  string
	player playerResponse
}

func (c *Client) Fetch(ctx context.Context, id domain.VideoID) (*domain.Transcript, error) {
	page, err := c.fetchWatchPage(ctx, id)
	if err != nil {
		return nil, err
	}

	if status := page.player.PlayabilityStatus; status != nil && status.Status != "" && status.Status != playabilityOK {
		return nil, fmt.Errorf("%w: video %s is %s: %s",
			domain.ErrTranscriptUnavailable, id, strings.ToLower(status.Status), status.Reason)
	}

	if page.player.Captions == nil {
		return nil, fmt.Errorf("%w: transcripts are disabled for video %s", domain.ErrTranscriptUnavailable, id)
	}

	tracks := page.player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	track, ok := pickTrack(tracks, c.languages)
	if !ok {
		return nil, fmt.Errorf("%w: no transcript for video %s in %v (available: %v)",
			domain.ErrTranscriptUnavailable, id, c.languages, trackLanguages(tracks))
	}

	segments, err := c.fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return nil, err
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: transcript for video %s is empty", domain.ErrTranscriptUnavailable, id)
	}

	title := page.title
	if page.player.VideoDetails != nil && page.player.VideoDetails.Title != "" {
		title = page.player.VideoDetails.Title
	}

	c.log.DebugContext(ctx, "Caption track is selected",
		"videoID", id,
		"language", track.LanguageCode,
		"kind", track.Kind,
		"trackCount", len(tracks))

	return &domain.Transcript{
		VideoID:  id,
		Title:    title,
		Language: track.LanguageCode,
		Segments: segments,
	}, nil
}

func (c *Client) fetchWatchPage(ctx context.Context, id domain.VideoID) (*watchPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+watchPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	q := req.URL.Query()
	q.Set("v", string(id))
	req.URL.RawQuery = q.Encode()

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch watch page: %w", err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			c.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"videoID", id)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, "watch page")
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxWatchPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parse watch page: %w", err)
	}

	page := &watchPage{
		title: pageTitle(doc),
	}

	raw := findPlayerResponse(doc)
	if raw == nil {
		return nil, fmt.Errorf("%w: %s not found in watch page of video %s",
			domain.ErrTranscriptUnavailable, playerResponseName, id)
	}

	if err = json.Unmarshal(raw, &page.player); err != nil {
		return nil, fmt.Errorf("decode %s: %w", playerResponseName, err)
	}

	return page, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	return c.httpClient.Do(req)
}

func statusError(code int, what string) error {
	switch code {
	case http.StatusNotFound, http.StatusGone:
		return fmt.Errorf("%w: %s returned %d", domain.ErrTranscriptUnavailable, what, code)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s is rate limited (%d)", domain.ErrTranscriptUnavailable, what, code)
	default:
		return fmt.Errorf("%s returned unexpected status %d", what, code)
	}
}

func pageTitle(doc *goquery.Document) string {
	if title, ok := doc.Find(`meta[name="title"]`).Attr("content"); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}

	if title, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		return strings.TrimSpace(title)
	}

	return ""
}

func findPlayerResponse(doc *goquery.Document) []byte {
	var raw []byte

	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()

		idx := strings.Index(text, playerResponseMark)
		if idx < 0 {
			return true
		}

		raw = extractJSONObject([]byte(text[idx+len(playerResponseMark):]))

		return raw == nil
	})

	return raw
}

// extractJSONObject returns the balanced JSON object at the start of data,
// skipping braces inside string literals.
func extractJSONObject(data []byte) []byte {
	if len(data) == 0 || data[0] != '{' {
		return nil
	}

	depth := 0
	inString := false
	escaped := false

	for i, c := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}

			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return data[:i+1]
			}
		}
	}

	return nil
}

// pickTrack prefers manually created tracks over auto-generated ones, in the
// order of languages. Other languages are never used as a fallback.
func pickTrack(tracks []captionTrack, languages []string) (captionTrack, bool) {
	for _, lang := range languages {
		for _, t := range tracks {
			if t.LanguageCode == lang && t.Kind != kindASR {
				return t, true
			}
		}
	}

	for _, lang := range languages {
		for _, t := range tracks {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}

	return captionTrack{}, false
}

func trackLanguages(tracks []captionTrack) []string {
	langs := make([]string, 0, len(tracks))
	for _, t := range tracks {
		langs = append(langs, t.LanguageCode)
	}

	return langs
}
