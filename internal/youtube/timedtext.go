package youtube

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ytsummarizer/internal/domain"
)

var tagRe = regexp.MustCompile(`<[^>]*>`)

type timedText struct {
	Lines []timedTextLine `xml:"text"`
}

type timedTextLine struct {
	Start    string `xml:"start,attr"`
	Duration string `xml:"dur,attr"`
	Text     string `xml:",chardata"`
}

func (c *Client) fetchTimedText(ctx context.Context, baseURL string) ([]domain.TranscriptSegment, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("%w: caption track has no URL", domain.ErrTranscriptUnavailable)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse caption track URL: %w", err)
	}

	// Drop format overrides such as fmt=srv3 so the classic XML is served.
	q := u.Query()
	q.Del("fmt")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			c.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"url", u.Redacted())
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, "timedtext")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTimedTextBytes))
	if err != nil {
		return nil, fmt.Errorf("read timedtext: %w", err)
	}

	return parseTimedText(body)
}

func parseTimedText(body []byte) ([]domain.TranscriptSegment, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, fmt.Errorf("%w: timedtext is empty", domain.ErrTranscriptUnavailable)
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	segments := make([]domain.TranscriptSegment, 0, len(tt.Lines))
	var errs []error

	for i, line := range tt.Lines {
		if line.Text == "" {
			continue
		}

		start, err := parseSeconds(line.Start)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d start: %w", i, err))
			continue
		}

		duration, err := parseSeconds(line.Duration)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d dur: %w", i, err))
			continue
		}

		segments = append(segments, domain.TranscriptSegment{
			Text:     cleanLine(line.Text),
			Start:    start,
			Duration: duration,
		})
	}

	if len(segments) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return segments, nil
}

// cleanLine unescapes the HTML entities YouTube double-encodes and strips
// inline formatting tags.
func cleanLine(text string) string {
	return tagRe.ReplaceAllString(html.UnescapeString(text), "")
}

func parseSeconds(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}

	return time.Duration(f * float64(time.Second)), nil
}
