package youtube

import (
	"fmt"
	"strings"

	"ytsummarizer/internal/domain"
)

const thumbnailURLFormat = "http://img.youtube.com/vi/%s/0.jpg"

// ParseVideoID returns the substring between the first '=' and the next '='
// (or the end of the string). Extra query parameters after the video
// identifier are not stripped: "watch?v=abc&t=30" yields "abc&t".
func ParseVideoID(rawURL string) (domain.VideoID, error) {
	parts := strings.Split(rawURL, "=")
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: %q has no '='", domain.ErrURLParse, rawURL)
	}

	if parts[1] == "" {
		return "", fmt.Errorf("%w: %q has an empty video ID", domain.ErrURLParse, rawURL)
	}

	return domain.VideoID(parts[1]), nil
}

func ThumbnailURL(id domain.VideoID) string {
	return fmt.Sprintf(thumbnailURLFormat, id)
}
