package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ytsummarizer/internal/markdown"
)

const welcomeText = `🎬 *Welcome to YouTube Video Summarizer\!*

Send me a YouTube video link and I will reply with detailed notes of its transcript\.

– Links look like https://www\.youtube\.com/watch?v\=VIDEO\_ID
– Only videos with captions in a supported language can be summarized
– See recent summaries with /history`

func (b *Bot) handleStartCommand(ctx context.Context, chatID int64) error {
	return b.sendText(ctx, chatID, welcomeText)
}

func (b *Bot) handleHistoryCommand(ctx context.Context, chatID int64) error {
	if b.history == nil {
		return b.sendText(ctx, chatID, "✖️ History is disabled\\.")
	}

	records, err := b.history.RecentSummaries(ctx, b.historyLimit)
	if err != nil {
		errs := []error{fmt.Errorf("get recent summaries: %w", err)}

		if sendErr := b.sendText(ctx, chatID, "❌ Failed\\."); sendErr != nil {
			errs = append(errs, fmt.Errorf("send message: %w", sendErr))
		}

		return errors.Join(errs...)
	}

	if len(records) == 0 {
		return b.sendText(ctx, chatID, "✖️ No summaries yet\\.")
	}

	var message strings.Builder
	fmt.Fprintf(&message, "🕘 *Last %d summaries:*\n\n", len(records))

	for _, r := range records {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = string(r.VideoID)
		}

		fmt.Fprintf(&message, "– [%s](%s) %s\n",
			markdown.EscapeV2(title),
			escapeLinkURL(r.URL),
			markdown.EscapeV2(r.CreatedAt.UTC().Format("2006-01-02 15:04 UTC")))
	}

	return b.sendText(ctx, chatID, message.String())
}

// Inside (...) of an inline link only ')' and '\' have to be escaped.
func escapeLinkURL(url string) string {
	return strings.NewReplacer(`\`, `\\`, `)`, `\)`).Replace(url)
}
