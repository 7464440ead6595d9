package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"mvdan.cc/xurls/v2"

	"ytsummarizer/internal/domain"
	"ytsummarizer/internal/markdown"
	"ytsummarizer/internal/pipeline"
)

//nolint:gochecknoglobals // Compiled once, safe for concurrent use.
var urlRe = xurls.Strict()

func (b *Bot) handleMessage(ctx context.Context, message *models.Message) error {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	switch {
	case text == "":
		return nil
	case strings.HasPrefix(text, "/start"):
		return b.handleStartCommand(ctx, chatID)
	case strings.HasPrefix(text, "/history"):
		return b.handleHistoryCommand(ctx, chatID)
	default:
		return b.withSpinner(ctx, chatID, func() error {
			return b.handleVideoLink(ctx, chatID, text)
		})
	}
}

func (b *Bot) handleVideoLink(ctx context.Context, chatID int64, text string) error {
	rawURL := findURL(text)

	result, err := b.summarizer.Run(ctx, rawURL)
	if err != nil {
		b.log.InfoContext(ctx, "Video is not summarized",
			"error", err,
			"chatID", chatID,
			"url", rawURL,
			"kind", domain.KindOf(err).String())

		reply := "❌ " + markdown.EscapeV2(pipeline.Describe(err))
		if sendErr := b.sendText(ctx, chatID, reply); sendErr != nil {
			return fmt.Errorf("send message: %w", sendErr)
		}

		return nil
	}

	var errs []error

	if _, err = b.sender.SendPhoto(ctx, &tgbot.SendPhotoParams{
		ChatID:    chatID,
		Photo:     &models.InputFileString{Data: result.ThumbnailURL},
		Caption:   markdown.EscapeV2(result.Title),
		ParseMode: models.ParseModeMarkdown,
	}); err != nil {
		errs = append(errs, fmt.Errorf("send photo: %w", err))
	}

	if err = b.sendText(ctx, chatID, markdown.Notes(result.Summary)); err != nil {
		errs = append(errs, fmt.Errorf("send notes: %w", err))
	}

	return errors.Join(errs...)
}

// findURL returns the first URL in text, or text itself when there is none.
func findURL(text string) string {
	if u := urlRe.FindString(text); u != "" {
		return u
	}

	return strings.TrimSpace(text)
}
