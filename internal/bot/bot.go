package bot

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"ytsummarizer/internal/domain"
	"ytsummarizer/internal/ratelimiter"
)

const defaultHistoryLimit = 10

type Summarizer interface {
	Run(ctx context.Context, rawURL string) (*domain.Result, error)
}

type HistoryLister interface {
	RecentSummaries(ctx context.Context, limit int) ([]domain.SummaryRecord, error)
}

type Bot struct {
	api          *tgbot.Bot
	rateLimiter  *ratelimiter.RateLimiter
	sender       ratelimiter.Sender
	summarizer   Summarizer
	history      HistoryLister
	historyLimit int
	allowedUsers []int64
	log          *slog.Logger
}

// New connects to Telegram. history may be nil; an empty allowedUsers lets
// everyone in.
func New(
	token string,
	summarizer Summarizer,
	history HistoryLister,
	historyLimit int,
	allowedUsers []int64,
	log *slog.Logger,
) (*Bot, error) {
	b := newBot(nil, summarizer, history, historyLimit, allowedUsers, log)

	api, err := tgbot.New(strings.TrimSpace(token), tgbot.WithDefaultHandler(b.handleUpdate))
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	b.api = api
	b.rateLimiter = ratelimiter.New(api, log)
	b.sender = b.rateLimiter

	return b, nil
}

func newBot(
	sender ratelimiter.Sender,
	summarizer Summarizer,
	history HistoryLister,
	historyLimit int,
	allowedUsers []int64,
	log *slog.Logger,
) *Bot {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}

	return &Bot{
		sender:       sender,
		summarizer:   summarizer,
		history:      history,
		historyLimit: historyLimit,
		allowedUsers: allowedUsers,
		log:          log,
	}
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	b.log.InfoContext(ctx, "Bot is started")

	b.api.Start(ctx)

	b.log.InfoContext(ctx, "Bot context is done",
		"error", ctx.Err())
}

func (b *Bot) Stop() {
	if b.rateLimiter != nil {
		b.rateLimiter.Stop()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil {
		return
	}

	message := update.Message
	chatID := message.Chat.ID
	userID := message.From.ID

	if !b.userAllowed(userID) {
		b.log.DebugContext(ctx, "User is not allowed",
			"userID", userID,
			"chatID", chatID,
			"username", message.From.Username,
			"chatType", message.Chat.Type)

		return
	}

	if err := b.handleMessage(ctx, message); err != nil {
		b.log.ErrorContext(ctx, "Failed to handle message",
			"error", err,
			"chatID", chatID,
			"userID", userID,
			"chatType", message.Chat.Type,
			"messageID", message.ID)
	}
}

func (b *Bot) userAllowed(userID int64) bool {
	return len(b.allowedUsers) == 0 || slices.Contains(b.allowedUsers, userID)
}
