package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"articlelens/internal/domain"
	"articlelens/internal/ratelimiter"
)

const updateProcessingTimeout = 5 * time.Minute

// Processor runs one article request end to end.
type Processor interface {
	Process(ctx context.Context, req domain.ArticleRequest) (domain.Result, error)
}

// sender is the subset of the Telegram client the handlers talk to.
type sender interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *tgbot.SendPhotoParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *tgbot.SendChatActionParams) (bool, error)
	AnswerCallbackQuery(ctx context.Context, params *tgbot.AnswerCallbackQueryParams) (bool, error)
}

type Bot struct {
	client       *tgbot.Bot
	api          sender
	rateLimiter  *ratelimiter.RateLimiter
	processor    Processor
	modeKeyboard *models.InlineKeyboardMarkup
	log          *slog.Logger
}

func New(token string, processor Processor, log *slog.Logger, opts ...tgbot.Option) (*Bot, error) {
	b := &Bot{
		rateLimiter:  ratelimiter.New(ratelimiter.PrivateChatRate, ratelimiter.GroupChatRate),
		processor:    processor,
		modeKeyboard: getModeKeyboard(),
		log:          log,
	}

	options := append([]tgbot.Option{
		tgbot.WithDefaultHandler(b.handleUpdate),
		tgbot.WithCallbackQueryDataHandler(modeCallbackPrefix, tgbot.MatchTypePrefix, b.handleCallbackQueryUpdate),
	}, opts...)

	client, err := tgbot.New(strings.TrimSpace(token), options...)
	if err != nil {
		return nil, fmt.Errorf("create telegram client: %w", err)
	}

	b.client = client
	b.api = client

	return b, nil
}

// Start long-polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	b.log.InfoContext(ctx, "Bot is polling for updates")
	b.client.Start(ctx)
	b.log.InfoContext(ctx, "Bot context is done",
		"error", ctx.Err())
}

func (b *Bot) handleUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update == nil || update.Message == nil {
		return
	}

	updateCtx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
	defer cancel()

	message := update.Message

	if err := b.handleMessage(updateCtx, message); err != nil {
		b.log.ErrorContext(updateCtx, "Failed to handle message",
			"error", err,
			"chatID", message.Chat.ID,
			"chatType", message.Chat.Type,
			"userID", senderID(message),
			"messageID", message.ID)
	}
}

func (b *Bot) handleCallbackQueryUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update == nil || update.CallbackQuery == nil {
		return
	}

	updateCtx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
	defer cancel()

	callback := update.CallbackQuery

	if err := b.handleCallbackQuery(updateCtx, callback); err != nil {
		b.log.ErrorContext(updateCtx, "Failed to handle callback query",
			"error", err,
			"userID", callback.From.ID,
			"data", callback.Data)
	}
}

func senderID(message *models.Message) int64 {
	if message.From == nil {
		return 0
	}

	return message.From.ID
}
