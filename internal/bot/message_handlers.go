package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"
	"mvdan.cc/xurls/v2"

	"articlelens/internal/apperror"
	"articlelens/internal/domain"
)

const welcomeText = `🤖 Welcome to ArticleLens!

Send me a link to an article and pick what to do with it:

📝 About: a short summary
📌 Theses: the key points as a numbered list
✈️ Telegram post: a ready-to-publish post
🎨 Illustration: a picture inspired by the article

Or use a command directly:
/about <url>
/thesis <url>
/telegram <url>
/illustration <url>`

const noURLText = "✖️ I could not find an https link in your message. Send me an article URL."

func (b *Bot) handleMessage(ctx context.Context, message *models.Message) error {
	text := strings.TrimSpace(message.Text)
	chatID := message.Chat.ID

	command, args := parseCommand(text)

	switch command {
	case "start", "help":
		return b.sendText(ctx, chatID, 0, welcomeText, nil)
	case "":
	default:
		mode, ok := commandMode(command)
		if !ok {
			return b.sendText(ctx, chatID, message.ID, welcomeText, nil)
		}

		articleURL, err := extractURL(args)
		if err != nil {
			return fmt.Errorf("extract url: %w", err)
		}

		if articleURL == "" {
			return b.sendText(ctx, chatID, message.ID, failureText(apperror.InvalidURL), nil)
		}

		return b.runMode(ctx, chatID, message.ID, mode, articleURL)
	}

	articleURL, err := extractURL(text)
	if err != nil {
		return fmt.Errorf("extract url: %w", err)
	}

	if articleURL == "" {
		return b.sendText(ctx, chatID, message.ID, noURLText, nil)
	}

	return b.sendText(ctx, chatID, message.ID, "What should I do with this article?", b.modeKeyboard)
}

// runMode processes the article and replies with the result or a failure
// message. A failed pipeline run is not an error of the handler.
func (b *Bot) runMode(
	ctx context.Context,
	chatID int64,
	replyTo int,
	mode domain.Mode,
	articleURL string,
) error {
	action := models.ChatActionTyping
	if mode.IsImage() {
		action = models.ChatActionUploadPhoto
	}

	return b.withSpinner(ctx, chatID, action, func() error {
		result, err := b.processor.Process(ctx, domain.ArticleRequest{URL: articleURL, Mode: mode})
		if err != nil {
			return b.sendText(ctx, chatID, replyTo, failureText(apperror.CategoryOf(err)), nil)
		}

		if result.Mode.IsImage() {
			return b.sendPhoto(ctx, chatID, replyTo, result.Image)
		}

		return b.sendLongText(ctx, chatID, replyTo, result.Text)
	})
}

func (b *Bot) sendLongText(ctx context.Context, chatID int64, replyTo int, text string) error {
	var errs []error

	for i, chunk := range splitMessage(text, telegramMessageMaxLength) {
		// Only the first chunk is threaded to the request.
		chunkReplyTo := replyTo
		if i > 0 {
			chunkReplyTo = 0
		}

		if err := b.sendText(ctx, chatID, chunkReplyTo, chunk, nil); err != nil {
			errs = append(errs, fmt.Errorf("send chunk %d: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

func failureText(category apperror.Category) string {
	return "❌ " + category.UserMessage()
}

// parseCommand splits "/cmd@bot args" into "cmd" and "args". Text that is not
// a command yields an empty command.
func parseCommand(text string) (string, string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}

	head, args, _ := strings.Cut(text, " ")
	head, _, _ = strings.Cut(strings.TrimPrefix(head, "/"), "@")

	return strings.ToLower(head), strings.TrimSpace(args)
}

func commandMode(command string) (domain.Mode, bool) {
	for _, mode := range domain.Modes() {
		if string(mode) == command {
			return mode, true
		}
	}

	return "", false
}

func extractURL(text string) (string, error) {
	re, err := xurls.StrictMatchingScheme("https://")
	if err != nil {
		return "", fmt.Errorf("compile url pattern: %w", err)
	}

	return re.FindString(text), nil
}
