package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf16"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const sendSpinnerInterval = 4 * time.Second

func (b *Bot) sendChatAction(ctx context.Context, chatID int64, action models.ChatAction) {
	if _, err := b.api.SendChatAction(ctx, &tgbot.SendChatActionParams{
		ChatID: chatID,
		Action: action,
	}); err != nil && !errors.Is(err, context.Canceled) {
		b.log.ErrorContext(ctx, "Failed to send chat action",
			"error", err,
			"chatID", chatID,
			"action", action)
	}
}

// withSpinner refreshes the chat action until fn returns. Telegram clears an
// action after about five seconds.
func (b *Bot) withSpinner(ctx context.Context, chatID int64, action models.ChatAction, fn func() error) error {
	spinCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		b.sendChatAction(spinCtx, chatID, action)

		t := time.NewTicker(sendSpinnerInterval)
		defer t.Stop()

		for {
			select {
			case <-spinCtx.Done():
				return
			case <-t.C:
				b.sendChatAction(spinCtx, chatID, action)
			}
		}
	}()

	return fn()
}

func (b *Bot) sendText(
	ctx context.Context,
	chatID int64,
	replyTo int,
	text string,
	keyboard *models.InlineKeyboardMarkup,
) error {
	normalizedText := strings.ToValidUTF8(text, "?")
	if normalizedText != text {
		b.log.WarnContext(ctx, "Message text had invalid UTF-8 and was normalized",
			"chatID", chatID,
			"originalLen", len(text),
			"normalizedLen", len(normalizedText))
	}

	if err := b.rateLimiter.Wait(ctx, chatID); err != nil {
		return fmt.Errorf("wait for send slot: %w", err)
	}

	params := &tgbot.SendMessageParams{
		ChatID:             chatID,
		Text:               normalizedText,
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: tgbot.True()},
		ReplyParameters:    replyParameters(replyTo),
	}

	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	if _, err := b.api.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

func (b *Bot) sendPhoto(ctx context.Context, chatID int64, replyTo int, image []byte) error {
	if err := b.rateLimiter.Wait(ctx, chatID); err != nil {
		return fmt.Errorf("wait for send slot: %w", err)
	}

	if _, err := b.api.SendPhoto(ctx, &tgbot.SendPhotoParams{
		ChatID: chatID,
		Photo: &models.InputFileUpload{
			Filename: "illustration.png",
			Data:     bytes.NewReader(image),
		},
		ReplyParameters: replyParameters(replyTo),
	}); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}

	return nil
}

func replyParameters(replyTo int) *models.ReplyParameters {
	if replyTo == 0 {
		return nil
	}

	return &models.ReplyParameters{
		MessageID:                replyTo,
		AllowSendingWithoutReply: true,
	}
}

// splitMessage cuts text into chunks of at most maxLen UTF-16 code units,
// the unit Telegram counts message length in, preferring line boundaries.
// Lines longer than maxLen are hard-cut.
func splitMessage(text string, maxLen int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if chunk := strings.TrimSpace(current.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}

		current.Reset()
		currentLen = 0
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		lineLen := utf16Len(line)

		if currentLen+lineLen > maxLen {
			flush()
		}

		for lineLen > maxLen {
			head, tail := cutUTF16(line, maxLen)
			chunks = append(chunks, head)
			line = tail
			lineLen = utf16Len(line)
		}

		current.WriteString(line)
		currentLen += lineLen
	}

	flush()

	return chunks
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}

	return n
}

// cutUTF16 splits s after at most maxLen UTF-16 code units without breaking
// a surrogate pair.
func cutUTF16(s string, maxLen int) (string, string) {
	n := 0
	for i, r := range s {
		l := utf16.RuneLen(r)
		if n+l > maxLen && i > 0 {
			return s[:i], s[i:]
		}

		n += l
	}

	return s, ""
}
