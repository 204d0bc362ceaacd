package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"articlelens/internal/apperror"
	"articlelens/internal/domain"
)

// handleCallbackQuery runs the chosen mode for the URL of the message the
// keyboard was attached to.
func (b *Bot) handleCallbackQuery(ctx context.Context, callback *models.CallbackQuery) error {
	var errs []error

	if _, err := b.api.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: callback.ID,
	}); err != nil {
		errs = append(errs, fmt.Errorf("answer callback query: %w", err))
	}

	rawMode, ok := strings.CutPrefix(strings.TrimSpace(callback.Data), modeCallbackPrefix)
	if !ok {
		return errors.Join(errs...)
	}

	keyboardMessage := callback.Message.Message
	if keyboardMessage == nil {
		b.log.WarnContext(ctx, "Callback query message is inaccessible",
			"userID", callback.From.ID,
			"data", callback.Data)

		return errors.Join(errs...)
	}

	chatID := keyboardMessage.Chat.ID

	source := keyboardMessage.ReplyToMessage
	if source == nil {
		if err := b.sendText(ctx, chatID, 0, failureText(apperror.InvalidURL), nil); err != nil {
			errs = append(errs, err)
		}

		return errors.Join(errs...)
	}

	articleURL, err := extractURL(source.Text)
	if err != nil {
		return errors.Join(append(errs, fmt.Errorf("extract url: %w", err))...)
	}

	if articleURL == "" {
		if err = b.sendText(ctx, chatID, source.ID, failureText(apperror.InvalidURL), nil); err != nil {
			errs = append(errs, err)
		}

		return errors.Join(errs...)
	}

	if err = b.runMode(ctx, chatID, source.ID, domain.ParseMode(rawMode), articleURL); err != nil {
		errs = append(errs, fmt.Errorf("run mode: %w", err))
	}

	return errors.Join(errs...)
}
