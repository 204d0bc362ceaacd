package bot

import (
	"github.com/go-telegram/bot/models"

	"articlelens/internal/domain"
)

const (
	modeCallbackPrefix       = "mode_"
	modeKeyboardRowSize      = 2
	telegramMessageMaxLength = 4096
)

var modeLabels = map[domain.Mode]string{
	domain.ModeAbout:        "📝 About",
	domain.ModeThesis:       "📌 Theses",
	domain.ModeTelegram:     "✈️ Telegram post",
	domain.ModeIllustration: "🎨 Illustration",
}

func getModeKeyboard() *models.InlineKeyboardMarkup {
	var keyboard [][]models.InlineKeyboardButton
	var row []models.InlineKeyboardButton

	for _, mode := range domain.Modes() {
		row = append(row, models.InlineKeyboardButton{
			Text:         modeLabels[mode],
			CallbackData: modeCallbackPrefix + string(mode),
		})

		if len(row) == modeKeyboardRowSize {
			keyboard = append(keyboard, row)
			row = nil
		}
	}

	if len(row) > 0 {
		keyboard = append(keyboard, row)
	}

	return &models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}
