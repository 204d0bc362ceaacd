package prompts

import (
	"fmt"
	"strings"

	"articlelens/internal/domain"
)

// DefaultLanguage is the language generated texts are written in when none is
// configured.
const DefaultLanguage = "Russian"

const (
	aboutTemplate  = "Briefly explain in plain %s what this article is about. 3–6 sentences."
	thesisTemplate = "Make a structured list of the 5–10 main theses of the article in %s."

	telegramTemplate = "Write a ready-to-publish Telegram post in %s: lively, easy to read, " +
		"1–3 paragraphs, without mentioning that the text was generated by AI."

	// TelegramSourceLinkClause is always part of the telegram instruction.
	TelegramSourceLinkClause = " At the end of the post, add a link to the source article."
	telegramLiteralURLClause = " Use this link: %s"

	illustrationInstruction = "Based on the content of the article, write one short prompt in English " +
		"(up to 80 words) for generating an illustration. Describe the scene in detail and concretely, " +
		"suitable for a text-to-image model. Style: realistic or artistic. " +
		"Output ONLY the prompt, without quotes or explanations."

	systemTemplate = "You are an assistant that translates and retells English-language articles " +
		"in natural %s."
	articlePreamble = "Below is the text of an English-language article."
	actionPreamble  = "Perform the following action:"
)

// Builder turns a mode into the instruction sent to the completion backend.
// The zero value writes in DefaultLanguage.
type Builder struct {
	Language string
}

func NewBuilder(language string) Builder {
	return Builder{Language: strings.TrimSpace(language)}
}

func (b Builder) language() string {
	if b.Language == "" {
		return DefaultLanguage
	}

	return b.Language
}

// Build returns the instruction for mode. sourceURL only matters for
// ModeTelegram, where it is embedded verbatim.
func (b Builder) Build(mode domain.Mode, sourceURL string) string {
	switch mode.Normalize() {
	case domain.ModeAbout:
		return fmt.Sprintf(aboutTemplate, b.language())
	case domain.ModeThesis:
		return fmt.Sprintf(thesisTemplate, b.language())
	case domain.ModeTelegram:
		instruction := fmt.Sprintf(telegramTemplate, b.language()) + TelegramSourceLinkClause
		if sourceURL = strings.TrimSpace(sourceURL); sourceURL != "" {
			instruction += fmt.Sprintf(telegramLiteralURLClause, sourceURL)
		}

		return instruction
	case domain.ModeIllustration:
		return illustrationInstruction
	default:
		return fmt.Sprintf(aboutTemplate, b.language())
	}
}

// SystemMessage establishes the assistant's role for every request.
func (b Builder) SystemMessage() string {
	return fmt.Sprintf(systemTemplate, b.language())
}

// UserMessage joins the article text with the instruction for mode.
func (b Builder) UserMessage(mode domain.Mode, articleText string, sourceURL string) string {
	return strings.Join([]string{
		articlePreamble,
		"",
		articleText,
		"",
		actionPreamble,
		b.Build(mode, sourceURL),
	}, "\n")
}
