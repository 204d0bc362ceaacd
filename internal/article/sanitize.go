package article

import (
	"regexp"
	"strings"
)

// MaxTextLength caps sanitized article text, in characters.
const MaxTextLength = 15_000

var (
	scriptBlockRe = regexp.MustCompile(`(?is)<script[\s\S]*?</script>`)
	styleBlockRe  = regexp.MustCompile(`(?is)<style[\s\S]*?</style>`)
	tagRe         = regexp.MustCompile(`<[^>]+>`)

	// A body cut at the read cap can end inside a script or style block.
	unclosedBlockRe = regexp.MustCompile(`(?is)<(?:script|style)\b.*$`)
)

// Sanitize reduces raw HTML to plain text: script and style blocks (including
// one left unclosed at the end of a cut body) are dropped, the remaining tags
// become spaces, whitespace is collapsed and the result is cut to
// MaxTextLength characters and trimmed.
func Sanitize(html string) string {
	text := scriptBlockRe.ReplaceAllString(html, "")
	text = styleBlockRe.ReplaceAllString(text, "")
	text = unclosedBlockRe.ReplaceAllString(text, "")
	text = tagRe.ReplaceAllString(text, " ")
	text = strings.Join(strings.Fields(text), " ")

	return strings.TrimSpace(truncate(text, MaxTextLength))
}

func truncate(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}

	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}

	return string(runes[:maxChars])
}
