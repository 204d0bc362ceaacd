package summarizer

import (
	"context"

	"articlelens/internal/domain"
)

// Input describes the payload for a completion request.
type Input struct {
	// Mode selects the instruction appended to the article text.
	Mode domain.Mode
	// Text contains the sanitized article text.
	Text string
	// SourceURL is the article address, used by the telegram instruction.
	SourceURL string
}

// Summarizer produces the mode-specific text for an article.
type Summarizer interface {
	Summarize(ctx context.Context, input Input) (string, error)
}
