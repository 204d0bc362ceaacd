package domain

import "strings"

// Mode is the requested transformation of an article.
type Mode string

const (
	ModeAbout        Mode = "about"
	ModeThesis       Mode = "thesis"
	ModeTelegram     Mode = "telegram"
	ModeIllustration Mode = "illustration"
)

// Modes lists every supported mode in display order.
func Modes() []Mode {
	return []Mode{ModeAbout, ModeThesis, ModeTelegram, ModeIllustration}
}

// ParseMode maps raw input onto the closed mode set. Anything unrecognised
// becomes ModeAbout.
func ParseMode(raw string) Mode {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case ModeAbout, ModeThesis, ModeTelegram, ModeIllustration:
		return m
	default:
		return ModeAbout
	}
}

// Normalize returns m itself when it belongs to the closed set and ModeAbout
// otherwise.
func (m Mode) Normalize() Mode {
	return ParseMode(string(m))
}

func (m Mode) IsImage() bool {
	return m == ModeIllustration
}

type ArticleRequest struct {
	URL  string
	Mode Mode
}

// Result holds Text for text modes and Image (PNG bytes) for illustrations.
type Result struct {
	Mode  Mode
	Text  string
	Image []byte
}
