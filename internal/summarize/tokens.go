package summarize

import (
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"
)

// TokenCounter measures text in model tokens.
type TokenCounter interface {
	Count(text string) int
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// EstimateCounter approximates one token per four characters.
type EstimateCounter struct{}

// Count returns ceil(runes/4).
func (EstimateCounter) Count(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

// NewTokenCounter loads the named tiktoken encoding, falling back to
// EstimateCounter when it cannot be loaded.
func NewTokenCounter(encoding string) TokenCounter {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		log.Warn().Err(err).Str("encoding", encoding).Msg("Token encoding unavailable, estimating token counts")
		return EstimateCounter{}
	}
	return tiktokenCounter{enc: enc}
}
