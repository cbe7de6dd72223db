package cost

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

// Counter counts tokens with the tokenizer the chat and embedding models
// use. The encoding is loaded lazily on first use; if it cannot be loaded,
// counting falls back to a rough length-based estimate.
type Counter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

func (c *Counter) Count(text string) int {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(encodingName)
		if err == nil {
			c.enc = enc
		}
	})
	if c.enc != nil {
		return len(c.enc.Encode(text, nil, nil))
	}
	return approximateTokens(text)
}

// approximateTokens estimates roughly four characters per token.
func approximateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}
