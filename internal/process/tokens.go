package process

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates the LLM token count of a text.
type TokenCounter interface {
	Count(text string) int
}

// DefaultEncoding is the encoding used by NewTiktoken when none is given.
const DefaultEncoding = "cl100k_base"

// Tiktoken counts tokens with a tiktoken BPE encoding.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// NewTiktoken loads the named encoding. The first call may download the BPE
// ranks.
func NewTiktoken(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %q: %w", encoding, err)
	}
	return &Tiktoken{enc: enc}, nil
}

func (t *Tiktoken) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}
