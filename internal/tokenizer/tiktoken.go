package tokenizer

import (
	"errors"

	"github.com/pkoukk/tiktoken-go"
)

var errMissingEncoding = errors.New("tokenizer encoding not initialized")

// encodingCounter measures budgeted README context with a tiktoken BPE encoding.
// Repository text may contain markers such as <|endoftext|>; they count as plain text.
type encodingCounter struct {
	encoding *tiktoken.Tiktoken
	label    string
}

func (counter encodingCounter) Name() string {
	return counter.label
}

func (counter encodingCounter) CountString(contextText string) (int, error) {
	if counter.encoding == nil {
		return 0, errMissingEncoding
	}
	return len(counter.encoding.EncodeOrdinary(contextText)), nil
}
