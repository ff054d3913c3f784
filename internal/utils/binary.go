package utils

import (
	"bytes"
	"strings"
)

// sniffLength defines the maximum number of bytes inspected when detecting binary content.
const sniffLength = 8000

// IsBinary reports whether the leading bytes of data contain a NUL byte.
// Invalid UTF-8 alone does not make data binary; DecodeText drops such sequences.
func IsBinary(data []byte) bool {
	sample := data
	if len(sample) > sniffLength {
		sample = sample[:sniffLength]
	}
	return bytes.IndexByte(sample, 0) >= 0
}

// DecodeText converts data to a string, dropping invalid UTF-8 sequences.
func DecodeText(data []byte) string {
	return strings.ToValidUTF8(string(data), EmptyString)
}

// IsBlank reports whether text is empty or consists only of whitespace.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == EmptyString
}
