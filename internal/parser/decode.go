package parser

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var errNotText = errors.New("content is not readable text")

// decodeText converts raw upload bytes to a UTF-8 string. A UTF-8 or UTF-16 byte order
// mark selects the decoder; without one the bytes must already be valid UTF-8.
func decodeText(data []byte) (string, error) {
	dec := unicode.BOMOverride(encoding.UTF8Validator)
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errNotText, err)
	}
	if bytes.IndexByte(out, 0) >= 0 {
		return "", errNotText
	}
	return string(out), nil
}

// DecodeText returns the text content of an upload the same way Parse reads it.
func DecodeText(data []byte) (string, error) {
	return decodeText(data)
}
