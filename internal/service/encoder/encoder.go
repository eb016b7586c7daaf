// Package encoder packs answer text into the data reference returned as audioUrl.
//
// The payload is base64 UTF-8 text, not audio. Clients decode it and hand the
// text to their own speech synthesis.
package encoder

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/zhouzirui/mock-interview/backend/internal/apperror"
)

// Prefix is the data reference header written by Encode.
const Prefix = "data:text/plain;charset=utf-8;base64,"

var (
	ErrNotDataReference = errors.New("payload is not a data reference")
	ErrNotText          = errors.New("payload media type is not text/plain")
	ErrNotBase64        = errors.New("payload is not base64 encoded")
	ErrInvalidUTF8      = errors.New("text is not valid UTF-8")
)

// Encode wraps text in a base64 text/plain data reference.
func Encode(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", apperror.Encoding("Failed to encode answer", ErrInvalidUTF8)
	}
	return Prefix + base64.StdEncoding.EncodeToString([]byte(text)), nil
}

// Decode reverses Encode. Any text/plain base64 data reference is accepted,
// including the older form without a charset parameter.
func Decode(payload string) (string, error) {
	rest, ok := strings.CutPrefix(payload, "data:")
	if !ok {
		return "", ErrNotDataReference
	}

	header, data, ok := strings.Cut(rest, ",")
	if !ok {
		return "", ErrNotDataReference
	}

	params := strings.Split(header, ";")
	if !strings.EqualFold(strings.TrimSpace(params[0]), "text/plain") {
		return "", fmt.Errorf("%w: %q", ErrNotText, params[0])
	}
	if !strings.EqualFold(strings.TrimSpace(params[len(params)-1]), "base64") {
		return "", ErrNotBase64
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotBase64, err)
	}
	if !utf8.Valid(raw) {
		return "", ErrInvalidUTF8
	}
	return string(raw), nil
}
