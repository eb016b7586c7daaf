package encoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mock-interview/backend/internal/apperror"
)

func TestRoundTrip(t *testing.T) {
	texts := []string{
		"",
		"Hello! I'm ready for the interview.",
		"我的优势是快速学习。",
		"Ünïcödé, emoji 🚀 and\nnewlines\ttabs",
		"a,b;c=d base64,",
	}

	for _, text := range texts {
		payload, err := Encode(text)
		require.NoError(t, err)
		assert.Contains(t, payload, Prefix)

		decoded, err := Decode(payload)
		require.NoError(t, err)
		assert.Equal(t, text, decoded)
	}
}

func TestEncodeFormat(t *testing.T) {
	payload, err := Encode("hi")
	require.NoError(t, err)
	assert.Equal(t, "data:text/plain;charset=utf-8;base64,aGk=", payload)
}

func TestEncodeRejectsInvalidUTF8(t *testing.T) {
	_, err := Encode(string([]byte{0xff, 0xfe}))
	require.Error(t, err)
	assert.Equal(t, apperror.KindEncoding, apperror.KindOf(err))
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestDecodeAcceptsLegacyForm(t *testing.T) {
	text, err := Decode("data:text/plain;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestDecodeRejectsMalformedPayloads(t *testing.T) {
	tests := map[string]error{
		"https://example.com/a.mp3":        ErrNotDataReference,
		"data:text/plain;base64":           ErrNotDataReference,
		"data:audio/mpeg;base64,aGk=":      ErrNotText,
		"data:text/plain,hi":               ErrNotBase64,
		"data:text/plain;base64,!!!":       ErrNotBase64,
		"data:text/plain;base64," + "//79": ErrInvalidUTF8,
	}

	for payload, want := range tests {
		_, err := Decode(payload)
		assert.ErrorIs(t, err, want, payload)
	}
}
