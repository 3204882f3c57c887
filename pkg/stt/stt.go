// Package stt converts 16 kHz mono PCM into text.
package stt

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

var ErrNoAudio = errors.New("no audio samples provided")

type Transcriber interface {
	// Transcribe expects mono float32 samples in [-1, 1] at 16 kHz.
	Transcribe(ctx context.Context, pcm []float32) (string, error)
}

// whisper emits bracketed or parenthesised annotations for non-speech:
// [BLANK_AUDIO], [Music], (wind blowing), *coughs*.
var markerRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)|\*[^*]*\*`)

// Clean strips non-speech markers and collapses whitespace. An empty result
// means nothing intelligible was said.
func Clean(text string) string {
	text = markerRe.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}
