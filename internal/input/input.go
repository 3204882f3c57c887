// Package input produces one transcript per call from a microphone, audio
// files, stdin, the control socket or the websocket bus.
package input

import (
	"context"
	"errors"

	"shopvox/pkg/stt"
)

var (
	// ErrTimeout means nobody spoke before the listen timeout.
	ErrTimeout = errors.New("listen timeout")
	// ErrUnrecognized means audio or text arrived but held no words.
	ErrUnrecognized = errors.New("speech not recognized")
	// ErrDevice means the microphone failed.
	ErrDevice = errors.New("input device failure")
	// ErrTranscribe means audio was captured but the transcriber failed on
	// it, e.g. the cloud service was unreachable. The next utterance may work.
	ErrTranscribe = errors.New("transcription failed")
	// ErrClosed means a finite source ran out.
	ErrClosed = errors.New("input closed")
)

type Listener interface {
	Listen(ctx context.Context) (string, error)
}

func transcript(text string) (string, error) {
	text = stt.Clean(text)
	if text == "" {
		return "", ErrUnrecognized
	}
	return text, nil
}
