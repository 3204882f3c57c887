//go:build !espeak

package tts

import (
	"context"
	"errors"
)

var errNoEspeak = errors.New("espeak engine not available: rebuild with -tags espeak")

// Espeak stub when libespeak-ng is not linked in.
type Espeak struct{}

func NewEspeak(Options) (*Espeak, error) { return nil, errNoEspeak }

func (e *Espeak) Name() string { return "espeak" }

func (e *Espeak) Speak(context.Context, string) error { return errNoEspeak }
