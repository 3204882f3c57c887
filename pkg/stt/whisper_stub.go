//go:build !whisper

package stt

import (
	"context"
	"errors"
)

var errNoWhisper = errors.New("local transcription not available: rebuild with -tags whisper")

type Whisper struct{}

func NewWhisper(string, WhisperOptions) (*Whisper, error) { return nil, errNoWhisper }

func (*Whisper) Close() error { return nil }

func (*Whisper) Transcribe(context.Context, []float32) (string, error) { return "", errNoWhisper }
