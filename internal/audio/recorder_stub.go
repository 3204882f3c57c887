//go:build !portaudio

package audio

import (
	"context"
	"errors"
)

var errNoPortaudio = errors.New("microphone not available: rebuild with -tags portaudio")

// Recorder stub when portaudio is not available
type Recorder struct{}

func NewRecorder(Limits) *Recorder { return &Recorder{} }

func (r *Recorder) Init() error { return errNoPortaudio }

func (r *Recorder) Close() {}

func (r *Recorder) Record(context.Context) ([]float32, error) { return nil, errNoPortaudio }
