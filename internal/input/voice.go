package input

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"shopvox/internal/audio"
	"shopvox/internal/notify"
	"shopvox/pkg/stt"
)

type Recorder interface {
	Record(ctx context.Context) ([]float32, error)
}

// Voice records one utterance from the microphone and transcribes it.
type Voice struct {
	rec    Recorder
	stt    stt.Transcriber
	cue    notify.Notifier
	logger *slog.Logger
}

func NewVoice(rec Recorder, tr stt.Transcriber, cue notify.Notifier, logger *slog.Logger) *Voice {
	if cue == nil {
		cue = notify.Noop{}
	}
	return &Voice{rec: rec, stt: tr, cue: cue, logger: logger}
}

func (v *Voice) Listen(ctx context.Context) (string, error) {
	if err := v.cue.Notify(ctx); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		v.logger.Debug("earcon failed", "err", err)
	}

	pcm, err := v.rec.Record(ctx)
	switch {
	case errors.Is(err, audio.ErrNoSpeech):
		return "", ErrTimeout
	case ctx.Err() != nil:
		return "", ctx.Err()
	case err != nil:
		return "", fmt.Errorf("%w: record: %v", ErrDevice, err)
	}

	v.logger.Debug("recorded utterance", "seconds", float64(len(pcm))/audio.SampleRate)

	text, err := v.stt.Transcribe(ctx, pcm)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: transcribe: %v", ErrTranscribe, err)
	}

	v.logger.Debug("transcribed", "text", text)
	return transcript(text)
}

var _ Listener = (*Voice)(nil)
