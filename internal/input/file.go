package input

import (
	"context"
	"fmt"
	"log/slog"

	"shopvox/pkg/audioconv"
	"shopvox/pkg/stt"
)

// maxFileSamples caps one replayed file at 30 s.
const maxFileSamples = audioconv.TargetRate * 30

// File replays pre-recorded utterances, one file per Listen.
type File struct {
	paths  []string
	next   int
	stt    stt.Transcriber
	logger *slog.Logger
}

func NewFile(paths []string, tr stt.Transcriber, logger *slog.Logger) *File {
	return &File{paths: paths, stt: tr, logger: logger}
}

func (f *File) Listen(ctx context.Context) (string, error) {
	if f.next >= len(f.paths) {
		return "", ErrClosed
	}
	path := f.paths[f.next]
	f.next++

	pcm, err := audioconv.DecodeFile(ctx, path, audioconv.Options{MaxSamples: maxFileSamples})
	if err != nil {
		f.logger.Warn("cannot decode audio file", "path", path, "err", err)
		return "", ErrUnrecognized
	}

	text, err := f.stt.Transcribe(ctx, pcm)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: transcribe %s: %v", ErrTranscribe, path, err)
	}

	f.logger.Debug("transcribed file", "path", path, "text", text)
	return transcript(text)
}

var _ Listener = (*File)(nil)
