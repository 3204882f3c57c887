//go:build portaudio

package audio

import (
	"context"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Recorder captures one utterance at a time from the default input device.
type Recorder struct {
	limits Limits
}

func NewRecorder(l Limits) *Recorder { return &Recorder{limits: l.withDefaults()} }

func (r *Recorder) Init() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}
	return nil
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Record opens the input stream, waits for speech and returns 16 kHz mono
// samples once the speaker goes quiet. ErrNoSpeech means the listen timeout
// elapsed first.
func (r *Recorder) Record(ctx context.Context) ([]float32, error) {
	buf := make([]float32, FrameSize)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("opening stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("starting stream: %w", err)
	}
	defer stream.Stop()

	det := NewDetector(r.limits)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("reading stream: %w", err)
		}

		done, err := det.Feed(buf)
		if err != nil {
			return nil, err
		}
		if done {
			return det.Samples(), nil
		}
	}
}
