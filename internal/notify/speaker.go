//go:build portaudio

package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

var (
	speakerOnce sync.Once
	speakerErr  error
)

// Notify plays the cue and blocks until it finished or ctx is done.
func (e *Earcon) Notify(ctx context.Context) error {
	format := e.buf.Format()
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if speakerErr != nil {
		return fmt.Errorf("speaker init: %w", speakerErr)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(e.buf.Streamer(0, e.buf.Len()), beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}
