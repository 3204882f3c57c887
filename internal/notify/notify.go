// Package notify plays short audio cues around listening turns.
package notify

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
)

type Notifier interface {
	Notify(ctx context.Context) error
}

// Noop is used when no earcon is configured.
type Noop struct{}

func (Noop) Notify(context.Context) error { return nil }

var _ Notifier = Noop{}

// Earcon is a decoded mp3 cue kept in memory so it can be replayed.
type Earcon struct {
	buf *beep.Buffer
}

func LoadEarcon(path string) (*Earcon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open earcon: %w", err)
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode earcon %s: %w", path, err)
	}
	defer streamer.Close()

	buf := beep.NewBuffer(format)
	buf.Append(streamer)
	if buf.Len() == 0 {
		return nil, fmt.Errorf("earcon %s is empty", path)
	}

	return &Earcon{buf: buf}, nil
}

func (e *Earcon) Duration() time.Duration {
	return e.buf.Format().SampleRate.D(e.buf.Len())
}
