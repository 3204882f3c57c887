package input

import (
	"context"

	"shopvox/internal/bus"
)

type Inbox interface {
	Inbox() <-chan bus.Message
}

// Bus takes transcripts published by other peers on the websocket bus.
// Messages of any other kind are skipped.
type Bus struct {
	in Inbox
}

func NewBus(in Inbox) *Bus { return &Bus{in: in} }

func (b *Bus) Listen(ctx context.Context) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case m, ok := <-b.in.Inbox():
			if !ok {
				return "", ErrClosed
			}
			if m.Kind != bus.KindTranscript {
				continue
			}
			return transcript(m.Content)
		}
	}
}

var _ Listener = (*Bus)(nil)
