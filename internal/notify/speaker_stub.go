//go:build !portaudio

package notify

import (
	"context"
	"errors"
)

func (e *Earcon) Notify(context.Context) error {
	return errors.New("audio output not available: rebuild with -tags portaudio")
}
