//go:build espeak

package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <espeak-ng/speak_lib.h>

int
espeak_say(const char *text, int rate, const char *voice)
{
	if (!text)
	{ return -1; }

	if (espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0) < 0)
	{ return -2; }

	if (voice && voice[0] != '\0')
	{
		if (espeak_SetVoiceByName(voice) != EE_OK)
		{ espeak_Terminate(); return -3; }
	}
	espeak_SetParameter(espeakRATE, rate, 0);

	espeak_Synth(text, 0, 0, POS_CHARACTER, 0, espeakCHARS_AUTO, NULL, NULL);
	espeak_Synchronize();
	espeak_Terminate();

	return 0;
}
*/
import "C"

import (
	"context"
	"fmt"
	"sync"
	"unsafe"
)

// Espeak links libespeak-ng directly. The library keeps global state, so
// calls are serialised.
type Espeak struct {
	opts Options
	mu   sync.Mutex
}

func NewEspeak(opts Options) (*Espeak, error) {
	return &Espeak{opts: opts.withDefaults()}, nil
}

func (e *Espeak) Name() string { return "espeak" }

func (e *Espeak) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))

	cvoice := C.CString(e.opts.Voice)
	defer C.free(unsafe.Pointer(cvoice))

	rc := C.espeak_say(ctext, C.int(e.opts.Rate), cvoice)
	if rc != 0 {
		return fmt.Errorf("espeak_say failed: %d", int(rc))
	}

	return nil
}
