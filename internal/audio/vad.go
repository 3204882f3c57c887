package audio

import (
	"errors"
	"math"
	"time"
)

// ErrNoSpeech is returned when nothing louder than the silence threshold
// was heard before the listen timeout.
var ErrNoSpeech = errors.New("no speech detected")

const (
	SampleRate = 16000
	FrameSize  = 320 // 20ms
)

type Limits struct {
	// ListenTimeout bounds the wait for the first voiced frame.
	ListenTimeout time.Duration
	// Trailing silence that ends an utterance.
	Silence time.Duration
	// MaxUtterance caps the recording once speech started.
	MaxUtterance time.Duration
	// SilenceRMS is the frame energy below which a frame counts as silent.
	SilenceRMS float64
}

func DefaultLimits() Limits {
	return Limits{
		ListenTimeout: 10 * time.Second,
		Silence:       600 * time.Millisecond,
		MaxUtterance:  10 * time.Second,
		SilenceRMS:    0.015,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.ListenTimeout <= 0 {
		l.ListenTimeout = d.ListenTimeout
	}
	if l.Silence <= 0 {
		l.Silence = d.Silence
	}
	if l.MaxUtterance <= 0 {
		l.MaxUtterance = d.MaxUtterance
	}
	if l.SilenceRMS <= 0 {
		l.SilenceRMS = d.SilenceRMS
	}
	return l
}

// Detector is an energy-based endpointer. Feed it consecutive frames; it
// keeps the voiced part plus trailing silence and says when to stop.
type Detector struct {
	limits Limits

	frameDur time.Duration
	waited   time.Duration
	spoken   time.Duration
	silent   time.Duration
	speaking bool
	out      []float32
}

func NewDetector(l Limits) *Detector {
	l = l.withDefaults()
	return &Detector{
		limits:   l,
		frameDur: time.Duration(FrameSize) * time.Second / SampleRate,
		out:      make([]float32, 0, SampleRate*3),
	}
}

// Feed consumes one frame. done is true once the utterance is complete;
// err is ErrNoSpeech if the listen timeout passed in silence.
func (d *Detector) Feed(frame []float32) (done bool, err error) {
	loud := FrameRMS(frame) > d.limits.SilenceRMS

	if !d.speaking {
		if !loud {
			d.waited += d.frameDur
			if d.waited >= d.limits.ListenTimeout {
				return true, ErrNoSpeech
			}
			return false, nil
		}
		d.speaking = true
	}

	d.out = append(d.out, frame...)
	d.spoken += d.frameDur

	if loud {
		d.silent = 0
	} else {
		d.silent += d.frameDur
		if d.silent >= d.limits.Silence {
			return true, nil
		}
	}

	return d.spoken >= d.limits.MaxUtterance, nil
}

// Samples returns what has been captured so far.
func (d *Detector) Samples() []float32 { return d.out }

func FrameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
