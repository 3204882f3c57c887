package audio

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

const maxVolume = 150

// SinkInput is one PulseAudio/PipeWire playback stream.
type SinkInput struct {
	ID      int
	Volume  int // percent
	AppName string
}

// Ducker lowers the volume of other applications while the assistant talks
// and restores it afterwards. Streams whose application.name is in skip are
// left alone.
type Ducker struct {
	factor float64
	floor  int
	fade   time.Duration
	skip   map[string]bool

	pactl func(ctx context.Context, args ...string) ([]byte, error)

	mu     sync.Mutex
	ducked map[int]int // id -> original volume
}

func NewDucker(factor float64, floor int, fade time.Duration, skip ...string) *Ducker {
	d := &Ducker{
		factor: math.Max(0, math.Min(factor, 1)),
		floor:  clampVolume(floor),
		fade:   fade,
		skip:   make(map[string]bool, len(skip)),
		pactl:  runPactl,
	}
	for _, name := range skip {
		d.skip[name] = true
	}
	return d
}

// Duck fades every foreign stream to volume*factor, never below floor.
// Calling Duck twice without Restore is a no-op.
func (d *Ducker) Duck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ducked != nil {
		return nil
	}

	inputs, err := d.list(ctx)
	if err != nil {
		return err
	}

	ducked := make(map[int]int)
	var fades []fade
	for _, in := range inputs {
		if d.skip[in.AppName] {
			continue
		}
		to := max(int(math.Round(float64(in.Volume)*d.factor)), d.floor)
		if to > in.Volume {
			to = in.Volume
		}
		ducked[in.ID] = in.Volume
		fades = append(fades, fade{id: in.ID, from: in.Volume, to: to})
	}

	d.ducked = ducked
	return d.run(ctx, fades)
}

// Restore fades ducked streams back to their original volume. Streams that
// appeared after Duck are not touched.
func (d *Ducker) Restore(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ducked == nil {
		return nil
	}
	defer func() { d.ducked = nil }()

	inputs, err := d.list(ctx)
	if err != nil {
		return err
	}

	var fades []fade
	for _, in := range inputs {
		orig, ok := d.ducked[in.ID]
		if !ok {
			continue
		}
		fades = append(fades, fade{id: in.ID, from: in.Volume, to: orig})
	}
	return d.run(ctx, fades)
}

type fade struct {
	id, from, to int
}

func (d *Ducker) run(ctx context.Context, fades []fade) error {
	if len(fades) == 0 {
		return nil
	}

	const step = 10 * time.Millisecond
	steps := max(int(d.fade/step), 1)

	for i := 1; i <= steps; i++ {
		frac := float64(i) / float64(steps)
		for _, f := range fades {
			v := f.from + int(math.Round(float64(f.to-f.from)*frac))
			if err := d.setVolume(ctx, f.id, v); err != nil {
				return err
			}
		}
		if i < steps {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.fade / time.Duration(steps)):
			}
		}
	}
	return nil
}

func (d *Ducker) list(ctx context.Context) ([]SinkInput, error) {
	out, err := d.pactl(ctx, "list", "sink-inputs")
	if err != nil {
		return nil, fmt.Errorf("pactl list sink-inputs: %w", err)
	}
	return ParseSinkInputs(string(out)), nil
}

func (d *Ducker) setVolume(ctx context.Context, id, percent int) error {
	_, err := d.pactl(ctx, "set-sink-input-volume", strconv.Itoa(id), fmt.Sprintf("%d%%", clampVolume(percent)))
	if err != nil {
		return fmt.Errorf("set volume id=%d: %w", id, err)
	}
	return nil
}

// ParseSinkInputs reads the output of `pactl list sink-inputs`.
func ParseSinkInputs(text string) []SinkInput {
	blocks := strings.Split(text, "Sink Input #")
	var res []SinkInput

	for _, block := range blocks[1:] {
		header, body, _ := strings.Cut(block, "\n")
		id, err := strconv.Atoi(strings.TrimSpace(header))
		if err != nil {
			continue
		}

		in := SinkInput{ID: id}
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)

			if strings.HasPrefix(line, "Volume:") && in.Volume == 0 {
				if m := percentRe.FindStringSubmatch(line); m != nil {
					in.Volume, _ = strconv.Atoi(m[1])
				}
			}
			if rest, ok := strings.CutPrefix(line, "application.name = "); ok && in.AppName == "" {
				in.AppName = strings.Trim(rest, `"`)
			}
		}

		if in.Volume == 0 && in.AppName == "" {
			continue
		}
		res = append(res, in)
	}

	return res
}

func clampVolume(v int) int {
	return max(0, min(v, maxVolume))
}

func runPactl(ctx context.Context, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, "pactl", args...).Output()
}
