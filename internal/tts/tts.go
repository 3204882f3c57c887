// Package tts speaks text through a platform synthesis engine.
package tts

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

const DefaultRate = 175

// Engine synthesises text and blocks until playback has finished.
type Engine interface {
	Speak(ctx context.Context, text string) error
	Name() string
}

type Options struct {
	Rate  int    // words per minute
	Voice string // engine-specific identifier, empty for the default voice
}

func (o Options) withDefaults() Options {
	if o.Rate <= 0 {
		o.Rate = DefaultRate
	}
	return o
}

// Silent is used when no synthesis engine is available. The console
// transcript is then the only output.
type Silent struct{}

func (Silent) Name() string { return "silent" }
func (Silent) Speak(context.Context, string) error { return nil }

// Command runs a speech command line per utterance: `say` on macOS,
// `espeak-ng` everywhere else.
type Command struct {
	program string
	opts    Options
	run     func(ctx context.Context, name string, args ...string) error
}

func NewCommand(opts Options) *Command {
	program := "espeak-ng"
	if runtime.GOOS == "darwin" {
		program = "say"
	}
	return NewCommandWith(program, opts)
}

func NewCommandWith(program string, opts Options) *Command {
	return &Command{program: program, opts: opts.withDefaults(), run: runCommand}
}

func (c *Command) Name() string { return c.program }

// Available reports whether the speech program is on PATH.
func (c *Command) Available() bool {
	_, err := exec.LookPath(c.program)
	return err == nil
}

func (c *Command) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if err := c.run(ctx, c.program, c.args(text)...); err != nil {
		return fmt.Errorf("%s: %w", c.program, err)
	}
	return nil
}

func (c *Command) args(text string) []string {
	rate := strconv.Itoa(c.opts.Rate)

	var args []string
	if c.program == "say" {
		args = append(args, "-r", rate)
	} else {
		args = append(args, "-s", rate)
	}
	if c.opts.Voice != "" {
		args = append(args, "-v", c.opts.Voice)
	}
	// A leading dash would be parsed as a flag.
	if strings.HasPrefix(text, "-") {
		text = " " + text
	}
	return append(args, text)
}

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil && len(out) > 0 {
		return fmt.Errorf("%w: %s", err, out)
	}
	return err
}
