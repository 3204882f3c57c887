// Package output shows and speaks everything the assistant says.
package output

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"shopvox/internal/bus"
	"shopvox/internal/tts"
)

type Ducker interface {
	Duck(ctx context.Context) error
	Restore(ctx context.Context) error
}

type Mirror interface {
	Send(kind, content string) error
}

type Presenter struct {
	mu     sync.Mutex
	out    io.Writer
	engine tts.Engine
	ducker Ducker
	mirror Mirror
	logger *slog.Logger
}

type Option func(*Presenter)

// WithDucker lowers other applications' volume while speaking.
func WithDucker(d Ducker) Option { return func(p *Presenter) { p.ducker = d } }

// WithMirror copies every reply to the websocket bus.
func WithMirror(m Mirror) Option { return func(p *Presenter) { p.mirror = m } }

func New(out io.Writer, engine tts.Engine, logger *slog.Logger, opts ...Option) *Presenter {
	if engine == nil {
		engine = tts.Silent{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Presenter{out: out, engine: engine, logger: logger}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Say prints "Assistant: text" and speaks it. Speech, ducking and mirror
// failures are logged only; the console line is always written first.
func (p *Presenter) Say(ctx context.Context, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "Assistant: %s\n", text)

	if p.mirror != nil {
		if err := p.mirror.Send(bus.KindReply, text); err != nil {
			p.logger.Warn("bus mirror failed", "err", err)
		}
	}

	if p.ducker != nil {
		if err := p.ducker.Duck(ctx); err != nil {
			p.logger.Debug("duck failed", "err", err)
		}
		defer func() {
			// restore even if ctx was cancelled mid-sentence
			if err := p.ducker.Restore(context.WithoutCancel(ctx)); err != nil {
				p.logger.Debug("restore volume failed", "err", err)
			}
		}()
	}

	if err := p.engine.Speak(ctx, text); err != nil && ctx.Err() == nil {
		p.logger.Warn("speech failed", "engine", p.engine.Name(), "err", err)
	}
}

// Echo prints what the user said, mirroring the assistant lines.
func (p *Presenter) Echo(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "You: %s\n", text)
}
