package output

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type recorder struct {
	calls []string
	err   error
}

func (r *recorder) Name() string { return "fake" }

func (r *recorder) Speak(_ context.Context, text string) error {
	r.calls = append(r.calls, "speak:"+text)
	return r.err
}

func (r *recorder) Duck(context.Context) error {
	r.calls = append(r.calls, "duck")
	return nil
}

func (r *recorder) Restore(context.Context) error {
	r.calls = append(r.calls, "restore")
	return nil
}

func (r *recorder) Send(kind, content string) error {
	r.calls = append(r.calls, kind+":"+content)
	return nil
}

func TestSay(t *testing.T) {
	var out bytes.Buffer
	rec := &recorder{}
	p := New(&out, rec, discard, WithDucker(rec), WithMirror(rec))

	p.Say(context.Background(), "Searching for wireless mouse...")

	if got, want := out.String(), "Assistant: Searching for wireless mouse...\n"; got != want {
		t.Errorf("console = %q, want %q", got, want)
	}
	want := "reply:Searching for wireless mouse...,duck,speak:Searching for wireless mouse...,restore"
	if got := strings.Join(rec.calls, ","); got != want {
		t.Errorf("calls = %s\nwant    %s", got, want)
	}
}

func TestSay_EngineFailureIsNotFatal(t *testing.T) {
	var out bytes.Buffer
	p := New(&out, &recorder{err: errors.New("no audio device")}, discard)

	p.Say(context.Background(), "Hello!")
	p.Say(context.Background(), "Goodbye!")

	if got := out.String(); got != "Assistant: Hello!\nAssistant: Goodbye!\n" {
		t.Errorf("console = %q", got)
	}
}

func TestEcho(t *testing.T) {
	var out bytes.Buffer
	New(&out, nil, nil).Echo("usb hub")
	if out.String() != "You: usb hub\n" {
		t.Errorf("got %q", out.String())
	}
}
