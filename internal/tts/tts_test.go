package tts

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type call struct {
	name string
	args []string
}

func recordingCommand(program string, opts Options, err error) (*Command, *[]call) {
	var calls []call
	c := NewCommandWith(program, opts)
	c.run = func(_ context.Context, name string, args ...string) error {
		calls = append(calls, call{name: name, args: args})
		return err
	}
	return c, &calls
}

func TestCommand_Args(t *testing.T) {
	tests := []struct {
		name    string
		program string
		opts    Options
		text    string
		want    []string
	}{
		{"say default rate", "say", Options{}, "hello", []string{"-r", "175", "hello"}},
		{"say with voice", "say", Options{Rate: 200, Voice: "Samantha"}, "hi", []string{"-r", "200", "-v", "Samantha", "hi"}},
		{"espeak-ng", "espeak-ng", Options{Voice: "en-us"}, "hi", []string{"-s", "175", "-v", "en-us", "hi"}},
		{"leading dash", "espeak-ng", Options{}, "-5 dollars", []string{"-s", "175", " -5 dollars"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, calls := recordingCommand(tt.program, tt.opts, nil)
			if err := c.Speak(context.Background(), tt.text); err != nil {
				t.Fatalf("Speak: %v", err)
			}
			if len(*calls) != 1 {
				t.Fatalf("calls = %d, want 1", len(*calls))
			}
			got := (*calls)[0]
			if got.name != tt.program {
				t.Errorf("program = %q, want %q", got.name, tt.program)
			}
			if !reflect.DeepEqual(got.args, tt.want) {
				t.Errorf("args = %q, want %q", got.args, tt.want)
			}
		})
	}
}

func TestCommand_EmptyTextIsNoop(t *testing.T) {
	c, calls := recordingCommand("say", Options{}, nil)
	if err := c.Speak(context.Background(), ""); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if len(*calls) != 0 {
		t.Errorf("calls = %d, want 0", len(*calls))
	}
}

func TestCommand_WrapsError(t *testing.T) {
	boom := errors.New("exit status 1")
	c, _ := recordingCommand("say", Options{}, boom)
	if err := c.Speak(context.Background(), "hi"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}

func TestSilent(t *testing.T) {
	var e Engine = Silent{}
	if err := e.Speak(context.Background(), "anything"); err != nil {
		t.Errorf("Silent.Speak: %v", err)
	}
}
