package input

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// Text reads one transcript per line, typically from stdin.
type Text struct {
	lines  chan string
	err    chan error
	prompt io.Writer

	eof     bool
	readErr error
}

// NewText starts a goroutine that scans r; prompt, when non-nil, gets a
// "> " before every read.
func NewText(r io.Reader, prompt io.Writer) *Text {
	t := &Text{
		lines:  make(chan string),
		err:    make(chan error, 1),
		prompt: prompt,
	}
	go t.scan(r)
	return t
}

func (t *Text) scan(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		t.lines <- sc.Text()
	}
	t.err <- sc.Err()
	close(t.lines)
}

func (t *Text) Listen(ctx context.Context) (string, error) {
	if t.prompt != nil {
		fmt.Fprint(t.prompt, "> ")
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-t.lines:
		if !ok {
			if !t.eof {
				t.eof, t.readErr = true, <-t.err
			}
			if t.readErr != nil {
				return "", fmt.Errorf("%w: read: %v", ErrDevice, t.readErr)
			}
			return "", ErrClosed
		}
		return transcript(line)
	}
}

var _ Listener = (*Text)(nil)
