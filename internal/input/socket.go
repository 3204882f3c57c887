package input

import (
	"context"
	"log/slog"

	"shopvox/internal/ipc"
)

const socketBacklog = 8

// Socket receives typed queries from shopvox-ctl over the control socket.
type Socket struct {
	srv    *ipc.Server
	msgs   chan ipc.ControlMessage
	logger *slog.Logger
}

func NewSocket(path string, logger *slog.Logger) (*Socket, error) {
	s := &Socket{msgs: make(chan ipc.ControlMessage, socketBacklog), logger: logger}
	srv, err := ipc.Listen(path, s.deliver)
	if err != nil {
		return nil, err
	}
	s.srv = srv
	return s, nil
}

// deliver runs on the connection goroutine and must not block: messages
// that arrive while the backlog is full are dropped.
func (s *Socket) deliver(m ipc.ControlMessage) {
	select {
	case s.msgs <- m:
	default:
		s.logger.Warn("control socket backlog full, dropping message", "cmd", m.Cmd, "text", m.Text)
	}
}

func (s *Socket) Listen(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case m := <-s.msgs:
		if m.Cmd == ipc.CmdQuit {
			return "", ErrClosed
		}
		return transcript(m.Text)
	}
}

func (s *Socket) Close() error { return s.srv.Close() }

var _ Listener = (*Socket)(nil)
