package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"sync"
	"time"
)

const SocketPath = "/tmp/shopvox.sock"

const (
	CmdQuery = "query"
	CmdQuit  = "quit"
)

// ControlMessage is one JSON object per connection.
type ControlMessage struct {
	Cmd  string `json:"cmd"`
	Text string `json:"text,omitempty"`
}

func (m ControlMessage) Validate() error {
	switch m.Cmd {
	case CmdQuery:
		if m.Text == "" {
			return errors.New("query without text")
		}
		return nil
	case CmdQuit:
		return nil
	default:
		return fmt.Errorf("unknown command %q", m.Cmd)
	}
}

type Server struct {
	ln   net.Listener
	path string
	wg   sync.WaitGroup
}

// Listen removes a stale socket at path, binds it and serves messages to
// handler until Close.
func Listen(path string, handler func(ControlMessage)) (*Server, error) {
	if path == "" {
		path = SocketPath
	}
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	s := &Server{ln: ln, path: path}
	s.wg.Add(1)
	go s.serve(handler)
	return s, nil
}

func (s *Server) Path() string { return s.path }

func (s *Server) serve(handler func(ControlMessage)) {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn("ipc accept", "err", err)
			continue
		}
		go handleConn(conn, handler)
	}
}

func (s *Server) Close() error {
	err := s.ln.Close()
	s.wg.Wait()
	os.Remove(s.path)
	return err
}

func handleConn(conn net.Conn, handler func(ControlMessage)) {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		log.Warn("ipc decode", "err", err)
		return
	}
	if err := msg.Validate(); err != nil {
		log.Warn("ipc rejected message", "err", err)
		return
	}
	handler(msg)
}

func SendCommand(path string, msg ControlMessage) error {
	if path == "" {
		path = SocketPath
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()

	return json.NewEncoder(conn).Encode(msg)
}
