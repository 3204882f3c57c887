// Package bus connects the assistant to a websocket message hub. Peers send
// transcripts in and receive spoken replies back.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

const (
	KindTranscript = "transcript"
	KindReply      = "reply"

	Broadcast = "all"
)

var ErrClosed = errors.New("bus closed")

type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

type Config struct {
	URL  string
	Name string
	// Reconnect is the pause between dial attempts after the hub dropped us.
	Reconnect time.Duration
}

type Bus struct {
	cfg Config

	mu   sync.Mutex
	conn *ws.Conn

	inbox  chan Message
	cancel context.CancelFunc
	done   chan struct{}
}

// Dial connects to the hub and starts the reader. The reader keeps
// reconnecting until ctx is cancelled or Close is called.
func Dial(ctx context.Context, cfg Config) (*Bus, error) {
	if cfg.URL == "" {
		return nil, errors.New("bus: empty url")
	}
	if cfg.Name == "" {
		cfg.Name = "shopvox"
	}
	if cfg.Reconnect <= 0 {
		cfg.Reconnect = time.Second
	}

	log.Debug("dialing bus", "url", cfg.URL)
	conn, _, err := ws.DefaultDialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial bus %s: %w", cfg.URL, err)
	}
	log.Info("Connected to bus", "url", cfg.URL)

	ctx, cancel := context.WithCancel(ctx)
	b := &Bus{
		cfg:    cfg,
		conn:   conn,
		inbox:  make(chan Message, 16),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go b.run(ctx)
	return b, nil
}

func (b *Bus) Name() string { return b.cfg.Name }

// Inbox delivers messages addressed to this peer (or broadcast) in arrival
// order. It is closed when the reader stops.
func (b *Bus) Inbox() <-chan Message { return b.inbox }

// Send publishes content to every peer.
func (b *Bus) Send(kind, content string) error {
	return b.Write(Message{From: b.cfg.Name, To: Broadcast, Kind: kind, Content: content})
}

func (b *Bus) Write(m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return ErrClosed
	}
	return b.conn.WriteMessage(ws.TextMessage, data)
}

func (b *Bus) Close() error {
	b.cancel()

	b.mu.Lock()
	var err error
	if b.conn != nil {
		_ = b.conn.WriteControl(ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(time.Second))
		err = b.conn.Close()
	}
	b.mu.Unlock()

	<-b.done
	return err
}

func (b *Bus) run(ctx context.Context) {
	defer close(b.done)
	defer close(b.inbox)

	for {
		b.mu.Lock()
		conn := b.conn
		b.mu.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if isClosed(err) {
				log.Warn("Bus connection closed, reconnecting", "url", b.cfg.URL)
			} else {
				log.Error("Bus read failed, reconnecting", "err", err)
			}
			conn.Close()
			if !b.reconnect(ctx) {
				return
			}
			log.Info("Reconnected to bus", "url", b.cfg.URL)
			continue
		}

		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			log.Warn("Dropping malformed bus message", "msg", string(data), "err", err)
			continue
		}
		if !b.addressed(m) {
			continue
		}

		select {
		case b.inbox <- m:
		case <-ctx.Done():
			return
		}
	}
}

func (b *Bus) reconnect(ctx context.Context) bool {
	for {
		conn, _, err := ws.DefaultDialer.DialContext(ctx, b.cfg.URL, nil)
		if err == nil {
			b.mu.Lock()
			defer b.mu.Unlock()
			if ctx.Err() != nil {
				conn.Close()
				b.conn = nil
				return false
			}
			b.conn = conn
			return true
		}
		log.Debug("bus redial failed", "err", err)

		select {
		case <-ctx.Done():
			b.mu.Lock()
			b.conn = nil
			b.mu.Unlock()
			return false
		case <-time.After(b.cfg.Reconnect):
		}
	}
}

func (b *Bus) addressed(m Message) bool {
	if m.From == b.cfg.Name {
		return false
	}
	return m.To == "" || strings.EqualFold(m.To, Broadcast) || m.To == b.cfg.Name
}

func isClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
