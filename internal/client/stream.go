package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/salvalabdesarollo-source/dashboard/internal/scan"
)

// Stream is one live push-channel connection. Each mounted view owns
// exactly one stream and closes it on teardown.
type Stream struct {
	conn   *websocket.Conn
	frames chan scan.Frame
	done   chan struct{}

	mu     sync.Mutex
	err    error
	closed bool
}

// Stream dials the collaborator's push channel. The returned stream stays
// open until Close is called, ctx is cancelled, or the peer goes away.
func (c *Client) Stream(ctx context.Context) (*Stream, error) {
	wsURL := strings.Replace(c.base, "http", "ws", 1) + "/ws"

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial push channel: %w", err)
	}

	s := &Stream{
		conn:   conn,
		frames: make(chan scan.Frame),
		done:   make(chan struct{}),
	}

	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()
	go s.readLoop()

	return s, nil
}

// Frames delivers inbound push frames until the stream ends.
func (s *Stream) Frames() <-chan scan.Frame {
	return s.frames
}

// Err reports why the stream ended, nil for a clean Close.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	s.mu.Unlock()
	return s.conn.Close()
}

func (s *Stream) readLoop() {
	defer close(s.frames)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			if !s.closed {
				s.err = err
			}
			s.mu.Unlock()
			return
		}

		var frame scan.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			// Not a frame we understand; skip rather than kill the stream.
			continue
		}
		select {
		case s.frames <- frame:
		case <-s.done:
			return
		}
	}
}
