package transport

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// DefaultWebSocketURL is where the sensor backend listens by default.
const DefaultWebSocketURL = "ws://127.0.0.1:8000/ws"

// WebSocket reads JSON messages from a websocket endpoint.
type WebSocket struct {
	URL    string
	Dialer *websocket.Dialer
	Logger *zap.Logger
}

func NewWebSocket(rawURL string, logger *zap.Logger) *WebSocket {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocket{URL: rawURL, Dialer: websocket.DefaultDialer, Logger: logger}
}

func (s *WebSocket) Stream(ctx context.Context) (<-chan Event, error) {
	u, err := url.Parse(s.URL)
	if err != nil {
		return nil, fmt.Errorf("parse websocket url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("websocket url %q: scheme must be ws or wss", s.URL)
	}
	em := newEmitter(ctx)
	go s.run(ctx, em)
	return em.out, nil
}

func (s *WebSocket) run(ctx context.Context, em *emitter) {
	dialer := s.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, s.URL, nil)
	if err != nil {
		em.close(fmt.Errorf("dial %s: %w", s.URL, err))
		return
	}
	s.Logger.Info("websocket connected", zap.String("url", s.URL))

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.Logger.Info("websocket closed by peer", zap.String("url", s.URL))
				em.close(nil)
				return
			}
			em.close(fmt.Errorf("read %s: %w", s.URL, err))
			return
		}
		em.payload(data)
	}
}
