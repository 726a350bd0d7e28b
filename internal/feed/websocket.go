package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jackleZac/trading-algorithm/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second
)

// wsCommand is sent after connecting to select the stream.
type wsCommand struct {
	Type      string `json:"type"`
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe,omitempty"`
}

// wsMessage is one frame from the relay. Frames other than "bar" are ignored.
type wsMessage struct {
	Type   string      `json:"type"`
	Symbol string      `json:"symbol"`
	Bar    *domain.Bar `json:"bar"`
}

type wsFrame struct {
	data []byte
	err  error
}

// WebsocketSource streams closed bars from a market-data relay. It
// reconnects with exponential backoff until ctx is cancelled; a normal close
// from the server ends the stream with io.EOF.
type WebsocketSource struct {
	url       string
	symbol    string
	timeframe string
	logger    *slog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	frames chan wsFrame
	done   chan struct{}
	delay  time.Duration
}

// NewWebsocketSource creates a source subscribing to symbol on url.
func NewWebsocketSource(url, symbol, timeframe string, logger *slog.Logger) *WebsocketSource {
	return &WebsocketSource{
		url:       url,
		symbol:    symbol,
		timeframe: timeframe,
		logger:    logger.With(slog.String("component", "ws_feed"), slog.String("symbol", symbol)),
		delay:     reconnectDelay,
	}
}

// Next blocks until the next bar for the subscribed symbol arrives.
func (w *WebsocketSource) Next(ctx context.Context) (domain.Bar, error) {
	for {
		if w.frames == nil {
			if err := w.connect(ctx); err != nil {
				if ctx.Err() != nil {
					return domain.Bar{}, ctx.Err()
				}
				w.logger.Warn("ws connect failed, retrying", slog.String("error", err.Error()), slog.Duration("delay", w.delay))
				if err := w.backoff(ctx); err != nil {
					return domain.Bar{}, err
				}
				continue
			}
		}

		select {
		case <-ctx.Done():
			return domain.Bar{}, ctx.Err()
		case fr := <-w.frames:
			if fr.err != nil {
				w.drop()
				if websocket.IsCloseError(fr.err, websocket.CloseNormalClosure) {
					return domain.Bar{}, io.EOF
				}
				w.logger.Warn("ws disconnected, reconnecting", slog.String("error", fr.err.Error()))
				if err := w.backoff(ctx); err != nil {
					return domain.Bar{}, err
				}
				continue
			}
			var msg wsMessage
			if err := json.Unmarshal(fr.data, &msg); err != nil {
				return domain.Bar{}, fmt.Errorf("feed/ws: decode frame: %w: %v", domain.ErrInvalidBar, err)
			}
			if msg.Type != "bar" || msg.Bar == nil {
				continue
			}
			if msg.Symbol != "" && msg.Symbol != w.symbol {
				continue
			}
			w.delay = reconnectDelay
			return *msg.Bar, nil
		}
	}
}

func (w *WebsocketSource) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("feed/ws: connect: %w", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(wsCommand{Type: "subscribe", Symbol: w.symbol, Timeframe: w.timeframe}); err != nil {
		_ = conn.Close()
		return fmt.Errorf("feed/ws: subscribe: %w", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.frames = make(chan wsFrame)
	w.done = make(chan struct{})
	frames, done := w.frames, w.done
	w.mu.Unlock()

	go readLoop(conn, frames, done)
	go w.pingLoop(conn, done)
	w.logger.Info("ws subscribed", slog.String("url", w.url), slog.String("timeframe", w.timeframe))
	return nil
}

func readLoop(conn *websocket.Conn, frames chan<- wsFrame, done <-chan struct{}) {
	for {
		_, data, err := conn.ReadMessage()
		select {
		case frames <- wsFrame{data: data, err: err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (w *WebsocketSource) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			w.mu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			w.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (w *WebsocketSource) backoff(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(w.delay):
	}
	w.delay = min(w.delay*2, maxReconnectDelay)
	return nil
}

// drop tears down the current connection.
func (w *WebsocketSource) drop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done != nil {
		close(w.done)
	}
	if w.conn != nil {
		_ = w.conn.Close()
	}
	w.conn, w.frames, w.done = nil, nil, nil
}

// Close sends a normal close to the relay and releases the connection.
func (w *WebsocketSource) Close() error {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	}
	w.drop()
	return nil
}
