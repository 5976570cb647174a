package channel

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Dimasiktut/monopoly-metal-empire/internal/protocol"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// ErrNotSubscribed is returned when publishing to a room with no open socket.
var ErrNotSubscribed = errors.New("not subscribed to room")

// WebSocket reaches a relay server that fans frames out per room. Each
// subscription holds its own socket; publishes go out on the room's socket.
type WebSocket struct {
	base   *url.URL
	dialer *websocket.Dialer
	logger *zap.Logger

	mu    sync.Mutex
	rooms map[string][]*wsSubscription
}

// NewWebSocket targets a relay such as "ws://localhost:8090". http and https
// schemes are rewritten to ws and wss.
func NewWebSocket(relayURL string, logger *zap.Logger) (*WebSocket, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	base, err := url.Parse(relayURL)
	if err != nil {
		return nil, fmt.Errorf("invalid relay url: %w", err)
	}
	switch base.Scheme {
	case "http":
		base.Scheme = "ws"
	case "https":
		base.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported relay scheme %q", base.Scheme)
	}
	return &WebSocket{
		base:   base,
		dialer: &websocket.Dialer{HandshakeTimeout: writeWait},
		logger: logger,
		rooms:  make(map[string][]*wsSubscription),
	}, nil
}

func (w *WebSocket) roomURL(roomID string) string {
	u := *w.base
	u.Path = strings.TrimRight(u.Path, "/") + "/rooms/" + url.PathEscape(roomID) + "/ws"
	return u.String()
}

func (w *WebSocket) Subscribe(roomID string, h Handler) (Subscription, error) {
	target := w.roomURL(roomID)
	conn, _, err := w.dialer.Dial(target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial relay %s: %w", target, err)
	}
	if err := awaitJoined(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("relay %s did not accept room %s: %w", target, roomID, err)
	}

	sub := &wsSubscription{
		owner:   w,
		roomID:  roomID,
		conn:    conn,
		handler: h,
		done:    make(chan struct{}),
	}

	w.mu.Lock()
	w.rooms[roomID] = append(w.rooms[roomID], sub)
	w.mu.Unlock()

	go sub.readPump(w.logger)

	w.logger.Debug("relay socket opened", zap.String("room_id", roomID))
	return sub, nil
}

func (w *WebSocket) Publish(ctx context.Context, roomID string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	subs := w.rooms[roomID]
	var sub *wsSubscription
	if len(subs) > 0 {
		sub = subs[0]
	}
	w.mu.Unlock()

	if sub == nil {
		return fmt.Errorf("%w: %s", ErrNotSubscribed, roomID)
	}
	return sub.write(ctx, data)
}

func (w *WebSocket) remove(sub *wsSubscription) {
	w.mu.Lock()
	defer w.mu.Unlock()

	subs := w.rooms[sub.roomID]
	for i, s := range subs {
		if s == sub {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(w.rooms, sub.roomID)
	} else {
		w.rooms[sub.roomID] = subs
	}
}

// awaitJoined blocks until the relay confirms the socket is in its room, so
// nothing published afterwards can be missed.
func awaitJoined(conn *websocket.Conn) error {
	if err := conn.SetReadDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		return err
	}
	if string(data) != protocol.RelayJoined {
		return fmt.Errorf("unexpected first frame %q", data)
	}
	return conn.SetReadDeadline(time.Time{})
}

type wsSubscription struct {
	owner   *WebSocket
	roomID  string
	conn    *websocket.Conn
	handler Handler

	writeMu sync.Mutex
	done    chan struct{}
	once    sync.Once
}

func (s *wsSubscription) readPump(logger *zap.Logger) {
	defer s.shutdown()

	for {
		msgType, message, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				logger.Warn("relay socket closed",
					zap.String("room_id", s.roomID),
					zap.Error(err),
				)
			}
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		s.handler(message)
	}
}

func (s *wsSubscription) write(ctx context.Context, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write to relay: %w", err)
	}
	return nil
}

func (s *wsSubscription) shutdown() {
	s.once.Do(func() {
		close(s.done)
		s.owner.remove(s)
		s.conn.Close()
	})
}

func (s *wsSubscription) Close() error {
	s.writeMu.Lock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()

	s.shutdown()
	return nil
}
