package relay

import (
	"context"
	"sort"
	"time"

	"github.com/Dimasiktut/monopoly-metal-empire/internal/protocol"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBuffer     = 256
)

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	roomID string
}

type frame struct {
	roomID string
	data   []byte
}

// RoomInfo describes one active room.
type RoomInfo struct {
	ID      string `json:"id"`
	Clients int    `json:"clients"`
}

// Hub owns every relay connection. All membership changes and fan-out run on
// its single goroutine, so frames reach each client in arrival order.
type Hub struct {
	logger     *zap.Logger
	rooms      map[string]map[*client]struct{}
	broadcast  chan frame
	register   chan *client
	unregister chan *client
	query      chan chan []RoomInfo
	done       chan struct{}
}

// NewHub creates a hub. Call Run before serving connections.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:     logger,
		rooms:      make(map[string]map[*client]struct{}),
		broadcast:  make(chan frame, sendBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		query:      make(chan chan []RoomInfo),
		done:       make(chan struct{}),
	}
}

// Run processes hub events until ctx is cancelled, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, room := range h.rooms {
				for c := range room {
					close(c.send)
				}
			}
			h.rooms = make(map[string]map[*client]struct{})
			return

		case c := <-h.register:
			if h.rooms[c.roomID] == nil {
				h.rooms[c.roomID] = make(map[*client]struct{})
			}
			h.rooms[c.roomID][c] = struct{}{}
			c.send <- []byte(protocol.RelayJoined)
			h.logger.Info("relay client joined",
				zap.String("room_id", c.roomID),
				zap.Int("clients", len(h.rooms[c.roomID])),
			)

		case c := <-h.unregister:
			h.drop(c)

		case f := <-h.broadcast:
			for c := range h.rooms[f.roomID] {
				select {
				case c.send <- f.data:
				default:
					h.logger.Warn("relay client too slow, dropping",
						zap.String("room_id", c.roomID),
					)
					h.drop(c)
				}
			}

		case reply := <-h.query:
			infos := make([]RoomInfo, 0, len(h.rooms))
			for id, room := range h.rooms {
				infos = append(infos, RoomInfo{ID: id, Clients: len(room)})
			}
			sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
			reply <- infos
		}
	}
}

func (h *Hub) drop(c *client) {
	room, ok := h.rooms[c.roomID]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	close(c.send)
	if len(room) == 0 {
		delete(h.rooms, c.roomID)
	}
	h.logger.Info("relay client left", zap.String("room_id", c.roomID))
}

// Rooms lists active rooms. It returns nil once the hub has stopped.
func (h *Hub) Rooms() []RoomInfo {
	reply := make(chan []RoomInfo, 1)
	select {
	case h.query <- reply:
		return <-reply
	case <-h.done:
		return nil
	}
}

func (h *Hub) join(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) publish(roomID string, data []byte) {
	select {
	case h.broadcast <- frame{roomID: roomID, data: data}:
	case <-h.done:
	}
}

func (c *client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("relay read failed",
					zap.String("room_id", c.roomID),
					zap.Error(err),
				)
			}
			return
		}
		c.hub.publish(c.roomID, message)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
