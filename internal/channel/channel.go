// Package channel carries room messages between participants. Every
// implementation delivers each published frame to every subscriber of the
// room, the publisher included, in the order the publisher sent them.
package channel

import (
	"context"
	"errors"
)

// ErrClosed is returned once a channel or subscription has been shut down.
var ErrClosed = errors.New("channel closed")

// Handler receives one raw frame. Calls for a single subscription never overlap.
type Handler func(data []byte)

// Subscription stops delivery when closed.
type Subscription interface {
	Close() error
}

// RoomChannel is the broadcast medium shared by everyone in a room.
type RoomChannel interface {
	Subscribe(roomID string, h Handler) (Subscription, error)
	Publish(ctx context.Context, roomID string, data []byte) error
}
