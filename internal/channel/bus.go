package channel

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Bus is an in-process RoomChannel. Participants sharing one process, such as
// hot-seat play or tests, talk through it.
type Bus struct {
	logger *zap.Logger
	mu     sync.RWMutex
	rooms  map[string]map[*busSubscription]struct{}
	closed bool
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		logger: logger,
		rooms:  make(map[string]map[*busSubscription]struct{}),
	}
}

func (b *Bus) Subscribe(roomID string, h Handler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	sub := &busSubscription{
		bus:     b,
		roomID:  roomID,
		handler: h,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	if b.rooms[roomID] == nil {
		b.rooms[roomID] = make(map[*busSubscription]struct{})
	}
	b.rooms[roomID][sub] = struct{}{}
	go sub.deliver()

	b.logger.Debug("bus subscription added",
		zap.String("room_id", roomID),
		zap.Int("subscribers", len(b.rooms[roomID])),
	)
	return sub, nil
}

func (b *Bus) Publish(ctx context.Context, roomID string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Publishing under the lock keeps one publisher's frames in order for
	// every subscriber.
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}
	for sub := range b.rooms[roomID] {
		sub.enqueue(append([]byte(nil), data...))
	}
	return nil
}

// Subscribers returns how many subscriptions roomID currently has.
func (b *Bus) Subscribers(roomID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.rooms[roomID])
}

// Close stops every subscription and rejects further use.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	var subs []*busSubscription
	for _, room := range b.rooms {
		for sub := range room {
			subs = append(subs, sub)
		}
	}
	b.rooms = make(map[string]map[*busSubscription]struct{})
	b.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
	return nil
}

func (b *Bus) remove(sub *busSubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	room := b.rooms[sub.roomID]
	delete(room, sub)
	if len(room) == 0 {
		delete(b.rooms, sub.roomID)
	}
}

type busSubscription struct {
	bus     *Bus
	roomID  string
	handler Handler

	mu     sync.Mutex
	queue  [][]byte
	wake   chan struct{}
	done   chan struct{}
	once   sync.Once
	closed bool
}

func (s *busSubscription) enqueue(data []byte) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, data)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *busSubscription) deliver() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		for {
			s.mu.Lock()
			if s.closed || len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			data := s.queue[0]
			s.queue[0] = nil
			s.queue = s.queue[1:]
			s.mu.Unlock()

			s.handler(data)
		}
	}
}

func (s *busSubscription) stop() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.queue = nil
		s.mu.Unlock()
		close(s.done)
	})
}

func (s *busSubscription) Close() error {
	s.bus.remove(s)
	s.stop()
	return nil
}
