package channel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// SubjectPrefix namespaces room subjects on a shared NATS server.
const SubjectPrefix = "empire.room."

// NATS publishes each room on its own subject. A single async subscription
// per room preserves publisher order.
type NATS struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// DialNATS connects to url, retrying while the server comes up.
func DialNATS(url string, logger *zap.Logger) (*NATS, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []nats.Option{
		nats.Name("metal-empire"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return NewNATS(nc, logger), nil
}

// NewNATS wraps an existing connection.
func NewNATS(conn *nats.Conn, logger *zap.Logger) *NATS {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATS{conn: conn, logger: logger}
}

func roomSubject(roomID string) string {
	return SubjectPrefix + roomID
}

func (n *NATS) Subscribe(roomID string, h Handler) (Subscription, error) {
	sub, err := n.conn.Subscribe(roomSubject(roomID), func(msg *nats.Msg) {
		h(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to room %s: %w", roomID, mapNATSError(err))
	}
	n.logger.Debug("nats subscription added", zap.String("subject", sub.Subject))
	return &natsSubscription{sub: sub}, nil
}

func (n *NATS) Publish(ctx context.Context, roomID string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.conn.Publish(roomSubject(roomID), data); err != nil {
		return fmt.Errorf("failed to publish to room %s: %w", roomID, mapNATSError(err))
	}
	return nil
}

// Close drains pending frames and closes the connection.
func (n *NATS) Close() error {
	if err := n.conn.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("failed to drain nats connection: %w", err)
	}
	return nil
}

type natsSubscription struct {
	sub *nats.Subscription
}

func (s *natsSubscription) Close() error {
	if err := s.sub.Unsubscribe(); err != nil {
		if errors.Is(err, nats.ErrBadSubscription) || errors.Is(err, nats.ErrConnectionClosed) {
			return nil
		}
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	return nil
}

func mapNATSError(err error) error {
	if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrConnectionDraining) {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return err
}
