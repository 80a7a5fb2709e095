package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/packboard/internal/store"
)

const reconnectDelay = 2 * time.Second

// listen keeps one dedicated LISTEN connection open until ctx ends.
func (s *Store) listen(ctx context.Context) {
	for {
		err := s.listenOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		s.log.Warn("change listener dropped, reconnecting", zap.Error(err), zap.Duration("delay", reconnectDelay))

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (s *Store) listenOnce(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, s.dsn)
	if err != nil {
		return fmt.Errorf("connect listener: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{Channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", Channel, err)
	}
	s.log.Debug("listening for changes", zap.String("channel", Channel))

	// Notifications sent while we were disconnected are gone.
	if !s.forward(ctx, store.TopicResync) {
		return ctx.Err()
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		topic := store.Topic(n.Payload)
		if !topic.Valid() {
			s.log.Warn("ignoring notification with unknown topic", zap.String("payload", n.Payload))
			continue
		}
		if !s.forward(ctx, topic) {
			return ctx.Err()
		}
	}
}

func (s *Store) forward(ctx context.Context, t store.Topic) bool {
	select {
	case s.changes <- t:
		return true
	case <-ctx.Done():
		return false
	}
}
