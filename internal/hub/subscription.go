package hub

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/DoyleJ11/packboard/internal/feed"
	"github.com/DoyleJ11/packboard/internal/store"
)

// outboxSize bounds how far a subscriber may fall behind before its feed drops it.
const outboxSize = 16

// Subscription is one open live query. Snapshots arrive on C until Close, or
// until the feed drops the subscriber, at which point C is closed.
type Subscription struct {
	hub   *Hub
	topic store.Topic
	feed  *feed.Feed
	id    string
	out   chan feed.Snapshot
	once  sync.Once
}

// Subscribe opens a live subscription to topic. The first snapshot arrives on
// C as soon as the feed has loaded.
func (h *Hub) Subscribe(ctx context.Context, topic store.Topic) (*Subscription, error) {
	// An idle per-player feed can stop between EnsureFeed and Join; asking
	// again gets a fresh one.
	for range 3 {
		reply := make(chan *feed.Feed, 1)
		if !h.Send(EnsureFeed{Topic: topic, Reply: reply}) {
			return nil, ErrHubClosed
		}

		var f *feed.Feed
		select {
		case f = <-reply:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		s := &Subscription{
			hub:   h,
			topic: topic,
			feed:  f,
			id:    uuid.NewString(),
			out:   make(chan feed.Snapshot, outboxSize),
		}
		if f.Send(feed.Join{ClientID: s.id, Outbox: s.out}) {
			return s, nil
		}
		h.Send(RemoveIdle{Topic: topic})
	}
	return nil, ErrHubClosed
}

func (s *Subscription) C() <-chan feed.Snapshot { return s.out }

func (s *Subscription) Topic() store.Topic { return s.topic }

// Close tears the subscription down. Once it returns, nothing more is sent on C.
func (s *Subscription) Close() {
	s.once.Do(func() {
		done := make(chan struct{})
		if s.feed.Send(feed.Leave{ClientID: s.id, Done: done}) {
			select {
			case <-done:
			case <-s.feed.Done():
			}
		}
		if _, ok := s.topic.PlayerID(); ok {
			s.hub.Send(RemoveIdle{Topic: s.topic})
		}
	})
}
