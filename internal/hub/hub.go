package hub

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/packboard/internal/feed"
	"github.com/DoyleJ11/packboard/internal/metrics"
	"github.com/DoyleJ11/packboard/internal/store"
)

var ErrHubClosed = errors.New("hub closed")

type HubMsg interface{ isHubMsg() }

// EnsureFeed returns the feed for Topic, creating it on first use.
type EnsureFeed struct {
	Topic store.Topic
	Reply chan *feed.Feed
}

type GetFeed struct {
	Topic store.Topic
	Reply chan *feed.Feed
}

// Notify routes a store change to the topic's feed, if anyone opened one.
// store.TopicResync reloads every open feed.
type Notify struct {
	Topic store.Topic
}

// RemoveIdle stops the topic's feed if it has no clients left.
type RemoveIdle struct {
	Topic store.Topic
}

type ShutdownHub struct{}

func (EnsureFeed) isHubMsg()  {}
func (GetFeed) isHubMsg()     {}
func (Notify) isHubMsg()      {}
func (RemoveIdle) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

// Hub is the registry of live feeds, one per topic.
type Hub struct {
	inbox   chan HubMsg
	feeds   map[store.Topic]*feed.Feed
	load    feed.Loader
	log     *zap.Logger
	metrics *metrics.Metrics
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewHub(parent context.Context, load feed.Loader, log *zap.Logger, m *metrics.Metrics) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		feeds:   make(map[store.Topic]*feed.Feed),
		load:    load,
		log:     log.Named("hub"),
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) Done() <-chan struct{} { return h.done }

// Send delivers msg unless the hub has stopped.
func (h *Hub) Send(msg HubMsg) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.inbox <- msg:
		return true
	case <-h.done:
		return false
	}
}

// Pump forwards store change notifications until ctx ends or changes closes.
func (h *Hub) Pump(ctx context.Context, changes <-chan store.Topic) {
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-changes:
			if !ok {
				return
			}
			if !h.Send(Notify{Topic: t}) {
				return
			}
		}
	}
}

func (h *Hub) loop() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureFeed:
				msg.Reply <- h.ensure(msg.Topic)

			case GetFeed:
				msg.Reply <- h.feeds[msg.Topic] // May be nil

			case Notify:
				h.notify(msg.Topic)

			case RemoveIdle:
				h.removeIdle(msg.Topic)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) ensure(topic store.Topic) *feed.Feed {
	if f := h.feeds[topic]; f != nil {
		return f
	}
	f := feed.NewFeed(h.ctx, topic, h.load, h.log, h.metrics)
	h.feeds[topic] = f
	h.log.Debug("feed opened", zap.String("topic", string(topic)))
	return f
}

func (h *Hub) notify(topic store.Topic) {
	if topic == store.TopicResync {
		h.log.Info("resyncing open feeds", zap.Int("feeds", len(h.feeds)))
		for _, f := range h.feeds {
			f.Send(feed.Changed{})
		}
		return
	}
	if f := h.feeds[topic]; f != nil {
		f.Send(feed.Changed{})
	}
}

func (h *Hub) removeIdle(topic store.Topic) {
	f := h.feeds[topic]
	if f == nil {
		return
	}
	reply := make(chan feed.View, 1)
	if !f.Send(feed.GetState{Reply: reply}) {
		delete(h.feeds, topic)
		return
	}
	select {
	case v := <-reply:
		if v.NumClients > 0 {
			return
		}
	case <-f.Done():
	}
	f.Send(feed.Shutdown{})
	delete(h.feeds, topic)
	h.log.Debug("feed closed", zap.String("topic", string(topic)))
}

func (h *Hub) shutdown() {
	for _, f := range h.feeds {
		f.Send(feed.Shutdown{})
	}
	clear(h.feeds)
	h.cancel()
}
