package feed

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/packboard/internal/metrics"
	"github.com/DoyleJ11/packboard/internal/store"
)

type Msg interface{ isFeedMsg() }

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isFeedMsg() {}

// Leave unregisters a client and closes its outbox. Done, if set, is closed
// once nothing more can be sent to the client.
type Leave struct {
	ClientID string
	Done     chan struct{}
}

func (Leave) isFeedMsg() {}

// Changed tells the feed the store has new data for its topic.
type Changed struct{}

func (Changed) isFeedMsg() {}

type Shutdown struct{}

func (Shutdown) isFeedMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isFeedMsg() {}

type Snapshot struct {
	Version int
	State   store.Snapshot
}

type View struct {
	Version    int
	Loaded     bool
	NumClients int
	State      store.Snapshot
}

// Loader runs the query behind a topic.
type Loader func(ctx context.Context, topic store.Topic) (store.Snapshot, error)

// Feed holds the latest snapshot of one topic and pushes it, whole, to every
// client on each change.
type Feed struct {
	topic   store.Topic
	load    Loader
	log     *zap.Logger
	metrics *metrics.Metrics

	inbox   chan Msg
	state   store.Snapshot
	loaded  bool
	version int
	clients map[string]chan Snapshot
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewFeed(parent context.Context, topic store.Topic, load Loader, log *zap.Logger, m *metrics.Metrics) *Feed {
	ctx, cancel := context.WithCancel(parent)

	f := &Feed{
		topic:   topic,
		load:    load,
		log:     log.With(zap.String("topic", string(topic))),
		metrics: m,
		inbox:   make(chan Msg, 64),
		clients: make(map[string]chan Snapshot),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go f.loop()
	return f
}

func (f *Feed) Topic() store.Topic { return f.topic }

// Inbox is how the hub, the ws layer and tests talk to the feed.
func (f *Feed) Inbox() chan<- Msg { return f.inbox }

// Done is closed once the loop has exited and every outbox is closed.
func (f *Feed) Done() <-chan struct{} { return f.done }

// Send delivers msg unless the feed has already stopped.
func (f *Feed) Send(msg Msg) bool {
	select {
	case <-f.done:
		return false
	default:
	}
	select {
	case f.inbox <- msg:
		return true
	case <-f.done:
		return false
	}
}

func (f *Feed) loop() {
	defer close(f.done)

	for {
		select {
		case <-f.ctx.Done():
			f.shutdown()
			return

		case m := <-f.inbox:
			switch msg := m.(type) {
			case Join:
				f.clients[msg.ClientID] = msg.Outbox
				f.metrics.Subscribed(f.topic.Kind())
				if !f.loaded {
					// First subscriber: the reload broadcast covers the join.
					f.reload()
					break
				}
				f.send(msg.ClientID, msg.Outbox, Snapshot{Version: f.version, State: f.state})

			case Leave:
				f.drop(msg.ClientID)
				if msg.Done != nil {
					close(msg.Done)
				}

			case Changed:
				f.reload()

			case GetState:
				msg.Reply <- View{
					Version:    f.version,
					Loaded:     f.loaded,
					NumClients: len(f.clients),
					State:      f.state,
				}

			case Shutdown:
				f.shutdown()
				return
			}
		}
	}
}

// reload replaces the snapshot wholesale. On a failed load the previous
// snapshot stays and nothing is broadcast.
func (f *Feed) reload() {
	snap, err := f.load(f.ctx, f.topic)
	if err != nil {
		f.log.Error("reload snapshot", zap.Error(err))
		return
	}
	f.state = snap
	f.loaded = true
	f.version++
	f.broadcast(Snapshot{Version: f.version, State: f.state})
}

func (f *Feed) shutdown() {
	for id := range f.clients {
		f.drop(id)
	}
	f.cancel()

	// Joins that raced the shutdown get a closed outbox so they can retry.
	for {
		select {
		case m := <-f.inbox:
			switch msg := m.(type) {
			case Join:
				close(msg.Outbox)
			case Leave:
				if msg.Done != nil {
					close(msg.Done)
				}
			case GetState:
				msg.Reply <- View{Version: f.version, Loaded: f.loaded, State: f.state}
			}
		default:
			return
		}
	}
}

func (f *Feed) drop(id string) {
	ch, ok := f.clients[id]
	if !ok {
		return
	}
	close(ch) // Tell client no more snapshots
	delete(f.clients, id)
	f.metrics.Unsubscribed(f.topic.Kind())
}

func (f *Feed) send(id string, ch chan Snapshot, snap Snapshot) bool {
	select {
	case ch <- snap:
		f.metrics.Pushed(f.topic.Kind(), 1)
		return true
	default:
		// Client is slow/full - drop them.
		f.log.Warn("dropping slow subscriber", zap.String("client_id", id))
		f.metrics.Dropped(f.topic.Kind())
		f.drop(id)
		return false
	}
}

func (f *Feed) broadcast(snap Snapshot) {
	for id, ch := range f.clients {
		f.send(id, ch, snap)
	}
}
