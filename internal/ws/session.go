package ws

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/packboard/internal/editor"
	"github.com/DoyleJ11/packboard/internal/feed"
	"github.com/DoyleJ11/packboard/internal/hub"
	"github.com/DoyleJ11/packboard/internal/mirror"
	"github.com/DoyleJ11/packboard/internal/scoreboard"
	"github.com/DoyleJ11/packboard/internal/store"
	"github.com/DoyleJ11/packboard/internal/types"
	"github.com/DoyleJ11/packboard/internal/view"
)

type event interface{ isEvent() }

type snapshotIn struct {
	sub  *hub.Subscription
	snap feed.Snapshot
}

// subEnded means a subscription's channel closed: after Close, or because
// the feed dropped us.
type subEnded struct {
	sub *hub.Subscription
}

type commandIn struct {
	cmd editor.Command
}

type clientError struct {
	msg string
}

type readerDone struct{}

func (snapshotIn) isEvent()  {}
func (subEnded) isEvent()    {}
func (commandIn) isEvent()   {}
func (clientError) isEvent() {}
func (readerDone) isEvent()  {}

// session owns one browser's mirror and editor state. Everything except the
// forwarders and the effect goroutines runs on run's goroutine.
type session struct {
	id      string
	hub     *hub.Hub
	gw      *scoreboard.Gateway
	gate    *editor.Gate
	log     *zap.Logger
	mirror  *mirror.Mirror
	state   editor.State
	subs    map[store.Topic]*hub.Subscription
	events  chan event
	views   chan []byte
	errs    chan []byte
	version int
}

func newSession(id string, d Deps, log *zap.Logger, unlocked bool) *session {
	return &session{
		id:     id,
		hub:    d.Hub,
		gw:     d.Gateway,
		gate:   d.Gate,
		log:    log.With(zap.String("session_id", id)),
		mirror: mirror.New(),
		state:  editor.NewState(unlocked),
		subs:   make(map[store.Topic]*hub.Subscription),
		events: make(chan event, 64),
		views:  make(chan []byte, 1),
		errs:   make(chan []byte, 8),
	}
}

// open subscribes to the topics every editor view shows.
func (s *session) open(ctx context.Context) error {
	for _, topic := range store.BaseTopics {
		if err := s.subscribe(ctx, topic); err != nil {
			s.close()
			return err
		}
	}
	return nil
}

// close tears down every subscription. No snapshot reaches the mirror after it.
func (s *session) close() {
	for topic, sub := range s.subs {
		sub.Close()
		delete(s.subs, topic)
	}
}

func (s *session) post(ctx context.Context, ev event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}

func (s *session) subscribe(ctx context.Context, topic store.Topic) error {
	sub, err := s.hub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}
	s.mirror.Forget(topic)
	s.subs[topic] = sub
	go s.forward(ctx, sub)
	return nil
}

func (s *session) unsubscribe(topic store.Topic) {
	sub, ok := s.subs[topic]
	if !ok {
		return
	}
	delete(s.subs, topic)
	sub.Close()
	if id, ok := topic.PlayerID(); ok {
		s.mirror.DropPlayerHistory(id)
	}
}

func (s *session) forward(ctx context.Context, sub *hub.Subscription) {
	for snap := range sub.C() {
		s.post(ctx, snapshotIn{sub: sub, snap: snap})
	}
	s.post(ctx, subEnded{sub: sub})
}

func (s *session) run(ctx context.Context) {
	s.push()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			switch ev := ev.(type) {
			case snapshotIn:
				if s.subs[ev.sub.Topic()] != ev.sub {
					break // late push from a closed subscription
				}
				if s.mirror.Apply(ev.snap.Version, ev.snap.State) {
					s.push()
				}

			case subEnded:
				s.resubscribe(ctx, ev.sub)

			case commandIn:
				s.handle(ctx, ev.cmd)

			case clientError:
				s.fail(ev.msg)

			case readerDone:
				return
			}
		}
	}
}

// resubscribe reopens a subscription the feed dropped (slow consumer, feed
// restart). Subscriptions we closed ourselves are already gone from subs.
func (s *session) resubscribe(ctx context.Context, sub *hub.Subscription) {
	topic := sub.Topic()
	if s.subs[topic] != sub {
		return
	}
	delete(s.subs, topic)
	sub.Close()
	if ctx.Err() != nil {
		return
	}
	s.log.Info("subscription dropped, reopening", zap.String("topic", string(topic)))
	if err := s.subscribe(ctx, topic); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Error("resubscribe", zap.String("topic", string(topic)), zap.Error(err))
	}
}

func (s *session) handle(ctx context.Context, cmd editor.Command) {
	next, effects, err := editor.Apply(s.state, cmd, editor.Env{Mirror: s.mirror, Gate: s.gate})
	if err != nil {
		s.fail(err.Error())
		return
	}
	s.state = next

	for _, e := range effects {
		switch e.Type {
		case editor.EffUnsubscribePlayer:
			s.unsubscribe(store.PlayerHistoryTopic(e.PlayerID))
		case editor.EffSubscribePlayer:
			if err := s.subscribe(ctx, store.PlayerHistoryTopic(e.PlayerID)); err != nil {
				s.log.Error("subscribe player history", zap.String("player_id", e.PlayerID), zap.Error(err))
			}
		default:
			// Writes outlive the socket; closing the view never cancels one.
			go s.write(context.WithoutCancel(ctx), e)
		}
	}
	s.push()
}

func (s *session) write(ctx context.Context, e editor.Effect) {
	var err error
	switch e.Type {
	case editor.EffAddPlayer:
		err = s.gw.AddPlayer(ctx, e.NewPlayer)
	case editor.EffEditScore:
		err = s.gw.EditScore(ctx, e.PlayerID, e.Value)
	case editor.EffAppendHistory:
		err = s.gw.AppendHistory(ctx, e.PlayerID, e.Value, e.Card, e.Mirrored)
	case editor.EffRenamePlayer:
		err = s.gw.RenamePlayer(ctx, e.PlayerID, e.Value)
	case editor.EffEditPackCount:
		err = s.gw.EditPackCount(ctx, e.Value, e.GameState)
	case editor.EffAddPacks:
		err = s.gw.AddPacks(ctx, e.Value, e.GameState)
	case editor.EffDeleteAll:
		err = s.gw.DeleteAll(ctx)
	case editor.EffSetDenominator:
		err = s.gw.SetDenominator(ctx, e.Total)
	case editor.EffSetStatus:
		err = s.gw.SetStatus(ctx, e.Value)
	default:
		s.log.Warn("unknown effect", zap.String("effect", string(e.Type)))
		return
	}
	// The gateway has logged the failure; the view just never changes.
	if err != nil {
		s.log.Debug("write effect failed", zap.String("effect", string(e.Type)), zap.Error(err))
	}
}

func (s *session) push() {
	body, err := json.Marshal(view.Scoreboard(s.mirror, s.state))
	if err != nil {
		s.log.Error("marshal view", zap.Error(err))
		return
	}
	s.version++
	payload, err := json.Marshal(types.ServerMessage{Type: types.MsgView, Version: s.version, View: body})
	if err != nil {
		s.log.Error("marshal view message", zap.Error(err))
		return
	}
	s.offer(payload)
}

// offer queues a view for the writer. Views are whole, so when the writer is
// behind, the queued one is replaced instead of blocking the session.
func (s *session) offer(payload []byte) {
	select {
	case s.views <- payload:
		return
	default:
	}
	select {
	case <-s.views:
	default:
	}
	select {
	case s.views <- payload:
	default:
	}
}

// fail queues an Error frame. Errors are dropped if the writer is far behind.
func (s *session) fail(msg string) {
	select {
	case s.errs <- types.ErrorMessage(msg):
	default:
		s.log.Debug("error frame dropped", zap.String("error", msg))
	}
}
