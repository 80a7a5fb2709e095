package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/packboard/internal/store"
)

// helper: receive one snapshot with a timeout so tests never hang
func recvSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatalf("client outbox closed unexpectedly")
		}
		return snap
	case <-time.After(within):
		t.Fatalf("timed out waiting for snapshot")
		return Snapshot{} // unreachable
	}
}

func recvNoSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			// channel closed → that's fine; no further snapshots possible
			return
		}
		t.Fatalf("expected no snapshot within %v, but got: %+v", within, s)
	case <-time.After(within):
		// good: no snapshot
	}
}

func recvView(t *testing.T, ch <-chan View, within time.Duration) View {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(within):
		t.Fatalf("timed out waiting for view")
		return View{} // unreachable
	}
}

func memoryLoader(m *store.Memory) Loader {
	return func(ctx context.Context, topic store.Topic) (store.Snapshot, error) {
		return store.Load(ctx, m, topic)
	}
}

func TestFeed_JoinGetsCurrentSnapshot_ChangeBroadcastsFullSnapshot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := store.NewMemory()
	if _, err := m.CreatePlayer(ctx, "Ana", 5); err != nil {
		t.Fatalf("seed: %v", err)
	}

	f := NewFeed(ctx, store.TopicScores, memoryLoader(m), zap.NewNop(), nil)

	out := make(chan Snapshot, 2)
	f.Inbox() <- Join{ClientID: "c1", Outbox: out}

	first := recvSnapshot(t, out, 100*time.Millisecond)
	if first.Version != 1 {
		t.Fatalf("after join: want version=1, got %d", first.Version)
	}
	if len(first.State.Scores) != 1 || first.State.Scores[0].PlayerName != "Ana" {
		t.Fatalf("after join: want [Ana], got %+v", first.State.Scores)
	}

	if _, err := m.CreatePlayer(ctx, "Bo", 9); err != nil {
		t.Fatalf("create: %v", err)
	}
	f.Inbox() <- Changed{}

	next := recvSnapshot(t, out, 100*time.Millisecond)
	if next.Version != 2 {
		t.Fatalf("after change: want version=2, got %d", next.Version)
	}
	if len(next.State.Scores) != 2 || next.State.Scores[0].PlayerName != "Bo" {
		t.Fatalf("after change: want [Bo Ana], got %+v", next.State.Scores)
	}

	f.Inbox() <- Shutdown{}
}

func TestFeed_SecondJoinReusesLoadedSnapshot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loads := 0
	load := func(ctx context.Context, topic store.Topic) (store.Snapshot, error) {
		loads++
		return store.Snapshot{Topic: topic}, nil
	}
	f := NewFeed(ctx, store.TopicPackHistory, load, zap.NewNop(), nil)

	a := make(chan Snapshot, 1)
	b := make(chan Snapshot, 1)
	f.Inbox() <- Join{ClientID: "a", Outbox: a}
	f.Inbox() <- Join{ClientID: "b", Outbox: b}

	sa := recvSnapshot(t, a, 100*time.Millisecond)
	sb := recvSnapshot(t, b, 100*time.Millisecond)
	if sa.Version != sb.Version {
		t.Fatalf("want same version for both joins, got %d and %d", sa.Version, sb.Version)
	}

	reply := make(chan View, 1)
	f.Inbox() <- GetState{Reply: reply}
	view := recvView(t, reply, 100*time.Millisecond)
	if view.NumClients != 2 {
		t.Fatalf("want 2 clients, got %d", view.NumClients)
	}
	if loads != 1 {
		t.Fatalf("want exactly one load, got %d", loads)
	}
}

func TestFeed_LeaveClosesOutbox_NoFurtherSnapshots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := store.NewMemory()
	f := NewFeed(ctx, store.TopicGameState, memoryLoader(m), zap.NewNop(), nil)

	out := make(chan Snapshot, 4)
	f.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	done := make(chan struct{})
	f.Inbox() <- Leave{ClientID: "c1", Done: done}
	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("leave was not acknowledged")
	}

	f.Inbox() <- Changed{}
	recvNoSnapshot(t, out, 100*time.Millisecond)

	if _, ok := <-out; ok {
		t.Fatalf("expected outbox to be closed after leave")
	}

	// Leaving twice is harmless.
	again := make(chan struct{})
	f.Inbox() <- Leave{ClientID: "c1", Done: again}
	<-again
}

func TestFeed_DropSlowClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := store.NewMemory()
	f := NewFeed(ctx, store.TopicScores, memoryLoader(m), zap.NewNop(), nil)

	clientOut := make(chan Snapshot, 1)
	f.Inbox() <- Join{ClientID: "ch1", Outbox: clientOut}
	f.Inbox() <- Changed{}

	reply := make(chan View, 1)
	f.Inbox() <- GetState{Reply: reply}
	view := recvView(t, reply, 100*time.Millisecond)

	if view.NumClients != 0 {
		t.Fatalf("expected slow client to be dropped; NumClients=%d", view.NumClients)
	}
}

func TestFeed_FailedReloadKeepsPreviousSnapshot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fail := false
	load := func(ctx context.Context, topic store.Topic) (store.Snapshot, error) {
		if fail {
			return store.Snapshot{}, errors.New("store unavailable")
		}
		return store.Snapshot{Topic: topic, Scores: []store.PlayerScore{{ID: "p1", PlayerName: "Ana"}}}, nil
	}
	f := NewFeed(ctx, store.TopicScores, load, zap.NewNop(), nil)

	out := make(chan Snapshot, 4)
	f.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	reply := make(chan View, 1)
	f.Inbox() <- GetState{Reply: reply}
	_ = recvView(t, reply, 100*time.Millisecond)
	fail = true // the loop is idle until the next message

	f.Inbox() <- Changed{}
	recvNoSnapshot(t, out, 100*time.Millisecond)

	f.Inbox() <- GetState{Reply: reply}
	view := recvView(t, reply, 100*time.Millisecond)
	if view.Version != 1 || len(view.State.Scores) != 1 {
		t.Fatalf("want previous snapshot kept at version 1, got %+v", view)
	}
}

func TestFeed_ShutdownClosesEveryOutbox(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := store.NewMemory()
	f := NewFeed(ctx, store.TopicScores, memoryLoader(m), zap.NewNop(), nil)

	out := make(chan Snapshot, 2)
	f.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	f.Inbox() <- Shutdown{}
	select {
	case <-f.Done():
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("feed did not stop")
	}
	if _, ok := <-out; ok {
		t.Fatalf("expected outbox closed on shutdown")
	}
	if f.Send(Changed{}) {
		t.Fatalf("send after shutdown should report false")
	}
}

func TestFeed_JoinQueuedBehindShutdownGetsClosedOutbox(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	load := func(ctx context.Context, topic store.Topic) (store.Snapshot, error) {
		<-release
		return store.Snapshot{Topic: topic}, nil
	}
	f := NewFeed(ctx, store.TopicPackHistory, load, zap.NewNop(), nil)

	first := make(chan Snapshot, 2)
	late := make(chan Snapshot, 2)
	f.Inbox() <- Join{ClientID: "c1", Outbox: first} // loop blocks in load
	f.Inbox() <- Shutdown{}
	f.Inbox() <- Join{ClientID: "c2", Outbox: late}
	close(release)

	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatalf("feed did not stop")
	}
	select {
	case _, ok := <-late:
		if ok {
			t.Fatalf("late joiner should get a closed outbox, not a snapshot")
		}
	default:
		t.Fatalf("late joiner's outbox left open")
	}
}
