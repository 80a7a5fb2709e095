package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainTopics(m *Memory) []Topic {
	var out []Topic
	for {
		select {
		case t := <-m.Changes():
			out = append(out, t)
		default:
			return out
		}
	}
}

func TestMemory_ListScores_OrdersByScoreThenInsertion(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.CreatePlayer(ctx, "Ana", 5)
	require.NoError(t, err)
	_, err = m.CreatePlayer(ctx, "Bo", 12.5)
	require.NoError(t, err)
	_, err = m.CreatePlayer(ctx, "Cy", 5)
	require.NoError(t, err)

	scores, err := m.ListScores(ctx)
	require.NoError(t, err)
	require.Len(t, scores, 3)

	names := []string{scores[0].PlayerName, scores[1].PlayerName, scores[2].PlayerName}
	assert.Equal(t, []string{"Bo", "Ana", "Cy"}, names)
}

func TestMemory_WritesPublishTopics(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	p, err := m.CreatePlayer(ctx, "Ana", 1)
	require.NoError(t, err)
	assert.Equal(t, []Topic{TopicScores}, drainTopics(m))

	_, err = m.AppendPlayerHistory(ctx, p.ID, 1, "Pikachu")
	require.NoError(t, err)
	assert.Equal(t, []Topic{PlayerHistoryTopic(p.ID)}, drainTopics(m))

	total := 36
	require.NoError(t, m.UpdateGameState(ctx, GameStateUpdate{TotalPacks: &total}))
	assert.Equal(t, []Topic{TopicGameState}, drainTopics(m))

	_, err = m.AppendPackHistory(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []Topic{TopicPackHistory}, drainTopics(m))

	require.NoError(t, m.DeletePlayer(ctx, p.ID))
	assert.Equal(t, []Topic{TopicScores, PlayerHistoryTopic(p.ID)}, drainTopics(m))
}

func TestMemory_MissingDocuments(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.GetGameState(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, m.UpdateScore(ctx, "nope", 1), ErrNotFound)
	assert.ErrorIs(t, m.RenamePlayer(ctx, "nope", "x"), ErrNotFound)
	assert.ErrorIs(t, m.DeletePlayer(ctx, "nope"), ErrNotFound)
	assert.ErrorIs(t, m.DeletePackHistory(ctx, "nope"), ErrNotFound)

	_, err = m.AppendPlayerHistory(ctx, "nope", 1, "card")
	assert.ErrorIs(t, err, ErrNotFound)

	history, err := m.ListPlayerHistory(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMemory_UpdateGameState_MergesFields(t *testing.T) {
	ctx := context.Background()
	stamp := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(WithClock(func() time.Time { return stamp }))

	count, total := 4, 36
	require.NoError(t, m.UpdateGameState(ctx, GameStateUpdate{PackCount: &count, TotalPacks: &total}))

	status := StatusActive
	require.NoError(t, m.UpdateGameState(ctx, GameStateUpdate{GameStatus: &status}))

	gs, err := m.GetGameState(ctx)
	require.NoError(t, err)
	assert.Equal(t, GameState{PackCount: 4, TotalPacks: 36, GameStatus: StatusActive, LastUpdated: stamp}, gs)
}

func TestMemory_DeletePlayerDropsHistory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	p, err := m.CreatePlayer(ctx, "Ana", 5)
	require.NoError(t, err)
	_, err = m.AppendPlayerHistory(ctx, p.ID, 5, "Charizard")
	require.NoError(t, err)

	require.NoError(t, m.DeletePlayer(ctx, p.ID))

	history, err := m.ListPlayerHistory(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMemory_ClosedRejectsWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err := m.CreatePlayer(ctx, "Ana", 1)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestLoad_GameStateMissingIsEmptySnapshot(t *testing.T) {
	snap, err := Load(context.Background(), NewMemory(), TopicGameState)
	require.NoError(t, err)
	assert.Nil(t, snap.GameState)
	assert.Equal(t, TopicGameState, snap.Topic)
}

func TestLoad_UnknownTopic(t *testing.T) {
	_, err := Load(context.Background(), NewMemory(), Topic("bogus"))
	assert.Error(t, err)
}

func TestTopic_PlayerID(t *testing.T) {
	cases := []struct {
		topic  Topic
		wantID string
		wantOK bool
		kind   string
	}{
		{PlayerHistoryTopic("abc"), "abc", true, "playerHistory"},
		{TopicScores, "", false, "scores"},
		{Topic("playerHistory/"), "", false, "playerHistory/"},
	}
	for _, tc := range cases {
		t.Run(string(tc.topic), func(t *testing.T) {
			id, ok := tc.topic.PlayerID()
			assert.Equal(t, tc.wantID, id)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.kind, tc.topic.Kind())
		})
	}
}

func TestMemory_ListScores_ConcurrentWithUpdates(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	defer m.Close()

	p, err := m.CreatePlayer(ctx, "Ana", 0)
	require.NoError(t, err)
	_, err = m.CreatePlayer(ctx, "Bo", 50)
	require.NoError(t, err)

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-m.Changes():
			case <-stop:
				return
			}
		}
	}()
	defer close(stop)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 200 {
			assert.NoError(t, m.UpdateScore(ctx, p.ID, float64(i)))
			assert.NoError(t, m.RenamePlayer(ctx, p.ID, "Ana"))
		}
	}()
	go func() {
		defer wg.Done()
		for range 200 {
			scores, err := m.ListScores(ctx)
			assert.NoError(t, err)
			if assert.Len(t, scores, 2) {
				assert.GreaterOrEqual(t, scores[0].Score, scores[1].Score)
			}
		}
	}()
	wg.Wait()
}
