package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type scoreDoc struct {
	PlayerScore
	seq     int64
	history []PlayerHistoryEntry
}

// Memory is an in-process Store. It is what tests and single-node runs use.
type Memory struct {
	mu     sync.RWMutex
	scores map[string]*scoreDoc
	game   *GameState
	packs  []PackHistoryEntry
	seq    int64
	now    func() time.Time

	changes chan Topic
	done    chan struct{}
	closed  bool
}

type MemoryOption func(*Memory)

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		scores:  make(map[string]*scoreDoc),
		now:     time.Now,
		changes: make(chan Topic, 1024),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Changes() <-chan Topic { return m.changes }

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// publish must be called without m.mu held.
func (m *Memory) publish(topics ...Topic) {
	for _, t := range topics {
		select {
		case m.changes <- t:
		case <-m.done:
			return
		}
	}
}

func (m *Memory) ListScores(ctx context.Context) ([]PlayerScore, error) {
	type row struct {
		ps  PlayerScore
		seq int64
	}

	// Copy under the lock so the order and the values come from one instant.
	m.mu.RLock()
	rows := make([]row, 0, len(m.scores))
	for _, d := range m.scores {
		rows = append(rows, row{ps: d.PlayerScore, seq: d.seq})
	}
	m.mu.RUnlock()

	slices.SortFunc(rows, func(a, b row) int {
		if c := cmp.Compare(b.ps.Score, a.ps.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})

	out := make([]PlayerScore, len(rows))
	for i, r := range rows {
		out[i] = r.ps
	}
	return out, nil
}

func (m *Memory) CreatePlayer(ctx context.Context, name string, score float64) (PlayerScore, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return PlayerScore{}, ErrClosed
	}
	m.seq++
	d := &scoreDoc{
		PlayerScore: PlayerScore{
			ID:          uuid.NewString(),
			PlayerName:  name,
			Score:       score,
			LastUpdated: m.now(),
		},
		seq: m.seq,
	}
	m.scores[d.ID] = d
	ps := d.PlayerScore
	m.mu.Unlock()

	m.publish(TopicScores)
	return ps, nil
}

func (m *Memory) updatePlayer(id string, fn func(*scoreDoc)) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	d, ok := m.scores[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	fn(d)
	d.LastUpdated = m.now()
	m.mu.Unlock()

	m.publish(TopicScores)
	return nil
}

func (m *Memory) UpdateScore(ctx context.Context, id string, score float64) error {
	return m.updatePlayer(id, func(d *scoreDoc) { d.Score = score })
}

func (m *Memory) RenamePlayer(ctx context.Context, id, name string) error {
	return m.updatePlayer(id, func(d *scoreDoc) { d.PlayerName = name })
}

func (m *Memory) DeletePlayer(ctx context.Context, id string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if _, ok := m.scores[id]; !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.scores, id)
	m.mu.Unlock()

	m.publish(TopicScores, PlayerHistoryTopic(id))
	return nil
}

func (m *Memory) AppendPlayerHistory(ctx context.Context, playerID string, amount float64, card string) (PlayerHistoryEntry, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return PlayerHistoryEntry{}, ErrClosed
	}
	d, ok := m.scores[playerID]
	if !ok {
		m.mu.Unlock()
		return PlayerHistoryEntry{}, ErrNotFound
	}
	e := PlayerHistoryEntry{
		ID:        uuid.NewString(),
		PlayerID:  playerID,
		Amount:    amount,
		Card:      card,
		Timestamp: m.now(),
	}
	d.history = append(d.history, e)
	m.mu.Unlock()

	m.publish(PlayerHistoryTopic(playerID))
	return e, nil
}

func (m *Memory) ListPlayerHistory(ctx context.Context, playerID string) ([]PlayerHistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.scores[playerID]
	if !ok {
		return []PlayerHistoryEntry{}, nil
	}
	return slices.Clone(d.history), nil
}

func (m *Memory) GetGameState(ctx context.Context) (GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.game == nil {
		return GameState{}, ErrNotFound
	}
	return *m.game, nil
}

func (m *Memory) UpdateGameState(ctx context.Context, u GameStateUpdate) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.game == nil {
		m.game = &GameState{}
	}
	if u.PackCount != nil {
		m.game.PackCount = *u.PackCount
	}
	if u.TotalPacks != nil {
		m.game.TotalPacks = *u.TotalPacks
	}
	if u.GameStatus != nil {
		m.game.GameStatus = *u.GameStatus
	}
	m.game.LastUpdated = m.now()
	m.mu.Unlock()

	m.publish(TopicGameState)
	return nil
}

func (m *Memory) AppendPackHistory(ctx context.Context, amount float64) (PackHistoryEntry, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return PackHistoryEntry{}, ErrClosed
	}
	e := PackHistoryEntry{
		ID:        uuid.NewString(),
		Amount:    amount,
		Timestamp: m.now(),
	}
	m.packs = append(m.packs, e)
	m.mu.Unlock()

	m.publish(TopicPackHistory)
	return e, nil
}

func (m *Memory) ListPackHistory(ctx context.Context) ([]PackHistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.packs), nil
}

func (m *Memory) DeletePackHistory(ctx context.Context, id string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	i := slices.IndexFunc(m.packs, func(e PackHistoryEntry) bool { return e.ID == id })
	if i < 0 {
		m.mu.Unlock()
		return ErrNotFound
	}
	m.packs = slices.Delete(m.packs, i, i+1)
	m.mu.Unlock()

	m.publish(TopicPackHistory)
	return nil
}
