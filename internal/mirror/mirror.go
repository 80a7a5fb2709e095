package mirror

import (
	"slices"

	"github.com/DoyleJ11/packboard/internal/store"
)

// Mirror is one client's copy of the latest snapshot of every topic it
// subscribes to. It is only ever changed by Apply. Not safe for concurrent use;
// the owning session serializes access.
type Mirror struct {
	gameState     *store.GameState
	scores        []store.PlayerScore
	packHistory   []store.PackHistoryEntry
	playerHistory map[string][]store.PlayerHistoryEntry
	versions      map[store.Topic]int
}

func New() *Mirror {
	return &Mirror{
		playerHistory: make(map[string][]store.PlayerHistoryEntry),
		versions:      make(map[store.Topic]int),
	}
}

// Apply replaces the slice of state that snap covers. Snapshots older than the
// last one applied for the same topic are ignored. It reports whether anything
// changed.
func (m *Mirror) Apply(version int, snap store.Snapshot) bool {
	if last, ok := m.versions[snap.Topic]; ok && version <= last {
		return false
	}
	m.versions[snap.Topic] = version

	switch snap.Topic {
	case store.TopicGameState:
		m.gameState = snap.GameState
	case store.TopicScores:
		m.scores = snap.Scores
	case store.TopicPackHistory:
		m.packHistory = snap.PackHistory
	default:
		id, ok := snap.Topic.PlayerID()
		if !ok {
			return false
		}
		m.playerHistory[id] = snap.PlayerHistory
	}
	return true
}

// Forget clears the version bookkeeping for topic so the next snapshot from a
// fresh subscription, which restarts at version 1, is accepted.
func (m *Mirror) Forget(topic store.Topic) {
	delete(m.versions, topic)
}

// DropPlayerHistory discards a player's history when its row collapses.
func (m *Mirror) DropPlayerHistory(playerID string) {
	delete(m.playerHistory, playerID)
	m.Forget(store.PlayerHistoryTopic(playerID))
}

// GameState returns the mirrored singleton. ok is false until it exists.
func (m *Mirror) GameState() (gs store.GameState, ok bool) {
	if m.gameState == nil {
		return store.GameState{}, false
	}
	return *m.gameState, true
}

func (m *Mirror) Scores() []store.PlayerScore { return m.scores }

func (m *Mirror) PackHistory() []store.PackHistoryEntry { return m.packHistory }

// PlayerHistory returns the mirrored history for a player, or nil when none
// has arrived.
func (m *Mirror) PlayerHistory(playerID string) []store.PlayerHistoryEntry {
	return m.playerHistory[playerID]
}

func (m *Mirror) Player(id string) (store.PlayerScore, bool) {
	i := slices.IndexFunc(m.scores, func(p store.PlayerScore) bool { return p.ID == id })
	if i < 0 {
		return store.PlayerScore{}, false
	}
	return m.scores[i], true
}

// ScoreOf is the last mirrored score for a player, 0 when the player is unknown.
func (m *Mirror) ScoreOf(id string) float64 {
	p, _ := m.Player(id)
	return p.Score
}
