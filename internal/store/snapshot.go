package store

import (
	"context"
	"errors"
	"fmt"
)

// Snapshot is the full result set of one topic at one point in time.
// Only the field matching Topic is populated.
type Snapshot struct {
	Topic         Topic
	GameState     *GameState // nil while the singleton does not exist
	Scores        []PlayerScore
	PackHistory   []PackHistoryEntry
	PlayerHistory []PlayerHistoryEntry
}

// Load runs the query behind topic.
func Load(ctx context.Context, r Reader, topic Topic) (Snapshot, error) {
	snap := Snapshot{Topic: topic}

	switch topic {
	case TopicScores:
		scores, err := r.ListScores(ctx)
		if err != nil {
			return snap, fmt.Errorf("load scores: %w", err)
		}
		snap.Scores = scores

	case TopicGameState:
		gs, err := r.GetGameState(ctx)
		if errors.Is(err, ErrNotFound) {
			return snap, nil
		}
		if err != nil {
			return snap, fmt.Errorf("load game state: %w", err)
		}
		snap.GameState = &gs

	case TopicPackHistory:
		entries, err := r.ListPackHistory(ctx)
		if err != nil {
			return snap, fmt.Errorf("load pack history: %w", err)
		}
		snap.PackHistory = entries

	default:
		playerID, ok := topic.PlayerID()
		if !ok {
			return snap, fmt.Errorf("unknown topic %q", topic)
		}
		entries, err := r.ListPlayerHistory(ctx, playerID)
		if err != nil {
			return snap, fmt.Errorf("load history for %s: %w", playerID, err)
		}
		snap.PlayerHistory = entries
	}

	return snap, nil
}
