package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound means the addressed document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrNoRowsAffected means a write matched nothing.
	ErrNoRowsAffected = errors.New("no rows affected")
	// ErrClosed is returned by writes after Close.
	ErrClosed = errors.New("store closed")
)

// GameStateID is the fixed id of the game state singleton.
const GameStateID = "current"

type GameStatus string

const (
	StatusPending   GameStatus = "pending"
	StatusActive    GameStatus = "active"
	StatusCompleted GameStatus = "completed"
)

func (s GameStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusCompleted:
		return true
	}
	return false
}

// PlayerScore is a document of the scores collection.
type PlayerScore struct {
	ID          string    `json:"id"`
	PlayerName  string    `json:"playerName"`
	Score       float64   `json:"score"`
	PacksOpened int       `json:"packsOpened,omitempty"`
	LastUpdated time.Time `json:"lastUpdated,omitzero"`
	Notes       string    `json:"notes,omitempty"`
}

// PlayerHistoryEntry lives under scores/{id}/playerHistory. Entries are never updated.
type PlayerHistoryEntry struct {
	ID        string    `json:"id"`
	PlayerID  string    `json:"-"`
	Amount    float64   `json:"amount"`
	Card      string    `json:"card"`
	Timestamp time.Time `json:"timestamp"`
}

// GameState is the gameState/current singleton.
type GameState struct {
	PackCount   int        `json:"packCount"`
	TotalPacks  int        `json:"totalPacks"`
	GameStatus  GameStatus `json:"gameStatus,omitempty"`
	LastUpdated time.Time  `json:"lastUpdated,omitzero"`
}

// GameStateUpdate is a merge write: nil fields are left untouched.
type GameStateUpdate struct {
	PackCount  *int
	TotalPacks *int
	GameStatus *GameStatus
}

func (u GameStateUpdate) Empty() bool {
	return u.PackCount == nil && u.TotalPacks == nil && u.GameStatus == nil
}

// PackHistoryEntry lives under gameState/current/packHistory.
type PackHistoryEntry struct {
	ID        string    `json:"id"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// Topic names one live query: a collection, the singleton, or one player's history.
type Topic string

const (
	TopicScores      Topic = "scores"
	TopicGameState   Topic = "gameState"
	TopicPackHistory Topic = "packHistory"

	// TopicResync is never stored or subscribed. A change source emits it when
	// it may have missed notifications, and every open feed reloads.
	TopicResync Topic = "*"

	playerHistoryPrefix = "playerHistory/"
)

// BaseTopics are the subscriptions every editor view keeps open.
var BaseTopics = []Topic{TopicGameState, TopicScores, TopicPackHistory}

func PlayerHistoryTopic(playerID string) Topic {
	return Topic(playerHistoryPrefix + playerID)
}

// PlayerID reports the player a playerHistory topic belongs to.
func (t Topic) PlayerID() (string, bool) {
	id, ok := strings.CutPrefix(string(t), playerHistoryPrefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Kind collapses per-player topics into one label, for metrics.
func (t Topic) Kind() string {
	if _, ok := t.PlayerID(); ok {
		return "playerHistory"
	}
	return string(t)
}

func (t Topic) Valid() bool {
	switch t {
	case TopicScores, TopicGameState, TopicPackHistory:
		return true
	}
	_, ok := t.PlayerID()
	return ok
}

// Reader is the query half of a Store.
type Reader interface {
	ListScores(ctx context.Context) ([]PlayerScore, error)
	ListPlayerHistory(ctx context.Context, playerID string) ([]PlayerHistoryEntry, error)
	GetGameState(ctx context.Context) (GameState, error)
	ListPackHistory(ctx context.Context) ([]PackHistoryEntry, error)
}

// Store is the document store behind the scoreboard. Every successful write
// publishes the topics it touched on Changes.
type Store interface {
	Reader

	CreatePlayer(ctx context.Context, name string, score float64) (PlayerScore, error)
	UpdateScore(ctx context.Context, id string, score float64) error
	RenamePlayer(ctx context.Context, id, name string) error
	DeletePlayer(ctx context.Context, id string) error
	AppendPlayerHistory(ctx context.Context, playerID string, amount float64, card string) (PlayerHistoryEntry, error)

	UpdateGameState(ctx context.Context, u GameStateUpdate) error
	AppendPackHistory(ctx context.Context, amount float64) (PackHistoryEntry, error)
	DeletePackHistory(ctx context.Context, id string) error

	Changes() <-chan Topic
	Close() error
}
