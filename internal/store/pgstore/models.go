package pgstore

import (
	"time"

	"github.com/DoyleJ11/packboard/internal/store"
)

// ScoreModel backs scores/{id}.
type ScoreModel struct {
	ID          string    `gorm:"primaryKey;type:uuid"`
	PlayerName  string    `gorm:"not null"`
	Score       float64   `gorm:"not null;index"`
	PacksOpened int       `gorm:"not null;default:0"`
	Notes       string    `gorm:"not null;default:''"`
	LastUpdated time.Time `gorm:"not null;default:now()"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

func (ScoreModel) TableName() string { return "scores" }

func (m ScoreModel) toDomain() store.PlayerScore {
	return store.PlayerScore{
		ID:          m.ID,
		PlayerName:  m.PlayerName,
		Score:       m.Score,
		PacksOpened: m.PacksOpened,
		LastUpdated: m.LastUpdated,
		Notes:       m.Notes,
	}
}

// PlayerHistoryModel backs scores/{id}/playerHistory/{entry}.
type PlayerHistoryModel struct {
	ID        string    `gorm:"primaryKey;type:uuid"`
	PlayerID  string    `gorm:"type:uuid;not null;index"`
	Amount    float64   `gorm:"not null"`
	Card      string    `gorm:"not null"`
	Timestamp time.Time `gorm:"not null;default:now()"`
}

func (PlayerHistoryModel) TableName() string { return "player_history" }

func (m PlayerHistoryModel) toDomain() store.PlayerHistoryEntry {
	return store.PlayerHistoryEntry{
		ID:        m.ID,
		PlayerID:  m.PlayerID,
		Amount:    m.Amount,
		Card:      m.Card,
		Timestamp: m.Timestamp,
	}
}

// GameStateModel backs gameState/current. There is only ever one row.
type GameStateModel struct {
	ID          string `gorm:"primaryKey"`
	PackCount   int    `gorm:"not null;default:0"`
	TotalPacks  int    `gorm:"not null;default:0"`
	GameStatus  string `gorm:"not null;default:''"`
	LastUpdated time.Time
}

func (GameStateModel) TableName() string { return "game_state" }

func (m GameStateModel) toDomain() store.GameState {
	return store.GameState{
		PackCount:   m.PackCount,
		TotalPacks:  m.TotalPacks,
		GameStatus:  store.GameStatus(m.GameStatus),
		LastUpdated: m.LastUpdated,
	}
}

// PackHistoryModel backs gameState/current/packHistory/{entry}.
type PackHistoryModel struct {
	ID        string    `gorm:"primaryKey;type:uuid"`
	Amount    float64   `gorm:"not null"`
	Timestamp time.Time `gorm:"not null;default:now()"`
}

func (PackHistoryModel) TableName() string { return "pack_history" }

func (m PackHistoryModel) toDomain() store.PackHistoryEntry {
	return store.PackHistoryEntry{
		ID:        m.ID,
		Amount:    m.Amount,
		Timestamp: m.Timestamp,
	}
}
