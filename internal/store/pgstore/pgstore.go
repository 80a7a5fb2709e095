// Package pgstore keeps the scoreboard documents in Postgres. gorm handles the
// reads and writes. Change notifications travel over LISTEN/NOTIFY so that every
// replica sees every write.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DoyleJ11/packboard/internal/store"
)

// Channel is the NOTIFY channel every write announces its topics on.
const Channel = "packboard_changes"

type Store struct {
	db     *gorm.DB
	dsn    string
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	changes chan store.Topic
}

var _ store.Store = (*Store)(nil)

// Open connects, migrates the schema and starts the change listener.
func Open(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&ScoreModel{},
		&PlayerHistoryModel{},
		&GameStateModel{},
		&PackHistoryModel{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	lctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		db:      db,
		dsn:     dsn,
		log:     log.Named("pgstore"),
		ctx:     lctx,
		cancel:  cancel,
		changes: make(chan store.Topic, 1024),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.listen(lctx)
	}()

	return s, nil
}

func (s *Store) Changes() <-chan store.Topic { return s.changes }

func (s *Store) Close() error {
	s.cancel()
	s.wg.Wait()

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// write runs fn in a transaction and queues a NOTIFY per topic. Postgres only
// delivers the notifications if the transaction commits.
func (s *Store) write(ctx context.Context, topics []store.Topic, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(tx); err != nil {
			return err
		}
		for _, t := range topics {
			if err := tx.Exec("SELECT pg_notify(?, ?)", Channel, string(t)).Error; err != nil {
				return fmt.Errorf("notify %s: %w", t, err)
			}
		}
		return nil
	})
}

func (s *Store) ListScores(ctx context.Context) ([]store.PlayerScore, error) {
	var rows []ScoreModel
	err := s.db.WithContext(ctx).
		Order("score DESC").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}

	out := make([]store.PlayerScore, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *Store) CreatePlayer(ctx context.Context, name string, score float64) (store.PlayerScore, error) {
	row := ScoreModel{
		ID:         uuid.NewString(),
		PlayerName: name,
		Score:      score,
	}

	err := s.write(ctx, []store.Topic{store.TopicScores}, func(tx *gorm.DB) error {
		return tx.Clauses(clause.Returning{}).Create(&row).Error
	})
	if err != nil {
		return store.PlayerScore{}, fmt.Errorf("create player %q: %w", name, err)
	}
	return row.toDomain(), nil
}

func (s *Store) updatePlayer(ctx context.Context, id string, fields map[string]any) error {
	fields["last_updated"] = gorm.Expr("now()")

	return s.write(ctx, []store.Topic{store.TopicScores}, func(tx *gorm.DB) error {
		res := tx.Model(&ScoreModel{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *Store) UpdateScore(ctx context.Context, id string, score float64) error {
	if err := s.updatePlayer(ctx, id, map[string]any{"score": score}); err != nil {
		return fmt.Errorf("update score %s: %w", id, err)
	}
	return nil
}

func (s *Store) RenamePlayer(ctx context.Context, id, name string) error {
	if err := s.updatePlayer(ctx, id, map[string]any{"player_name": name}); err != nil {
		return fmt.Errorf("rename player %s: %w", id, err)
	}
	return nil
}

func (s *Store) DeletePlayer(ctx context.Context, id string) error {
	topics := []store.Topic{store.TopicScores, store.PlayerHistoryTopic(id)}

	err := s.write(ctx, topics, func(tx *gorm.DB) error {
		if err := tx.Where("player_id = ?", id).Delete(&PlayerHistoryModel{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&ScoreModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete player %s: %w", id, err)
	}
	return nil
}

func (s *Store) AppendPlayerHistory(ctx context.Context, playerID string, amount float64, card string) (store.PlayerHistoryEntry, error) {
	row := PlayerHistoryModel{
		ID:       uuid.NewString(),
		PlayerID: playerID,
		Amount:   amount,
		Card:     card,
	}

	err := s.write(ctx, []store.Topic{store.PlayerHistoryTopic(playerID)}, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&ScoreModel{}).Where("id = ?", playerID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return tx.Clauses(clause.Returning{}).Create(&row).Error
	})
	if err != nil {
		return store.PlayerHistoryEntry{}, fmt.Errorf("append history for %s: %w", playerID, err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListPlayerHistory(ctx context.Context, playerID string) ([]store.PlayerHistoryEntry, error) {
	var rows []PlayerHistoryModel
	err := s.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("timestamp ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list history for %s: %w", playerID, err)
	}

	out := make([]store.PlayerHistoryEntry, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *Store) GetGameState(ctx context.Context) (store.GameState, error) {
	var row GameStateModel
	err := s.db.WithContext(ctx).Where("id = ?", store.GameStateID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.GameState{}, store.ErrNotFound
	}
	if err != nil {
		return store.GameState{}, fmt.Errorf("get game state: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) UpdateGameState(ctx context.Context, u store.GameStateUpdate) error {
	row := GameStateModel{ID: store.GameStateID}
	cols := []string{"last_updated"}
	if u.PackCount != nil {
		row.PackCount = *u.PackCount
		cols = append(cols, "pack_count")
	}
	if u.TotalPacks != nil {
		row.TotalPacks = *u.TotalPacks
		cols = append(cols, "total_packs")
	}
	if u.GameStatus != nil {
		row.GameStatus = string(*u.GameStatus)
		cols = append(cols, "game_status")
	}

	err := s.write(ctx, []store.Topic{store.TopicGameState}, func(tx *gorm.DB) error {
		if err := tx.Raw("SELECT now()").Scan(&row.LastUpdated).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(cols),
		}).Create(&row).Error
	})
	if err != nil {
		return fmt.Errorf("update game state: %w", err)
	}
	return nil
}

func (s *Store) AppendPackHistory(ctx context.Context, amount float64) (store.PackHistoryEntry, error) {
	row := PackHistoryModel{ID: uuid.NewString(), Amount: amount}

	err := s.write(ctx, []store.Topic{store.TopicPackHistory}, func(tx *gorm.DB) error {
		return tx.Clauses(clause.Returning{}).Create(&row).Error
	})
	if err != nil {
		return store.PackHistoryEntry{}, fmt.Errorf("append pack history: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListPackHistory(ctx context.Context) ([]store.PackHistoryEntry, error) {
	var rows []PackHistoryModel
	if err := s.db.WithContext(ctx).Order("timestamp ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list pack history: %w", err)
	}

	out := make([]store.PackHistoryEntry, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *Store) DeletePackHistory(ctx context.Context, id string) error {
	err := s.write(ctx, []store.Topic{store.TopicPackHistory}, func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&PackHistoryModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete pack entry %s: %w", id, err)
	}
	return nil
}
