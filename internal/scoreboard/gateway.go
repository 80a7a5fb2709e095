package scoreboard

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/packboard/internal/metrics"
	"github.com/DoyleJ11/packboard/internal/store"
)

const (
	OpAddPlayer      = "add_player"
	OpEditScore      = "edit_score"
	OpAppendHistory  = "append_history"
	OpRenamePlayer   = "rename_player"
	OpEditPackCount  = "edit_pack_count"
	OpAddPacks       = "add_packs"
	OpDeleteAll      = "delete_all"
	OpSetDenominator = "set_denominator"
	OpSetStatus      = "set_status"
)

// deleteConcurrency caps how many reset deletes are in flight at once.
const deleteConcurrency = 16

// NewPlayer is the raw add-player form.
type NewPlayer struct {
	Name  string
	Score string
	Card  string
}

// Gateway issues every scoreboard write. Invalid input is dropped silently and
// returns nil. Store failures are logged and returned, never retried or
// rolled back. Callers learn about results only through their subscriptions.
type Gateway struct {
	store   store.Store
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewGateway(s store.Store, log *zap.Logger, m *metrics.Metrics) *Gateway {
	return &Gateway{store: s, log: log.Named("gateway"), metrics: m}
}

func (g *Gateway) reject(op string, reason error, fields ...zap.Field) error {
	g.metrics.Mutation(op, metrics.OutcomeRejected)
	g.log.Debug("mutation rejected", append(fields, zap.String("op", op), zap.Error(reason))...)
	return nil
}

func (g *Gateway) fail(op string, err error, fields ...zap.Field) error {
	g.metrics.Mutation(op, metrics.OutcomeError)
	g.log.Error("mutation failed", append(fields, zap.String("op", op), zap.Error(err))...)
	return fmt.Errorf("%s: %w", op, err)
}

func (g *Gateway) applied(op string) {
	g.metrics.Mutation(op, metrics.OutcomeApplied)
}

// EnsureGameState creates the singleton with total packs when it is missing.
func (g *Gateway) EnsureGameState(ctx context.Context, total int) error {
	_, err := g.store.GetGameState(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("read game state: %w", err)
	}

	zero, status := 0, store.StatusPending
	if err := g.store.UpdateGameState(ctx, store.GameStateUpdate{
		PackCount:  &zero,
		TotalPacks: &total,
		GameStatus: &status,
	}); err != nil {
		return fmt.Errorf("create game state: %w", err)
	}
	g.log.Info("game state created", zap.Int("total_packs", total))
	return nil
}

// AddPlayer registers a player and records the initial score as the first
// pull. The two writes are separate: a failed history write leaves the player.
func (g *Gateway) AddPlayer(ctx context.Context, in NewPlayer) error {
	name, ok := NormalizeName(in.Name)
	if !ok {
		return g.reject(OpAddPlayer, ErrEmptyInput, zap.String("field", "name"))
	}
	card, ok := NormalizeName(in.Card)
	if !ok {
		return g.reject(OpAddPlayer, ErrEmptyInput, zap.String("field", "card"))
	}
	score, err := ParseAmount(in.Score)
	if err != nil {
		return g.reject(OpAddPlayer, err, zap.String("field", "score"))
	}

	p, err := g.store.CreatePlayer(ctx, name, score)
	if err != nil {
		return g.fail(OpAddPlayer, err, zap.String("player_name", name))
	}
	if _, err := g.store.AppendPlayerHistory(ctx, p.ID, score, card); err != nil {
		return g.fail(OpAddPlayer, fmt.Errorf("initial history: %w", err), zap.String("player_id", p.ID))
	}

	g.applied(OpAddPlayer)
	g.log.Info("player added", zap.String("player_id", p.ID), zap.String("player_name", name), zap.Float64("score", score))
	return nil
}

// EditScore overwrites a score. No history entry is written.
func (g *Gateway) EditScore(ctx context.Context, playerID, raw string) error {
	score, err := ParseAmount(raw)
	if err != nil {
		return g.reject(OpEditScore, err, zap.String("player_id", playerID))
	}
	if err := g.store.UpdateScore(ctx, playerID, score); err != nil {
		return g.fail(OpEditScore, err, zap.String("player_id", playerID))
	}
	g.applied(OpEditScore)
	return nil
}

// AppendHistory records a pull and sets the score to mirrored + amount.
// mirrored is the caller's last snapshot of the score, not the stored value,
// so two clients adding at once can lose one increment.
func (g *Gateway) AppendHistory(ctx context.Context, playerID, amountRaw, cardRaw string, mirrored float64) error {
	amount, err := ParsePositiveAmount(amountRaw)
	if err != nil {
		return g.reject(OpAppendHistory, err, zap.String("player_id", playerID))
	}
	card, ok := NormalizeName(cardRaw)
	if !ok {
		return g.reject(OpAppendHistory, ErrEmptyInput, zap.String("player_id", playerID), zap.String("field", "card"))
	}

	if _, err := g.store.AppendPlayerHistory(ctx, playerID, amount, card); err != nil {
		return g.fail(OpAppendHistory, err, zap.String("player_id", playerID))
	}
	next := RoundCents(mirrored + amount)
	if err := g.store.UpdateScore(ctx, playerID, next); err != nil {
		return g.fail(OpAppendHistory, fmt.Errorf("score after history: %w", err), zap.String("player_id", playerID))
	}

	g.applied(OpAppendHistory)
	return nil
}

func (g *Gateway) RenamePlayer(ctx context.Context, playerID, raw string) error {
	name, ok := NormalizeName(raw)
	if !ok {
		return g.reject(OpRenamePlayer, ErrEmptyInput, zap.String("player_id", playerID))
	}
	if err := g.store.RenamePlayer(ctx, playerID, name); err != nil {
		return g.fail(OpRenamePlayer, err, zap.String("player_id", playerID))
	}
	g.applied(OpRenamePlayer)
	return nil
}

// EditPackCount sets the counter directly, clamped to [0, total].
func (g *Gateway) EditPackCount(ctx context.Context, raw string, current store.GameState) error {
	n, err := ParsePackCount(raw, current.TotalPacks)
	if err != nil {
		return g.reject(OpEditPackCount, err)
	}
	if err := g.store.UpdateGameState(ctx, store.GameStateUpdate{PackCount: &n}); err != nil {
		return g.fail(OpEditPackCount, err, zap.Int("pack_count", n))
	}
	g.applied(OpEditPackCount)
	return nil
}

// AddPacks records the applied amount in pack history, then moves the counter.
func (g *Gateway) AddPacks(ctx context.Context, raw string, current store.GameState) error {
	amount, err := ParsePackAmount(raw)
	if err != nil {
		return g.reject(OpAddPacks, err)
	}
	applied, next := ApplyPackAdd(current, amount)
	if applied != amount {
		g.log.Debug("pack amount truncated at total",
			zap.Int("requested", amount),
			zap.Int("applied", applied),
			zap.Int("total_packs", current.TotalPacks))
	}

	if _, err := g.store.AppendPackHistory(ctx, float64(applied)); err != nil {
		return g.fail(OpAddPacks, err, zap.Int("amount", applied))
	}
	if err := g.store.UpdateGameState(ctx, store.GameStateUpdate{PackCount: &next}); err != nil {
		return g.fail(OpAddPacks, fmt.Errorf("counter after history: %w", err), zap.Int("pack_count", next))
	}

	g.applied(OpAddPacks)
	return nil
}

// DeleteAll removes every player, then every pack history entry. The deletes
// inside each batch are independent and awaited together. A failure leaves
// whatever already went through.
func (g *Gateway) DeleteAll(ctx context.Context) error {
	scores, err := g.store.ListScores(ctx)
	if err != nil {
		return g.fail(OpDeleteAll, fmt.Errorf("list scores: %w", err))
	}

	var players errgroup.Group
	players.SetLimit(deleteConcurrency)
	for _, p := range scores {
		players.Go(func() error {
			if err := g.store.DeletePlayer(ctx, p.ID); err != nil {
				return fmt.Errorf("delete player %s: %w", p.ID, err)
			}
			return nil
		})
	}
	if err := players.Wait(); err != nil {
		return g.fail(OpDeleteAll, err, zap.String("step", "players"))
	}

	packs, err := g.store.ListPackHistory(ctx)
	if err != nil {
		return g.fail(OpDeleteAll, fmt.Errorf("list pack history: %w", err))
	}

	var entries errgroup.Group
	entries.SetLimit(deleteConcurrency)
	for _, e := range packs {
		entries.Go(func() error {
			if err := g.store.DeletePackHistory(ctx, e.ID); err != nil {
				return fmt.Errorf("delete pack entry %s: %w", e.ID, err)
			}
			return nil
		})
	}
	if err := entries.Wait(); err != nil {
		return g.fail(OpDeleteAll, err, zap.String("step", "pack_history"))
	}

	g.applied(OpDeleteAll)
	g.log.Info("scoreboard cleared", zap.Int("players", len(scores)), zap.Int("pack_entries", len(packs)))
	return nil
}

// SetDenominator starts a fresh count out of total.
func (g *Gateway) SetDenominator(ctx context.Context, total int) error {
	if total <= 0 {
		return g.reject(OpSetDenominator, ErrNotPositive, zap.Int("total_packs", total))
	}
	zero := 0
	if err := g.store.UpdateGameState(ctx, store.GameStateUpdate{PackCount: &zero, TotalPacks: &total}); err != nil {
		return g.fail(OpSetDenominator, err, zap.Int("total_packs", total))
	}
	g.applied(OpSetDenominator)
	g.log.Info("denominator set", zap.Int("total_packs", total))
	return nil
}

func (g *Gateway) SetStatus(ctx context.Context, raw string) error {
	status, err := ParseStatus(raw)
	if err != nil {
		return g.reject(OpSetStatus, err)
	}
	if err := g.store.UpdateGameState(ctx, store.GameStateUpdate{GameStatus: &status}); err != nil {
		return g.fail(OpSetStatus, err, zap.String("status", string(status)))
	}
	g.applied(OpSetStatus)
	return nil
}
