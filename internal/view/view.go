// Package view turns a mirror and an editor state into the JSON view models
// the browser renders. Everything here is a pure function.
package view

import (
	"strconv"
	"strings"
	"time"

	"github.com/DoyleJ11/packboard/internal/editor"
	"github.com/DoyleJ11/packboard/internal/mirror"
	"github.com/DoyleJ11/packboard/internal/scoreboard"
	"github.com/DoyleJ11/packboard/internal/store"
)

// EmptyMessage is shown instead of the podium before anyone has scored.
const EmptyMessage = "No Hits Yet!"

type Medal string

const (
	MedalGold   Medal = "gold"
	MedalSilver Medal = "silver"
	MedalBronze Medal = "bronze"
)

var podiumMedals = []Medal{MedalGold, MedalSilver, MedalBronze}

type Packs struct {
	Count    int     `json:"count"`
	Total    int     `json:"total"`
	Label    string  `json:"label"`
	Percent  float64 `json:"percent"`
	Editing  bool    `json:"editing"`
	Input    string  `json:"input,omitempty"`
	AddInput string  `json:"addInput"`
	Loaded   bool    `json:"loaded"`
}

type PodiumEntry struct {
	Rank       int    `json:"rank"`
	Medal      Medal  `json:"medal"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Score      string `json:"score"`
}

type HistoryItem struct {
	ID        string `json:"id"`
	Amount    string `json:"amount"`
	Card      string `json:"card,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

type Row struct {
	Rank       int    `json:"rank"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Score      string `json:"score"`

	EditingScore bool   `json:"editingScore"`
	ScoreInput   string `json:"scoreInput,omitempty"`
	EditingName  bool   `json:"editingName"`
	NameInput    string `json:"nameInput,omitempty"`

	Expanded  bool          `json:"expanded"`
	AddAmount string        `json:"addAmount,omitempty"`
	AddCard   string        `json:"addCard,omitempty"`
	CanAdd    bool          `json:"canAdd"`
	History   []HistoryItem `json:"history,omitempty"`
}

type NewPlayerForm struct {
	editor.NewPlayerForm
	CanSubmit bool `json:"canSubmit"`
}

type ScoreboardView struct {
	Locked        bool               `json:"locked"`
	PasswordError string             `json:"passwordError,omitempty"`
	Packs         Packs              `json:"packs"`
	Empty         string             `json:"empty,omitempty"`
	Podium        []PodiumEntry      `json:"podium"`
	Rows          []Row              `json:"rows"`
	NewPlayer     NewPlayerForm      `json:"newPlayer"`
	PackHistory   []HistoryItem      `json:"packHistory"`
	Reset         editor.ResetDialog `json:"reset"`
	Status        StatusView         `json:"status"`
}

// Scoreboard is the main editor view. A locked session sees only the gate.
func Scoreboard(m *mirror.Mirror, s editor.State) ScoreboardView {
	if !s.Unlocked {
		return ScoreboardView{Locked: true, PasswordError: s.PasswordError}
	}

	gs, loaded := m.GameState()
	v := ScoreboardView{
		Packs: Packs{
			Count:    gs.PackCount,
			Total:    gs.TotalPacks,
			Label:    strconv.Itoa(gs.PackCount) + " / " + strconv.Itoa(gs.TotalPacks),
			Percent:  percent(gs.PackCount, gs.TotalPacks),
			Editing:  s.EditingPackCount,
			Input:    s.PackCountInput,
			AddInput: s.PackAddInput,
			Loaded:   loaded,
		},
		Podium:      []PodiumEntry{},
		Rows:        []Row{},
		NewPlayer:   NewPlayerForm{NewPlayerForm: s.NewPlayer, CanSubmit: s.NewPlayer.Complete()},
		PackHistory: packHistory(m.PackHistory()),
		Reset:       s.Reset,
		Status:      Status(m),
	}

	scores := m.Scores()
	if len(scores) == 0 {
		v.Empty = EmptyMessage
	}
	for i, p := range scores {
		if i < len(podiumMedals) {
			v.Podium = append(v.Podium, PodiumEntry{
				Rank:       i + 1,
				Medal:      podiumMedals[i],
				PlayerID:   p.ID,
				PlayerName: p.PlayerName,
				Score:      scoreboard.FormatCents(p.Score),
			})
		}
		v.Rows = append(v.Rows, row(i+1, p, m, s))
	}
	return v
}

func row(rank int, p store.PlayerScore, m *mirror.Mirror, s editor.State) Row {
	r := Row{
		Rank:         rank,
		PlayerID:     p.ID,
		PlayerName:   p.PlayerName,
		Score:        scoreboard.FormatCents(p.Score),
		EditingScore: s.EditingScore == p.ID,
		EditingName:  s.EditingName == p.ID,
		Expanded:     s.ExpandedPlayer == p.ID,
	}
	if r.EditingScore {
		r.ScoreInput = s.ScoreInput
	}
	if r.EditingName {
		r.NameInput = s.NameInput
	}
	if !r.Expanded {
		return r
	}

	r.AddAmount = s.AddAmount[p.ID]
	r.AddCard = s.AddCard[p.ID]
	_, amountErr := scoreboard.ParsePositiveAmount(r.AddAmount)
	_, cardOK := scoreboard.NormalizeName(r.AddCard)
	r.CanAdd = amountErr == nil && cardOK

	for _, h := range m.PlayerHistory(p.ID) {
		r.History = append(r.History, HistoryItem{
			ID:        h.ID,
			Amount:    "+" + scoreboard.FormatCents(h.Amount),
			Card:      h.Card,
			Timestamp: stamp(h.Timestamp),
		})
	}
	return r
}

func packHistory(entries []store.PackHistoryEntry) []HistoryItem {
	out := make([]HistoryItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryItem{
			ID:        e.ID,
			Amount:    "+" + scoreboard.FormatCents(e.Amount),
			Timestamp: stamp(e.Timestamp),
		})
	}
	return out
}

func percent(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return scoreboard.RoundCents(float64(count) * 100 / float64(total))
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

type DetailRow struct {
	Rank        int    `json:"rank"`
	PlayerID    string `json:"playerId"`
	PlayerName  string `json:"playerName"`
	Score       string `json:"score"`
	PacksOpened int    `json:"packsOpened"`
	LastUpdated string `json:"lastUpdated,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type DetailView struct {
	Status StatusView  `json:"status"`
	Rows   []DetailRow `json:"rows"`
}

// Detail is the read-only scores table.
func Detail(m *mirror.Mirror) DetailView {
	v := DetailView{Status: Status(m), Rows: []DetailRow{}}
	for i, p := range m.Scores() {
		v.Rows = append(v.Rows, DetailRow{
			Rank:        i + 1,
			PlayerID:    p.ID,
			PlayerName:  p.PlayerName,
			Score:       scoreboard.FormatCents(p.Score),
			PacksOpened: p.PacksOpened,
			LastUpdated: stamp(p.LastUpdated),
			Notes:       p.Notes,
		})
	}
	return v
}

type StatusView struct {
	Packs       string `json:"packs"`
	Status      string `json:"status"`
	LastUpdated string `json:"lastUpdated,omitempty"`
}

// Status summarizes the game state. Missing fields read as zero and pending.
func Status(m *mirror.Mirror) StatusView {
	gs, _ := m.GameState()
	status := gs.GameStatus
	if status == "" {
		status = store.StatusPending
	}
	return StatusView{
		Packs:       strconv.Itoa(gs.PackCount) + " / " + strconv.Itoa(gs.TotalPacks),
		Status:      titleCase(string(status)),
		LastUpdated: stamp(gs.LastUpdated),
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
