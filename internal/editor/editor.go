package editor

import (
	"errors"
	"strconv"

	"github.com/DoyleJ11/packboard/internal/mirror"
	"github.com/DoyleJ11/packboard/internal/scoreboard"
)

var ErrLocked = errors.New("editor is locked")
var ErrUnsupportedCommand = errors.New("unsupported command")
var ErrResetStep = errors.New("reset dialog is not at that step")

// Env is what the reducer may read besides its own state.
type Env struct {
	Mirror *mirror.Mirror
	Gate   *Gate
}

// Apply reduces one command. It never touches the store: writes come back as
// effects, and their results arrive later as snapshots. Edit flags are cleared
// here, before any write has happened.
func Apply(s State, cmd Command, env Env) (State, []Effect, error) {
	if cmd.Type == CmdUnlock {
		return unlock(s, cmd.Password, env.Gate), nil, nil
	}
	if !s.Unlocked {
		return s, nil, ErrLocked
	}

	m := env.Mirror
	if m == nil {
		m = mirror.New()
	}
	next := s.clone()

	switch cmd.Type {
	case CmdStartEditScore:
		p, ok := m.Player(cmd.PlayerID)
		if !ok {
			return s, nil, nil
		}
		next.EditingScore = p.ID
		next.ScoreInput = scoreboard.FormatCents(p.Score)
		return next, nil, nil

	case CmdSetScoreInput:
		if next.EditingScore == "" {
			return s, nil, nil
		}
		next.ScoreInput = scoreboard.TrimDecimals(cmd.Value)
		return next, nil, nil

	case CmdSubmitScore:
		id, raw := next.EditingScore, next.ScoreInput
		next.EditingScore, next.ScoreInput = "", ""
		if id == "" {
			return next, nil, nil
		}
		if _, err := scoreboard.ParseAmount(raw); err != nil {
			return next, nil, nil
		}
		return next, []Effect{{Type: EffEditScore, PlayerID: id, Value: raw}}, nil

	case CmdCancelScore:
		next.EditingScore, next.ScoreInput = "", ""
		return next, nil, nil

	case CmdStartRename:
		p, ok := m.Player(cmd.PlayerID)
		if !ok {
			return s, nil, nil
		}
		next.EditingName = p.ID
		next.NameInput = p.PlayerName
		return next, nil, nil

	case CmdSetNameInput:
		if next.EditingName == "" {
			return s, nil, nil
		}
		next.NameInput = cmd.Value
		return next, nil, nil

	case CmdSubmitName:
		id, raw := next.EditingName, next.NameInput
		next.EditingName, next.NameInput = "", ""
		if _, ok := scoreboard.NormalizeName(raw); !ok || id == "" {
			return next, nil, nil
		}
		return next, []Effect{{Type: EffRenamePlayer, PlayerID: id, Value: raw}}, nil

	case CmdCancelName:
		next.EditingName, next.NameInput = "", ""
		return next, nil, nil

	case CmdStartEditPacks:
		gs, _ := m.GameState()
		next.EditingPackCount = true
		next.PackCountInput = strconv.Itoa(gs.PackCount)
		return next, nil, nil

	case CmdSetPackCountInput:
		if !next.EditingPackCount {
			return s, nil, nil
		}
		gs, _ := m.GameState()
		next.PackCountInput = scoreboard.ClampPackInput(cmd.Value, gs.TotalPacks)
		return next, nil, nil

	case CmdSubmitPackCount:
		editing, raw := next.EditingPackCount, next.PackCountInput
		next.EditingPackCount, next.PackCountInput = false, ""
		gs, ok := m.GameState()
		if !editing || !ok {
			return next, nil, nil
		}
		if _, err := scoreboard.ParsePackCount(raw, gs.TotalPacks); err != nil {
			return next, nil, nil
		}
		return next, []Effect{{Type: EffEditPackCount, Value: raw, GameState: gs}}, nil

	case CmdCancelPackCount:
		next.EditingPackCount, next.PackCountInput = false, ""
		return next, nil, nil

	case CmdToggleExpand:
		return toggleExpand(next, cmd.PlayerID)

	case CmdSetAddAmount:
		if cmd.PlayerID == "" {
			return s, nil, nil
		}
		next.AddAmount[cmd.PlayerID] = scoreboard.TrimDecimals(cmd.Value)
		return next, nil, nil

	case CmdSetAddCard:
		if cmd.PlayerID == "" {
			return s, nil, nil
		}
		next.AddCard[cmd.PlayerID] = cmd.Value
		return next, nil, nil

	case CmdSubmitHistory:
		id := cmd.PlayerID
		amount, card := next.AddAmount[id], next.AddCard[id]
		if _, err := scoreboard.ParsePositiveAmount(amount); err != nil {
			return s, nil, nil
		}
		if _, ok := scoreboard.NormalizeName(card); !ok {
			return s, nil, nil
		}
		delete(next.AddAmount, id)
		delete(next.AddCard, id)
		return next, []Effect{{
			Type:     EffAppendHistory,
			PlayerID: id,
			Value:    amount,
			Card:     card,
			Mirrored: m.ScoreOf(id),
		}}, nil

	case CmdSetNewPlayer:
		next.NewPlayer = NewPlayerForm{
			Name:  cmd.Name,
			Score: scoreboard.TrimDecimals(cmd.Score),
			Card:  cmd.Card,
		}
		return next, nil, nil

	case CmdSubmitNewPlayer:
		form := next.NewPlayer
		if !form.Complete() {
			return s, nil, nil
		}
		next.NewPlayer = NewPlayerForm{}
		return next, []Effect{{
			Type:      EffAddPlayer,
			NewPlayer: scoreboard.NewPlayer{Name: form.Name, Score: form.Score, Card: form.Card},
		}}, nil

	case CmdSetPackAddInput:
		next.PackAddInput = scoreboard.TrimDecimals(cmd.Value)
		return next, nil, nil

	case CmdSubmitPackAdd:
		gs, ok := m.GameState()
		if !ok {
			return s, nil, nil
		}
		if _, err := scoreboard.ParsePackAmount(next.PackAddInput); err != nil {
			return s, nil, nil
		}
		raw := next.PackAddInput
		next.PackAddInput = ""
		return next, []Effect{{Type: EffAddPacks, Value: raw, GameState: gs}}, nil

	case CmdSetStatus:
		if _, err := scoreboard.ParseStatus(cmd.Status); err != nil {
			return s, nil, nil
		}
		return next, []Effect{{Type: EffSetStatus, Value: cmd.Status}}, nil

	case CmdResetStart, CmdResetConfirm, CmdResetSubmit, CmdResetCancel, CmdResetDismiss:
		return applyReset(next, cmd)

	default:
		return s, nil, ErrUnsupportedCommand
	}
}

func unlock(s State, password string, gate *Gate) State {
	if s.Unlocked {
		return s
	}
	if gate.Check(password) {
		s.Unlocked = true
		s.PasswordError = ""
		return s
	}
	s.PasswordError = IncorrectPasswordMessage
	return s
}

// toggleExpand keeps at most one row open. Switching rows closes the old
// subscription before the new one opens.
func toggleExpand(s State, playerID string) (State, []Effect, error) {
	if playerID == "" {
		return s, nil, nil
	}
	prev := s.ExpandedPlayer
	if prev == playerID {
		s.ExpandedPlayer = ""
		return s, []Effect{{Type: EffUnsubscribePlayer, PlayerID: prev}}, nil
	}

	var effects []Effect
	if prev != "" {
		effects = append(effects, Effect{Type: EffUnsubscribePlayer, PlayerID: prev})
	}
	s.ExpandedPlayer = playerID
	effects = append(effects, Effect{Type: EffSubscribePlayer, PlayerID: playerID})
	return s, effects, nil
}
