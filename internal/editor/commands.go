package editor

import (
	"github.com/DoyleJ11/packboard/internal/scoreboard"
	"github.com/DoyleJ11/packboard/internal/store"
)

type CommandType string

const (
	CmdUnlock CommandType = "Unlock"

	CmdStartEditScore CommandType = "StartEditScore"
	CmdSetScoreInput  CommandType = "SetScoreInput"
	CmdSubmitScore    CommandType = "SubmitScore"
	CmdCancelScore    CommandType = "CancelScore"

	CmdStartRename  CommandType = "StartRename"
	CmdSetNameInput CommandType = "SetNameInput"
	CmdSubmitName   CommandType = "SubmitName"
	CmdCancelName   CommandType = "CancelName"

	CmdStartEditPacks    CommandType = "StartEditPacks"
	CmdSetPackCountInput CommandType = "SetPackCountInput"
	CmdSubmitPackCount   CommandType = "SubmitPackCount"
	CmdCancelPackCount   CommandType = "CancelPackCount"

	CmdToggleExpand  CommandType = "ToggleExpand"
	CmdSetAddAmount  CommandType = "SetAddAmount"
	CmdSetAddCard    CommandType = "SetAddCard"
	CmdSubmitHistory CommandType = "SubmitHistory"

	CmdSetNewPlayer    CommandType = "SetNewPlayer"
	CmdSubmitNewPlayer CommandType = "SubmitNewPlayer"
	CmdSetPackAddInput CommandType = "SetPackAddInput"
	CmdSubmitPackAdd   CommandType = "SubmitPackAdd"
	CmdSetStatus       CommandType = "SetStatus"

	CmdResetStart   CommandType = "ResetStart"
	CmdResetConfirm CommandType = "ResetConfirm"
	CmdResetSubmit  CommandType = "ResetSubmit"
	CmdResetCancel  CommandType = "ResetCancel"
	CmdResetDismiss CommandType = "ResetDismiss"
)

// Command is one user action. Only the fields its Type uses are read.
type Command struct {
	Type     CommandType
	PlayerID string
	Value    string
	Password string
	Name     string
	Score    string
	Card     string
	Status   string
}

type EffectType string

const (
	EffAddPlayer      EffectType = "AddPlayer"
	EffEditScore      EffectType = "EditScore"
	EffAppendHistory  EffectType = "AppendHistory"
	EffRenamePlayer   EffectType = "RenamePlayer"
	EffEditPackCount  EffectType = "EditPackCount"
	EffAddPacks       EffectType = "AddPacks"
	EffDeleteAll      EffectType = "DeleteAll"
	EffSetDenominator EffectType = "SetDenominator"
	EffSetStatus      EffectType = "SetStatus"

	EffSubscribePlayer   EffectType = "SubscribePlayer"
	EffUnsubscribePlayer EffectType = "UnsubscribePlayer"
)

// Effect is work the session carries out after a state change: a store
// write through the gateway, or a subscription change.
type Effect struct {
	Type      EffectType
	PlayerID  string
	Value     string
	Card      string
	Mirrored  float64
	Total     int
	NewPlayer scoreboard.NewPlayer
	GameState store.GameState
}

// Write reports whether the effect goes to the store.
func (e Effect) Write() bool {
	switch e.Type {
	case EffSubscribePlayer, EffUnsubscribePlayer:
		return false
	}
	return true
}
