// Package types names the websocket protocol spoken on /ws.
package types

// Client -> Server
//
// Unlock:            password: string
// StartEditScore:    playerId: string
// SetScoreInput:     value: string
// SubmitScore, CancelScore: {}
// StartRename:       playerId: string
// SetNameInput:      value: string
// SubmitName, CancelName: {}
// StartEditPacks:    {}
// SetPackCountInput: value: string
// SubmitPackCount, CancelPackCount: {}
// ToggleExpand:      playerId: string
// SetAddAmount:      playerId: string, value: string
// SetAddCard:        playerId: string, value: string
// SubmitHistory:     playerId: string
// SetNewPlayer:      name: string, score: string, card: string
// SubmitNewPlayer:   {}
// SetPackAddInput:   value: string
// SubmitPackAdd:     {}
// ResetStart, ResetConfirm, ResetCancel, ResetDismiss: {}
// ResetSubmit:       value: string
// SetStatus:         status: "pending" | "active" | "completed"
const (
	Unlock = "Unlock"

	StartEditScore = "StartEditScore"
	SetScoreInput  = "SetScoreInput"
	SubmitScore    = "SubmitScore"
	CancelScore    = "CancelScore"

	StartRename  = "StartRename"
	SetNameInput = "SetNameInput"
	SubmitName   = "SubmitName"
	CancelName   = "CancelName"

	StartEditPacks    = "StartEditPacks"
	SetPackCountInput = "SetPackCountInput"
	SubmitPackCount   = "SubmitPackCount"
	CancelPackCount   = "CancelPackCount"

	ToggleExpand  = "ToggleExpand"
	SetAddAmount  = "SetAddAmount"
	SetAddCard    = "SetAddCard"
	SubmitHistory = "SubmitHistory"

	SetNewPlayer    = "SetNewPlayer"
	SubmitNewPlayer = "SubmitNewPlayer"
	SetPackAddInput = "SetPackAddInput"
	SubmitPackAdd   = "SubmitPackAdd"

	ResetStart   = "ResetStart"
	ResetConfirm = "ResetConfirm"
	ResetSubmit  = "ResetSubmit"
	ResetCancel  = "ResetCancel"
	ResetDismiss = "ResetDismiss"

	SetStatus = "SetStatus"
)

// Server -> Client
//
// View:
//   version: number  // bumps on every push to this socket
//   view: {
//     locked, passwordError,
//     packs: { count, total, label, percent, editing, input, addInput, loaded },
//     empty, podium: [{ rank, medal, playerId, playerName, score }],
//     rows: [{ rank, playerId, playerName, score, editingScore, scoreInput,
//              editingName, nameInput, expanded, addAmount, addCard, canAdd,
//              history: [{ id, amount, card, timestamp }] }],
//     newPlayer: { name, score, card, canSubmit },
//     packHistory: [{ id, amount, timestamp }],
//     reset: { step, input, message },
//     status: { packs, status, lastUpdated },
//   }
//
// Error:
//   error: string
