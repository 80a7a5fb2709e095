package editor

import (
	"maps"

	"github.com/DoyleJ11/packboard/internal/scoreboard"
)

type ResetStep string

const (
	ResetIdle       ResetStep = "idle"
	ResetConfirming ResetStep = "confirming"
	ResetCollecting ResetStep = "collectingDenominator"
	ResetCommitted  ResetStep = "committed"
	ResetAborted    ResetStep = "aborted"
)

// InvalidDenominatorMessage is shown while the reset dialog holds a bad total.
const InvalidDenominatorMessage = "Please enter a valid positive number."

// IncorrectPasswordMessage is shown on the lock screen after a wrong password.
const IncorrectPasswordMessage = "Incorrect password"

type ResetDialog struct {
	Step    ResetStep `json:"step"`
	Input   string    `json:"input,omitempty"`
	Message string    `json:"message,omitempty"`
}

type NewPlayerForm struct {
	Name  string `json:"name"`
	Score string `json:"score"`
	Card  string `json:"card"`
}

func (f NewPlayerForm) Complete() bool {
	_, nameOK := scoreboard.NormalizeName(f.Name)
	_, cardOK := scoreboard.NormalizeName(f.Card)
	_, err := scoreboard.ParseAmount(f.Score)
	return nameOK && cardOK && err == nil
}

// State is everything one editor session knows that is not in the store:
// which field is being edited, what has been typed, and the dialogs.
type State struct {
	Unlocked      bool
	PasswordError string

	EditingScore string // player id, "" when not editing
	ScoreInput   string

	EditingName string
	NameInput   string

	EditingPackCount bool
	PackCountInput   string

	ExpandedPlayer string
	AddAmount      map[string]string
	AddCard        map[string]string

	NewPlayer    NewPlayerForm
	PackAddInput string

	Reset ResetDialog
}

func NewState(unlocked bool) State {
	return State{
		Unlocked:  unlocked,
		AddAmount: map[string]string{},
		AddCard:   map[string]string{},
		Reset:     ResetDialog{Step: ResetIdle},
	}
}

// clone copies the maps so a reduced state never aliases its input.
func (s State) clone() State {
	s.AddAmount = maps.Clone(s.AddAmount)
	s.AddCard = maps.Clone(s.AddCard)
	if s.AddAmount == nil {
		s.AddAmount = map[string]string{}
	}
	if s.AddCard == nil {
		s.AddCard = map[string]string{}
	}
	return s
}
