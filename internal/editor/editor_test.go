package editor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/packboard/internal/mirror"
	"github.com/DoyleJ11/packboard/internal/store"
)

func newEnv() Env {
	m := mirror.New()
	m.Apply(1, store.Snapshot{Topic: store.TopicScores, Scores: []store.PlayerScore{
		{ID: "a", PlayerName: "Ana", Score: 5},
		{ID: "b", PlayerName: "Bo", Score: 2.5},
	}})
	m.Apply(1, store.Snapshot{Topic: store.TopicGameState, GameState: &store.GameState{PackCount: 30, TotalPacks: 36}})
	return Env{Mirror: m}
}

func mustApply(t *testing.T, s State, cmd Command, env Env) (State, []Effect) {
	t.Helper()
	next, effects, err := Apply(s, cmd, env)
	if err != nil {
		t.Fatalf("Apply(%s): unexpected err: %v", cmd.Type, err)
	}
	return next, effects
}

func TestApply_LockedRejectsEverythingButUnlock(t *testing.T) {
	s := NewState(false)
	_, _, err := Apply(s, Command{Type: CmdStartEditScore, PlayerID: "a"}, newEnv())
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("want ErrLocked, got %v", err)
	}
}

func TestApply_UnsupportedCommand(t *testing.T) {
	_, _, err := Apply(NewState(true), Command{Type: "Dance"}, newEnv())
	if !errors.Is(err, ErrUnsupportedCommand) {
		t.Fatalf("want ErrUnsupportedCommand, got %v", err)
	}
}

func TestApply_EditScore(t *testing.T) {
	cases := []struct {
		name        string
		input       string
		wantEffects int
	}{
		{"numeric", "12.5", 1},
		{"decimals trimmed", "12.555", 1},
		{"non numeric cancels", "abc", 0},
		{"empty cancels", "", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newEnv()
			s, _ := mustApply(t, NewState(true), Command{Type: CmdStartEditScore, PlayerID: "a"}, env)
			require.Equal(t, "a", s.EditingScore)
			require.Equal(t, "5.00", s.ScoreInput)

			s, _ = mustApply(t, s, Command{Type: CmdSetScoreInput, Value: tc.input}, env)
			s, effects := mustApply(t, s, Command{Type: CmdSubmitScore}, env)

			assert.Empty(t, s.EditingScore, "edit mode always clears on submit")
			require.Len(t, effects, tc.wantEffects)
			if tc.wantEffects == 1 {
				assert.Equal(t, EffEditScore, effects[0].Type)
				assert.Equal(t, "a", effects[0].PlayerID)
			}
		})
	}
}

func TestApply_StartEditUnknownPlayerIsNoop(t *testing.T) {
	s, effects := mustApply(t, NewState(true), Command{Type: CmdStartEditScore, PlayerID: "ghost"}, newEnv())
	assert.Empty(t, s.EditingScore)
	assert.Empty(t, effects)
}

func TestApply_RenameBlankIsNoop(t *testing.T) {
	env := newEnv()
	for _, blank := range []string{"", "  ", "\t"} {
		s, _ := mustApply(t, NewState(true), Command{Type: CmdStartRename, PlayerID: "b"}, env)
		require.Equal(t, "Bo", s.NameInput)
		s, _ = mustApply(t, s, Command{Type: CmdSetNameInput, Value: blank}, env)
		s, effects := mustApply(t, s, Command{Type: CmdSubmitName}, env)
		assert.Empty(t, effects)
		assert.Empty(t, s.EditingName)
	}

	s, _ := mustApply(t, NewState(true), Command{Type: CmdStartRename, PlayerID: "b"}, env)
	s, _ = mustApply(t, s, Command{Type: CmdSetNameInput, Value: "Bob"}, env)
	_, effects := mustApply(t, s, Command{Type: CmdSubmitName}, env)
	require.Len(t, effects, 1)
	assert.Equal(t, Effect{Type: EffRenamePlayer, PlayerID: "b", Value: "Bob"}, effects[0])
}

func TestApply_PackCountInputIsClamped(t *testing.T) {
	env := newEnv()
	s, _ := mustApply(t, NewState(true), Command{Type: CmdStartEditPacks}, env)
	require.Equal(t, "30", s.PackCountInput)

	s, _ = mustApply(t, s, Command{Type: CmdSetPackCountInput, Value: "99"}, env)
	assert.Equal(t, "36", s.PackCountInput)

	s, _ = mustApply(t, s, Command{Type: CmdSetPackCountInput, Value: "1x2"}, env)
	assert.Equal(t, "12", s.PackCountInput)

	s, effects := mustApply(t, s, Command{Type: CmdSubmitPackCount}, env)
	assert.False(t, s.EditingPackCount)
	require.Len(t, effects, 1)
	assert.Equal(t, EffEditPackCount, effects[0].Type)
	assert.Equal(t, 36, effects[0].GameState.TotalPacks)
}

func TestApply_ToggleExpandKeepsOneSubscription(t *testing.T) {
	env := newEnv()
	s, effects := mustApply(t, NewState(true), Command{Type: CmdToggleExpand, PlayerID: "a"}, env)
	assert.Equal(t, "a", s.ExpandedPlayer)
	assert.Equal(t, []Effect{{Type: EffSubscribePlayer, PlayerID: "a"}}, effects)

	s, effects = mustApply(t, s, Command{Type: CmdToggleExpand, PlayerID: "b"}, env)
	assert.Equal(t, "b", s.ExpandedPlayer)
	assert.Equal(t, []Effect{
		{Type: EffUnsubscribePlayer, PlayerID: "a"},
		{Type: EffSubscribePlayer, PlayerID: "b"},
	}, effects, "old row closes before the new one opens")

	s, effects = mustApply(t, s, Command{Type: CmdToggleExpand, PlayerID: "b"}, env)
	assert.Empty(t, s.ExpandedPlayer)
	assert.Equal(t, []Effect{{Type: EffUnsubscribePlayer, PlayerID: "b"}}, effects)
}

func TestApply_SubmitHistoryUsesMirroredScore(t *testing.T) {
	env := newEnv()
	s := NewState(true)
	s, _ = mustApply(t, s, Command{Type: CmdSetAddAmount, PlayerID: "b", Value: "1.255"}, env)
	s, _ = mustApply(t, s, Command{Type: CmdSetAddCard, PlayerID: "b", Value: "Pikachu"}, env)
	require.Equal(t, "1.25", s.AddAmount["b"])

	next, effects := mustApply(t, s, Command{Type: CmdSubmitHistory, PlayerID: "b"}, env)
	require.Len(t, effects, 1)
	assert.Equal(t, Effect{Type: EffAppendHistory, PlayerID: "b", Value: "1.25", Card: "Pikachu", Mirrored: 2.5}, effects[0])
	assert.Empty(t, next.AddAmount["b"])
	assert.Equal(t, "1.25", s.AddAmount["b"], "the input state is not mutated")
}

func TestApply_SubmitHistoryMissingFieldKeepsInput(t *testing.T) {
	env := newEnv()
	s, _ := mustApply(t, NewState(true), Command{Type: CmdSetAddAmount, PlayerID: "a", Value: "3"}, env)
	s, effects := mustApply(t, s, Command{Type: CmdSubmitHistory, PlayerID: "a"}, env)
	assert.Empty(t, effects)
	assert.Equal(t, "3", s.AddAmount["a"])
}

func TestApply_NewPlayer(t *testing.T) {
	env := newEnv()
	s, _ := mustApply(t, NewState(true), Command{Type: CmdSetNewPlayer, Name: "Ana", Score: "5.00", Card: ""}, env)
	s, effects := mustApply(t, s, Command{Type: CmdSubmitNewPlayer}, env)
	assert.Empty(t, effects, "missing card")
	assert.Equal(t, "Ana", s.NewPlayer.Name)

	s, _ = mustApply(t, s, Command{Type: CmdSetNewPlayer, Name: "Ana", Score: "5.00", Card: "Charizard"}, env)
	s, effects = mustApply(t, s, Command{Type: CmdSubmitNewPlayer}, env)
	require.Len(t, effects, 1)
	assert.Equal(t, EffAddPlayer, effects[0].Type)
	assert.Equal(t, "Charizard", effects[0].NewPlayer.Card)
	assert.Equal(t, NewPlayerForm{}, s.NewPlayer)
}

func TestApply_PackAdd(t *testing.T) {
	env := newEnv()
	s, _ := mustApply(t, NewState(true), Command{Type: CmdSetPackAddInput, Value: "10"}, env)
	s, effects := mustApply(t, s, Command{Type: CmdSubmitPackAdd}, env)
	require.Len(t, effects, 1)
	assert.Equal(t, EffAddPacks, effects[0].Type)
	assert.Equal(t, "10", effects[0].Value)
	assert.Equal(t, 30, effects[0].GameState.PackCount)
	assert.Empty(t, s.PackAddInput)

	s, _ = mustApply(t, s, Command{Type: CmdSetPackAddInput, Value: "0"}, env)
	_, effects = mustApply(t, s, Command{Type: CmdSubmitPackAdd}, env)
	assert.Empty(t, effects)
}

func TestApply_SetStatus(t *testing.T) {
	env := newEnv()
	_, effects := mustApply(t, NewState(true), Command{Type: CmdSetStatus, Status: "active"}, env)
	require.Len(t, effects, 1)
	_, effects = mustApply(t, NewState(true), Command{Type: CmdSetStatus, Status: "paused"}, env)
	assert.Empty(t, effects)
}
