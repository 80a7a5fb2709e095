package editor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReset_HappyPath(t *testing.T) {
	env := newEnv()
	s := NewState(true)

	s, effects := mustApply(t, s, Command{Type: CmdResetStart}, env)
	require.Equal(t, ResetConfirming, s.Reset.Step)
	require.Empty(t, effects)

	s, effects = mustApply(t, s, Command{Type: CmdResetConfirm}, env)
	require.Equal(t, ResetCollecting, s.Reset.Step)
	require.Equal(t, "36", s.Reset.Input)
	require.Equal(t, []Effect{{Type: EffDeleteAll}}, effects)

	s, effects = mustApply(t, s, Command{Type: CmdResetSubmit, Value: "48"}, env)
	require.Equal(t, ResetCommitted, s.Reset.Step)
	require.Equal(t, []Effect{{Type: EffSetDenominator, Total: 48}}, effects)

	s, _ = mustApply(t, s, Command{Type: CmdResetDismiss}, env)
	assert.Equal(t, ResetIdle, s.Reset.Step)
}

func TestReset_InvalidDenominatorKeepsCollecting(t *testing.T) {
	env := newEnv()
	s, _ := mustApply(t, NewState(true), Command{Type: CmdResetStart}, env)
	s, _ = mustApply(t, s, Command{Type: CmdResetConfirm}, env)

	for _, bad := range []string{"abc", "0", "-3", "", "1.5"} {
		var effects []Effect
		s, effects = mustApply(t, s, Command{Type: CmdResetSubmit, Value: bad}, env)
		assert.Equal(t, ResetCollecting, s.Reset.Step, "input %q", bad)
		assert.Equal(t, InvalidDenominatorMessage, s.Reset.Message)
		assert.Empty(t, effects, "input %q", bad)
	}

	s, effects := mustApply(t, s, Command{Type: CmdResetCancel}, env)
	assert.Equal(t, ResetAborted, s.Reset.Step)
	assert.Empty(t, effects, "cancelling never writes the denominator")
}

func TestReset_CancelAtConfirmIssuesNothing(t *testing.T) {
	env := newEnv()
	s, _ := mustApply(t, NewState(true), Command{Type: CmdResetStart}, env)
	s, effects := mustApply(t, s, Command{Type: CmdResetCancel}, env)
	assert.Equal(t, ResetIdle, s.Reset.Step)
	assert.Empty(t, effects)
}

func TestReset_OutOfOrderSteps(t *testing.T) {
	cases := []struct {
		name string
		from ResetStep
		cmd  CommandType
	}{
		{"confirm while idle", ResetIdle, CmdResetConfirm},
		{"submit while confirming", ResetConfirming, CmdResetSubmit},
		{"dismiss while collecting", ResetCollecting, CmdResetDismiss},
		{"start while collecting", ResetCollecting, CmdResetStart},
		{"cancel when idle", ResetIdle, CmdResetCancel},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewState(true)
			s.Reset.Step = tc.from
			next, effects, err := Apply(s, Command{Type: tc.cmd, Value: "36"}, newEnv())
			if !errors.Is(err, ErrResetStep) {
				t.Fatalf("want ErrResetStep, got %v", err)
			}
			assert.Empty(t, effects)
			assert.Equal(t, tc.from, next.Reset.Step)
		})
	}
}
