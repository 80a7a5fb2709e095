package editor

import "github.com/DoyleJ11/packboard/internal/scoreboard"

// applyReset drives the reset dialog:
//
//	idle -> confirming -> collectingDenominator -> committed | aborted -> idle
//
// Confirming issues the deletes straight away, so aborting afterwards leaves
// an empty board with the old counters.
func applyReset(s State, cmd Command) (State, []Effect, error) {
	switch cmd.Type {
	case CmdResetStart:
		switch s.Reset.Step {
		case ResetIdle, ResetCommitted, ResetAborted, "":
			s.Reset = ResetDialog{Step: ResetConfirming}
			return s, nil, nil
		}

	case CmdResetConfirm:
		if s.Reset.Step == ResetConfirming {
			s.Reset = ResetDialog{Step: ResetCollecting, Input: scoreboard.DefaultDenominator}
			return s, []Effect{{Type: EffDeleteAll}}, nil
		}

	case CmdResetSubmit:
		if s.Reset.Step == ResetCollecting {
			total, err := scoreboard.ParseDenominator(cmd.Value)
			if err != nil {
				s.Reset.Input = cmd.Value
				s.Reset.Message = InvalidDenominatorMessage
				return s, nil, nil
			}
			s.Reset = ResetDialog{Step: ResetCommitted}
			return s, []Effect{{Type: EffSetDenominator, Total: total}}, nil
		}

	case CmdResetCancel:
		switch s.Reset.Step {
		case ResetConfirming:
			s.Reset = ResetDialog{Step: ResetIdle}
			return s, nil, nil
		case ResetCollecting:
			s.Reset = ResetDialog{Step: ResetAborted}
			return s, nil, nil
		}

	case CmdResetDismiss:
		switch s.Reset.Step {
		case ResetCommitted, ResetAborted:
			s.Reset = ResetDialog{Step: ResetIdle}
			return s, nil, nil
		}
	}
	return s, nil, ErrResetStep
}
