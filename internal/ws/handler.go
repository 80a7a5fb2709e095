package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/packboard/internal/editor"
	"github.com/DoyleJ11/packboard/internal/hub"
	"github.com/DoyleJ11/packboard/internal/scoreboard"
	"github.com/DoyleJ11/packboard/internal/types"
	pt "github.com/DoyleJ11/packboard/pkg/types"
)

const writeTimeout = 3 * time.Second

type Deps struct {
	Hub            *hub.Hub
	Gateway        *scoreboard.Gateway
	Gate           *editor.Gate
	Log            *zap.Logger
	OriginPatterns []string
}

// Handler serves one editor session per connection.
func Handler(d Deps) http.HandlerFunc {
	log := d.Log.Named("ws")

	return func(w http.ResponseWriter, r *http.Request) {
		unlocked := d.Gate.Open()
		if c, err := r.Cookie(editor.CookieName); err == nil && d.Gate.Remembered(c.Value) {
			unlocked = true
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: d.OriginPatterns,
		})
		if err != nil {
			log.Debug("accept", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		s := newSession(uuid.NewString(), d, log, unlocked)
		if err := s.open(ctx); err != nil {
			log.Error("open session", zap.String("session_id", s.id), zap.Error(err))
			conn.Close(websocket.StatusInternalError, "unavailable")
			return
		}
		defer s.close()

		// Writer goroutine
		go func() {
			for {
				var payload []byte
				select {
				case <-ctx.Done():
					return
				case payload = <-s.views:
				case payload = <-s.errs:
				}
				wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
				err := conn.Write(wctx, websocket.MessageText, payload)
				wcancel()
				if err != nil {
					log.Debug("write", zap.String("session_id", s.id), zap.Error(err))
					cancel()
					return
				}
			}
		}()

		// Reader goroutine
		go func() {
			defer s.post(ctx, readerDone{})
			for {
				_, data, err := conn.Read(ctx)
				if err != nil {
					switch websocket.CloseStatus(err) {
					case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					default:
						log.Debug("read", zap.String("session_id", s.id), zap.Error(err))
					}
					return
				}

				var cm types.ClientMessage
				if err := json.Unmarshal(data, &cm); err != nil {
					s.post(ctx, clientError{msg: "bad json"})
					continue
				}
				cmd, ok := toEditorCommand(cm)
				if !ok {
					s.post(ctx, clientError{msg: "unknown type"})
					continue
				}
				s.post(ctx, commandIn{cmd: cmd})
			}
		}()

		s.run(ctx)
	}
}

func toEditorCommand(m types.ClientMessage) (editor.Command, bool) {
	cmd := editor.Command{
		PlayerID: m.PlayerID,
		Value:    m.Value,
		Password: m.Password,
		Name:     m.Name,
		Score:    m.Score,
		Card:     m.Card,
		Status:   m.Status,
	}

	switch m.Type {
	case pt.Unlock:
		cmd.Type = editor.CmdUnlock
	case pt.StartEditScore:
		cmd.Type = editor.CmdStartEditScore
	case pt.SetScoreInput:
		cmd.Type = editor.CmdSetScoreInput
	case pt.SubmitScore:
		cmd.Type = editor.CmdSubmitScore
	case pt.CancelScore:
		cmd.Type = editor.CmdCancelScore
	case pt.StartRename:
		cmd.Type = editor.CmdStartRename
	case pt.SetNameInput:
		cmd.Type = editor.CmdSetNameInput
	case pt.SubmitName:
		cmd.Type = editor.CmdSubmitName
	case pt.CancelName:
		cmd.Type = editor.CmdCancelName
	case pt.StartEditPacks:
		cmd.Type = editor.CmdStartEditPacks
	case pt.SetPackCountInput:
		cmd.Type = editor.CmdSetPackCountInput
	case pt.SubmitPackCount:
		cmd.Type = editor.CmdSubmitPackCount
	case pt.CancelPackCount:
		cmd.Type = editor.CmdCancelPackCount
	case pt.ToggleExpand:
		cmd.Type = editor.CmdToggleExpand
	case pt.SetAddAmount:
		cmd.Type = editor.CmdSetAddAmount
	case pt.SetAddCard:
		cmd.Type = editor.CmdSetAddCard
	case pt.SubmitHistory:
		cmd.Type = editor.CmdSubmitHistory
	case pt.SetNewPlayer:
		cmd.Type = editor.CmdSetNewPlayer
	case pt.SubmitNewPlayer:
		cmd.Type = editor.CmdSubmitNewPlayer
	case pt.SetPackAddInput:
		cmd.Type = editor.CmdSetPackAddInput
	case pt.SubmitPackAdd:
		cmd.Type = editor.CmdSubmitPackAdd
	case pt.ResetStart:
		cmd.Type = editor.CmdResetStart
	case pt.ResetConfirm:
		cmd.Type = editor.CmdResetConfirm
	case pt.ResetSubmit:
		cmd.Type = editor.CmdResetSubmit
	case pt.ResetCancel:
		cmd.Type = editor.CmdResetCancel
	case pt.ResetDismiss:
		cmd.Type = editor.CmdResetDismiss
	case pt.SetStatus:
		cmd.Type = editor.CmdSetStatus
	default:
		return editor.Command{}, false
	}
	return cmd, true
}
