package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/packboard/internal/editor"
)

const cookieMaxAge = 365 * 24 * time.Hour

type unlockRequest struct {
	Password string `json:"password"`
}

type unlockResponse struct {
	Unlocked bool   `json:"unlocked"`
	Error    string `json:"error,omitempty"`
}

// Unlock checks the shared password and, on a match, sets the cookie that lets
// later editor sessions skip the lock screen.
func Unlock(gate *editor.Gate, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req unlockRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, unlockResponse{Error: "bad json"})
			return
		}

		if !gate.Check(req.Password) {
			log.Info("unlock refused", zap.String("remote_addr", r.RemoteAddr))
			writeJSON(w, http.StatusUnauthorized, unlockResponse{Error: editor.IncorrectPasswordMessage})
			return
		}

		if token := gate.Token(); token != "" {
			http.SetCookie(w, &http.Cookie{
				Name:     editor.CookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(cookieMaxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   r.TLS != nil,
			})
		}
		writeJSON(w, http.StatusOK, unlockResponse{Unlocked: true})
	}
}
