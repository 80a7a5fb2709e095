package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/DoyleJ11/packboard/internal/hub"
	"github.com/DoyleJ11/packboard/internal/mirror"
	"github.com/DoyleJ11/packboard/internal/store"
	"github.com/DoyleJ11/packboard/internal/view"
)

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// loadMirror runs each topic's query once, for the one-shot endpoints.
func loadMirror(ctx context.Context, r store.Reader, topics ...store.Topic) (*mirror.Mirror, error) {
	m := mirror.New()
	for _, topic := range topics {
		snap, err := store.Load(ctx, r, topic)
		if err != nil {
			return nil, err
		}
		m.Apply(1, snap)
	}
	return m, nil
}

// Scores serves the read-only detail table.
func Scores(s store.Reader, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := loadMirror(r.Context(), s, store.TopicScores, store.TopicGameState)
		if err != nil {
			log.Error("load scores", zap.Error(err))
			http.Error(w, "failed to load scores", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, view.Detail(m))
	}
}

func Status(s store.Reader, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := loadMirror(r.Context(), s, store.TopicGameState)
		if err != nil {
			log.Error("load status", zap.Error(err))
			http.Error(w, "failed to load status", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, view.Status(m))
	}
}

// StatusStream pushes the status summary as server-sent events, one per
// game state snapshot, until the client goes away.
func StatusStream(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		sub, err := h.Subscribe(r.Context(), store.TopicGameState)
		if err != nil {
			log.Error("subscribe status", zap.Error(err))
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		defer sub.Close()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		m := mirror.New()
		for {
			select {
			case <-r.Context().Done():
				return
			case snap, ok := <-sub.C():
				if !ok {
					// Dropped by the feed; the client reconnects on its own.
					return
				}
				if !m.Apply(snap.Version, snap.State) {
					continue
				}
				payload, err := json.Marshal(view.Status(m))
				if err != nil {
					log.Error("marshal status", zap.Error(err))
					return
				}
				if _, err := fmt.Fprintf(w, "id: %d\nevent: status\ndata: %s\n\n", snap.Version, payload); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
