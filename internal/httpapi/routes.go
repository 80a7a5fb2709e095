package httpapi

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/packboard/internal/editor"
	"github.com/DoyleJ11/packboard/internal/hub"
	"github.com/DoyleJ11/packboard/internal/scoreboard"
	"github.com/DoyleJ11/packboard/internal/store"
	"github.com/DoyleJ11/packboard/internal/ws"
)

type Deps struct {
	Hub     *hub.Hub
	Store   store.Reader
	Gateway *scoreboard.Gateway
	Gate    *editor.Gate
	Log     *zap.Logger

	// Gatherer backs /metrics. Nil leaves the route out.
	Gatherer prometheus.Gatherer

	UnlockRate     rate.Limit
	UnlockBurst    int
	AllowedOrigins []string
}

func SetupRoutes(d Deps) http.Handler {
	log := d.Log.Named("http")
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(allowOrigins(d.AllowedOrigins))

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(ws.Deps{
		Hub:            d.Hub,
		Gateway:        d.Gateway,
		Gate:           d.Gate,
		Log:            d.Log,
		OriginPatterns: originHosts(d.AllowedOrigins),
	}))

	throttle := newUnlockThrottle(d.UnlockRate, d.UnlockBurst, log)
	r.With(throttle.Handler).Post("/unlock", Unlock(d.Gate, log))

	r.Route("/api", func(r chi.Router) {
		r.Get("/scores", Scores(d.Store, log))
		r.Get("/status", Status(d.Store, log))
		r.Get("/status/stream", StatusStream(d.Hub, log))
	})

	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

// originHosts turns "https://host:port" origins into the host patterns the
// websocket origin check takes.
func originHosts(origins []string) []string {
	var hosts []string
	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			hosts = append(hosts, o)
			continue
		}
		hosts = append(hosts, u.Host)
	}
	return hosts
}
