package httpapi

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Buckets idle this long are forgotten on the next sweep.
const throttleIdle = 10 * time.Minute

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// unlockThrottle limits password attempts per client address. The address is
// whatever middleware.RealIP left in RemoteAddr.
type unlockThrottle struct {
	limit rate.Limit
	burst int
	log   *zap.Logger
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newUnlockThrottle(limit rate.Limit, burst int, log *zap.Logger) *unlockThrottle {
	return &unlockThrottle{
		limit:   limit,
		burst:   burst,
		log:     log,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// reserve takes one attempt for addr. A positive wait means the attempt is
// refused and the client may retry after it.
func (t *unlockThrottle) reserve(addr string) (wait time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Sub(t.lastSweep) > throttleIdle {
		for k, b := range t.buckets {
			if now.Sub(b.seen) > throttleIdle {
				delete(t.buckets, k)
			}
		}
		t.lastSweep = now
	}

	b := t.buckets[addr]
	if b == nil {
		b = &bucket{lim: rate.NewLimiter(t.limit, t.burst)}
		t.buckets[addr] = b
	}
	b.seen = now

	r := b.lim.ReserveN(now, 1)
	if !r.OK() {
		return time.Duration(math.MaxInt64)
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return d
	}
	return 0
}

func (t *unlockThrottle) tracked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buckets)
}

func (t *unlockThrottle) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := clientAddr(r)
		if wait := t.reserve(addr); wait > 0 {
			secs := int(math.Ceil(wait.Seconds()))
			t.log.Info("unlock throttled", zap.String("client", addr), zap.Int("retry_after", secs))
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
			writeJSON(w, http.StatusTooManyRequests, unlockResponse{Error: "Too many attempts"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientAddr strips the port when RemoteAddr still has one.
func clientAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// allowOrigins echoes back listed origins with credentials, so the unlock
// cookie travels cross-site. Preflights from listed origins end here.
func allowOrigins(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if !allowed[origin] {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", "GET, POST")
				h.Set("Access-Control-Allow-Headers", "Content-Type")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
