package middleware

import (
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frahmantamala/warehouse-management/internal"
	"github.com/frahmantamala/warehouse-management/pkg/logger"
	"golang.org/x/time/rate"
)

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(*http.Request) string

// ClientIP is the socket peer address. Forwarding headers are ignored; use
// TrustedProxies.ClientIP when the server sits behind a proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// TrustedProxies are the peers whose X-Forwarded-For and X-Real-IP headers
// are believed.
type TrustedProxies []*net.IPNet

// ParseTrustedProxies accepts plain IPs and CIDR ranges.
func ParseTrustedProxies(entries []string) (TrustedProxies, error) {
	proxies := make(TrustedProxies, 0, len(entries))
	for _, entry := range entries {
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", entry)
			}
			bits := 8 * net.IPv6len
			if ip4 := ip.To4(); ip4 != nil {
				ip, bits = ip4, 8*net.IPv4len
			}
			proxies = append(proxies, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, network, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		proxies = append(proxies, network)
	}
	return proxies, nil
}

func (tp TrustedProxies) trusts(ip net.IP) bool {
	for _, network := range tp {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP walks X-Forwarded-For right to left while the hops are trusted
// proxies and returns the first untrusted one. Requests that do not arrive
// from a trusted peer are keyed by the socket address.
func (tp TrustedProxies) ClientIP(r *http.Request) string {
	peer := ClientIP(r)
	peerIP := net.ParseIP(peer)
	if peerIP == nil || !tp.trusts(peerIP) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			ip := net.ParseIP(strings.TrimSpace(hops[i]))
			if ip == nil {
				break
			}
			if !tp.trusts(ip) {
				return ip.String()
			}
		}
		return peer
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	return peer
}

const defaultIdleTTL = 5 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

type RateLimiter struct {
	limit   rate.Limit
	burst   int
	key     KeyFunc
	idleTTL time.Duration
	now     func() time.Time

	visitors    sync.Map
	mu          sync.Mutex
	lastCleanup time.Time
}

type RateLimiterOption func(*RateLimiter)

// WithIdleTTL sets how long a key must stay idle before it is evicted.
func WithIdleTTL(ttl time.Duration) RateLimiterOption {
	return func(rl *RateLimiter) {
		if ttl > 0 {
			rl.idleTTL = ttl
		}
	}
}

func WithClock(now func() time.Time) RateLimiterOption {
	return func(rl *RateLimiter) {
		if now != nil {
			rl.now = now
		}
	}
}

// NewRateLimiter allows perMinute requests per key with the given burst.
func NewRateLimiter(perMinute, burst int, key KeyFunc, opts ...RateLimiterOption) *RateLimiter {
	if burst <= 0 {
		burst = perMinute
	}
	if key == nil {
		key = ClientIP
	}
	rl := &RateLimiter{
		limit:   rate.Every(time.Minute / time.Duration(max(perMinute, 1))),
		burst:   max(burst, 1),
		key:     key,
		idleTTL: defaultIdleTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(rl)
	}
	rl.lastCleanup = rl.now()
	return rl
}

// Tracked is the number of keys currently holding a bucket.
func (rl *RateLimiter) Tracked() int {
	n := 0
	rl.visitors.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (rl *RateLimiter) visit(key string, now time.Time) *rate.Limiter {
	v, ok := rl.visitors.Load(key)
	if !ok {
		fresh := &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		fresh.lastSeen.Store(now.UnixNano())
		v, _ = rl.visitors.LoadOrStore(key, fresh)
		rl.maybeCleanup(now)
	}
	entry := v.(*visitor)
	entry.lastSeen.Store(now.UnixNano())
	return entry.limiter
}

// maybeCleanup runs at most once per idle TTL and evicts keys that have been
// idle for the TTL and whose bucket has refilled, so eviction never resets a
// throttled client.
func (rl *RateLimiter) maybeCleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if now.Sub(rl.lastCleanup) < rl.idleTTL {
		return
	}
	rl.lastCleanup = now

	cutoff := now.Add(-rl.idleTTL).UnixNano()
	removed := 0
	rl.visitors.Range(func(key, value any) bool {
		v := value.(*visitor)
		if v.lastSeen.Load() <= cutoff && v.limiter.TokensAt(now) >= float64(rl.burst) {
			rl.visitors.Delete(key)
			removed++
		}
		return true
	})
	if removed > 0 {
		logger.LoggerWrapper().Debug("rate limiter evicted idle keys", "removed", removed, "tracked", rl.Tracked())
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := rl.now()
		key := rl.key(r)
		reservation := rl.visit(key, now).ReserveN(now, 1)
		if delay := reservation.DelayFrom(now); delay > 0 {
			reservation.CancelAt(now)
			logger.From(r.Context()).WarnContext(r.Context(), "rate limit exceeded", "key", key, "path", r.URL.Path)

			result := internal.Fail[struct{}](internal.ErrRateLimited)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(result.Status(http.StatusOK))
			_ = json.NewEncoder(w).Encode(result)
			return
		}
		next.ServeHTTP(w, r)
	})
}
