package java

import (
	"errors"
	"math"
	"net"
	"net/netip"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

var ErrRateLimitReached = errors.New("rate limit reached")

type RateLimiterConfig struct {
	RequestLimit int           `mapstructure:"requestLimit"`
	WindowLength time.Duration `mapstructure:"windowLength"`
}

type RateLimiterKeyFunc func(c net.Conn) string

type RateLimiterOption func(rl *RateLimiter)

// WithRateLimiterKeyFunc sets how connections are grouped. All connections
// share one budget by default.
func WithRateLimiterKeyFunc(fn RateLimiterKeyFunc) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.keyFn = fn
	}
}

func withClock(now func() time.Time) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.now = now
	}
}

// RateLimiter is a sliding window counter. The previous window is weighted
// by how much of it still overlaps with the last windowLength.
type RateLimiter struct {
	requestLimit int
	windowLength time.Duration
	keyFn        RateLimiterKeyFunc
	now          func() time.Time

	mu        sync.Mutex
	counters  map[uint64]*windowCount
	lastEvict time.Time
}

type windowCount struct {
	value     int
	updatedAt time.Time
}

func NewRateLimiter(cfg RateLimiterConfig, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		requestLimit: cfg.RequestLimit,
		windowLength: cfg.WindowLength,
		keyFn: func(net.Conn) string {
			return "*"
		},
		now:      time.Now,
		counters: map[uint64]*windowCount{},
	}

	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// NewRateLimiterByIP limits connections per client IP; IPv6 clients are
// grouped by their /64 prefix.
func NewRateLimiterByIP(cfg RateLimiterConfig) *RateLimiter {
	return NewRateLimiter(cfg, WithRateLimiterKeyFunc(KeyByIP))
}

// Rate returns the weighted number of requests seen for key.
func (rl *RateLimiter) Rate(key string) float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.rate(key, rl.now().UTC())
}

func (rl *RateLimiter) rate(key string, t time.Time) float64 {
	currWindow := t.Truncate(rl.windowLength)
	prevWindow := currWindow.Add(-rl.windowLength)

	var curr, prev int
	if c, ok := rl.counters[windowKey(key, currWindow)]; ok {
		curr = c.value
	}
	if c, ok := rl.counters[windowKey(key, prevWindow)]; ok {
		prev = c.value
	}

	overlap := float64(rl.windowLength-t.Sub(currWindow)) / float64(rl.windowLength)
	return float64(prev)*overlap + float64(curr)
}

// Allow counts a request for key unless the limit is already reached.
func (rl *RateLimiter) Allow(key string) bool {
	if rl.requestLimit <= 0 || rl.windowLength <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	t := rl.now().UTC()
	rl.evict(t)

	if int(math.Round(rl.rate(key, t))) >= rl.requestLimit {
		return false
	}

	hkey := windowKey(key, t.Truncate(rl.windowLength))
	c, ok := rl.counters[hkey]
	if !ok {
		c = &windowCount{}
		rl.counters[hkey] = c
	}
	c.value++
	c.updatedAt = t
	return true
}

// Filter rejects c once its key ran out of budget.
func (rl *RateLimiter) Filter(c net.Conn) error {
	if !rl.Allow(rl.keyFn(c)) {
		return ErrRateLimitReached
	}
	return nil
}

// evict drops counters older than two windows; they no longer contribute
// to any rate.
func (rl *RateLimiter) evict(t time.Time) {
	if t.Sub(rl.lastEvict) < rl.windowLength {
		return
	}
	rl.lastEvict = t

	for k, c := range rl.counters {
		if t.Sub(c.updatedAt) >= 2*rl.windowLength {
			delete(rl.counters, k)
		}
	}
}

func windowKey(key string, window time.Time) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(key)
	_, _ = h.WriteString(strconv.FormatInt(window.Unix(), 10))
	return h.Sum64()
}

func KeyByIP(c net.Conn) string {
	addr := c.RemoteAddr().String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	return canonicalizeIP(host)
}

// canonicalizeIP returns IPv4 addresses as they are and IPv6 addresses as
// their /64 prefix. Anything that is not an IP is returned unchanged.
func canonicalizeIP(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ip
	}

	if addr.Is4() || addr.Is4In6() {
		return addr.Unmap().String()
	}

	prefix, err := addr.Prefix(64)
	if err != nil {
		return ip
	}
	return prefix.Addr().String()
}
