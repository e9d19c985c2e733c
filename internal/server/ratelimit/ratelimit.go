// Package ratelimit throttles API requests per client and endpoint.
package ratelimit

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Rule limits one method and path. A path ending in "/" matches by prefix.
type Rule struct {
	Method    string
	Path      string
	PerMinute int
	Burst     int // defaults to PerMinute
}

// Config holds the limiter rules. Requests that match no rule are not limited.
type Config struct {
	Enabled bool
	Rules   []Rule
	// IdleTTL is how long an unused client bucket is kept
	IdleTTL time.Duration
}

// DefaultConfig limits selection, the only endpoint that ranks the whole store.
func DefaultConfig() *Config {
	return &Config{
		Enabled: true,
		Rules: []Rule{
			{Method: "POST", Path: "/select", PerMinute: 60, Burst: 10},
			{Method: "GET", Path: "/results/search", PerMinute: 300, Burst: 30},
		},
		IdleTTL: time.Hour,
	}
}

// Info describes the outcome of one Allow call.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps a token bucket per client, method and path.
type Limiter struct {
	config    *Config
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastPrune time.Time
	now       func() time.Time
}

// NewLimiter creates a limiter. A nil config uses DefaultConfig.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = DefaultConfig()
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = time.Hour
	}
	return &Limiter{
		config:  config,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow consumes a token for clientID on the given endpoint when one is available.
func (l *Limiter) Allow(clientID, path, method string) Info {
	if !l.config.Enabled {
		return Info{Allowed: true}
	}
	rule := Match(path, method, l.config.Rules)
	if rule == nil || rule.PerMinute <= 0 {
		return Info{Allowed: true}
	}

	now := l.now()
	lim := l.bucketFor(clientID+" "+method+" "+rule.Path, rule, now)

	info := Info{Limit: rule.PerMinute}
	if lim.AllowN(now, 1) {
		info.Allowed = true
		info.Remaining = int(lim.TokensAt(now))
		return info
	}
	r := lim.ReserveN(now, 1)
	info.RetryAfter = r.DelayFrom(now)
	r.CancelAt(now)
	return info
}

func (l *Limiter) bucketFor(key string, rule *Rule, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastPrune) > l.config.IdleTTL {
		l.prune(now)
	}
	b, ok := l.buckets[key]
	if !ok {
		burst := rule.Burst
		if burst <= 0 {
			burst = rule.PerMinute
		}
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(float64(rule.PerMinute)/60), burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// prune drops buckets idle for longer than IdleTTL. Callers hold mu.
func (l *Limiter) prune(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.config.IdleTTL {
			delete(l.buckets, key)
		}
	}
	l.lastPrune = now
}

// Match returns the first rule for method whose path equals path, then the
// first prefix rule, or nil.
func Match(path, method string, rules []Rule) *Rule {
	for i := range rules {
		if rules[i].Method == method && rules[i].Path == path {
			return &rules[i]
		}
	}
	for i := range rules {
		r := &rules[i]
		if r.Method == method && strings.HasSuffix(r.Path, "/") && strings.HasPrefix(path, r.Path) {
			return r
		}
	}
	return nil
}
