// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/apperr"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/constants"
	"github.com/hilmanmaulana1237/undangan-evan/internal/platform/respond"
)

// CodeTooManyRequests is returned with 429 responses.
const CodeTooManyRequests = "TOO_MANY_REQUESTS"

type rateLimitClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet holds one token bucket per client address.
type limiterSet struct {
	mu      sync.Mutex
	clients map[string]*rateLimitClient
	rps     rate.Limit
	burst   int
}

func newLimiterSet(rps float64, burst int) *limiterSet {
	return &limiterSet{
		clients: make(map[string]*rateLimitClient),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

// reserve takes one token for ip. When none is available it returns the wait
// until the next one instead.
func (set *limiterSet) reserve(ip string, now time.Time) (bool, time.Duration) {
	set.mu.Lock()
	defer set.mu.Unlock()

	client, found := set.clients[ip]
	if !found {
		client = &rateLimitClient{limiter: rate.NewLimiter(set.rps, set.burst)}
		set.clients[ip] = client
	}
	client.lastSeen = now

	reservation := client.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, time.Second
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// sweep forgets clients idle for longer than ttl.
func (set *limiterSet) sweep(now time.Time, ttl time.Duration) {
	set.mu.Lock()
	defer set.mu.Unlock()

	for ip, client := range set.clients {
		if now.Sub(client.lastSeen) > ttl {
			delete(set.clients, ip)
		}
	}
}

func (set *limiterSet) size() int {
	set.mu.Lock()
	defer set.mu.Unlock()
	return len(set.clients)
}

/*
RateLimit limits requests per client IP with a token bucket of rps tokens per
second and the given burst.

Rejected requests get 429 with a Retry-After header. Idle clients are swept
every RateLimitCleanupInterval until context is cancelled.
*/
func RateLimit(context context.Context, rps float64, burst int) func(http.Handler) http.Handler {
	set := newLimiterSet(rps, burst)

	go func() {
		ticker := time.NewTicker(constants.RateLimitCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case now := <-ticker.C:
				set.sweep(now, constants.RateLimitClientTTL)
			case <-context.Done():
				return
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			allowed, wait := set.reserve(RealIP(request), time.Now())
			if !allowed {
				writer.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				respond.Error(writer, request, &apperr.AppError{
					Code:       CodeTooManyRequests,
					Message:    "Rate limit exceeded",
					HTTPStatus: http.StatusTooManyRequests,
				})
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
