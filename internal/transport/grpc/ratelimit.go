package grpc

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const (
	limiterIdleTTL    = 3 * time.Minute
	limiterSweepEvery = time.Minute
)

type peerLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter keeps one token bucket per client host.
type RateLimiter struct {
	mu        sync.Mutex
	peers     map[string]*peerLimiter
	r         rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		peers: make(map[string]*peerLimiter),
		r:     rate.Limit(rps),
		burst: burst,
		now:   time.Now,
	}
}

func (rl *RateLimiter) allow(host string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > limiterSweepEvery {
		for h, p := range rl.peers {
			if now.Sub(p.seen) > limiterIdleTTL {
				delete(rl.peers, h)
			}
		}
		rl.lastSweep = now
	}

	p, ok := rl.peers[host]
	if !ok {
		p = &peerLimiter{lim: rate.NewLimiter(rl.r, rl.burst)}
		rl.peers[host] = p
	}
	p.seen = now
	return p.lim.AllowN(now, 1)
}

// mutating RPCs touch the calendar; reads are not limited.
var rateLimited = map[string]bool{
	MethodAcceptAppointment: true,
	MethodCancelAppointment: true,
	MethodResetAppointments: true,
}

func RateLimitInterceptor(rl *RateLimiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if rl == nil || !rateLimited[info.FullMethod] {
			return next(ctx, req)
		}
		if !rl.allow(peerHost(ctx)) {
			return nil, status.Error(codes.ResourceExhausted, "too many requests")
		}
		return next(ctx, req)
	}
}

func peerHost(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
