// Package pool implements a bounded FIFO of ZTeraDB sessions with
// concurrent prewarm to Min, lazy growth, and lease/release semantics.
package pool

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/zteradb/zteradb-go/config"
	"github.com/zteradb/zteradb-go/session"
	"github.com/zteradb/zteradb-go/zterr"
)

// Logger is a minimal sink for pool lifecycle events, so a caller can
// observe the pool without adopting slog.
type Logger interface {
	Printf(format string, v ...any)
}

// nullLogger discards everything; the default when no Logger is given.
type nullLogger struct{}

func (nullLogger) Printf(string, ...any) {}

// Dialer opens a new authenticated Session. Pool depends on this instead
// of session.Dial directly so tests can supply their own dialer (the pool
// tests dial the fake server in internal/zttest).
type Dialer func(ctx context.Context) (*session.Session, error)

// Pool is a bounded FIFO of live Sessions. At most one caller may hold a
// given Session at a time: it is either idle in the FIFO, leased to a
// caller, or destroyed.
type Pool struct {
	dial   Dialer
	min    int
	max    int // 0 means unbounded
	logger Logger

	mu      sync.Mutex
	cond    *sync.Cond
	idle    []*session.Session
	live    int // count of sessions that exist: idle + leased
	closed  bool
}

// Option configures New.
type Option func(*Pool)

// WithLogger installs a Logger for pool lifecycle events.
func WithLogger(l Logger) Option {
	return func(p *Pool) { p.logger = l }
}

// New constructs a Pool bounded by opts.Pool.Min/Max and concurrently
// prewarms Min sessions via dial, pushing them into the FIFO once every
// prewarm dial has completed. A prewarm failure surfaces to the caller rather than being
// swallowed: an acquirer must never receive an unauthenticated session.
func New(ctx context.Context, dial Dialer, opts config.PoolOptions, options ...Option) (*Pool, error) {
	p := &Pool{
		dial:   dial,
		min:    opts.Min,
		max:    opts.Max,
		logger: nullLogger{},
	}
	p.cond = sync.NewCond(&p.mu)
	for _, o := range options {
		o(p)
	}

	if p.min > 0 {
		sessions, err := prewarm(ctx, dial, p.min)
		if err != nil {
			return nil, err
		}
		p.idle = append(p.idle, sessions...)
		p.live = len(sessions)
		p.logger.Printf("pool prewarmed %d sessions", len(sessions))
	}
	return p, nil
}

// prewarm opens n sessions concurrently, bounded by an errgroup limit.
func prewarm(ctx context.Context, dial Dialer, n int) ([]*session.Session, error) {
	sessions := make([]*session.Session, n)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(n)
	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			s, err := dial(egCtx)
			if err != nil {
				return err
			}
			sessions[i] = s
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		for _, s := range sessions {
			if s != nil {
				_ = s.Close()
			}
		}
		return nil, zterr.Wrap(zterr.KindConnection, err, "pool prewarm failed")
	}
	return sessions, nil
}

// Acquire returns an idle session if one is available, otherwise dials a
// fresh one. When Max is set (>0) and the pool already has Max live
// sessions, Acquire blocks until one is released or ctx is cancelled.
func (p *Pool) Acquire(ctx context.Context) (*session.Session, error) {
	p.mu.Lock()
	for {
		if p.closed {
			p.mu.Unlock()
			return nil, zterr.New(zterr.KindConnection, "pool is closed")
		}
		if len(p.idle) > 0 {
			s := p.idle[0]
			p.idle = p.idle[1:]
			p.mu.Unlock()
			return s, nil
		}
		if p.max == 0 || p.live < p.max {
			p.live++
			p.mu.Unlock()
			s, err := p.dial(ctx)
			if err != nil {
				p.mu.Lock()
				p.live--
				p.cond.Signal()
				p.mu.Unlock()
				return nil, err
			}
			return s, nil
		}
		if waitErr := p.waitOrCancel(ctx); waitErr != nil {
			p.mu.Unlock()
			return nil, waitErr
		}
	}
}

// waitOrCancel blocks on p.cond until signalled, honoring ctx
// cancellation. p.mu must be held on entry and is held again on return
// (matching sync.Cond.Wait's contract); the loop in Acquire re-checks
// state after waking.
func (p *Pool) waitOrCancel(ctx context.Context) error {
	done := make(chan struct{})
	stopped := false
	go func() {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			stopped = true
			p.mu.Unlock()
			p.cond.Broadcast()
		case <-done:
		}
	}()
	p.cond.Wait()
	close(done)
	if stopped {
		p.mu.Unlock()
		err := ctx.Err()
		p.mu.Lock()
		return zterr.Wrap(zterr.KindTimeout, err, "acquire cancelled waiting for pool capacity")
	}
	return nil
}

// Release returns session s to the idle FIFO. Releasing nil is a no-op,
// used by callers whose acquire or execution itself failed.
func (p *Pool) Release(s *session.Session) {
	if s == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || s.Closed() {
		if !s.Closed() {
			_ = s.Close()
		}
		if p.live > 0 {
			p.live--
		}
		p.cond.Signal()
		return
	}
	p.idle = append(p.idle, s)
	p.cond.Signal()
}

// Close drains the FIFO and closes every idle session. Sessions currently
// leased to callers are closed as they are released afterward (Release
// notices p.closed and tears them down instead of requeuing).
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	var firstErr error
	for _, s := range p.idle {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.live -= len(p.idle)
	p.idle = nil
	p.cond.Broadcast()
	p.logger.Printf("pool closed")
	return firstErr
}

// Stats reports a point-in-time snapshot of the pool's occupancy.
type Stats struct {
	Idle int
	Live int
}

// Stats returns the current idle/live counts.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{Idle: len(p.idle), Live: p.live}
}
