// Package throttle schedules calls to a single external origin.
// Two constraints apply to every call: a pause since the previous call
// finished, and a reservoir of permits per 60 second window.
package throttle

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Window is the sliding period of the reservoir. No more than the
// reservoir size of calls start within any Window.
const Window = time.Minute

// Governor runs actions one at a time against a shared origin.
// The pause before an action is the larger of the minimal interval and
// the duration of the previous action, counted from the moment the
// previous action completed.
type Governor struct {
	mu          sync.Mutex
	minInterval time.Duration
	reservoir   *rate.Limiter

	lastDone     time.Time
	lastDuration time.Duration

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// Option configures a Governor.
type Option func(*Governor)

// OptClock replaces the time source and the sleep function.
func OptClock(
	now func() time.Time,
	sleep func(context.Context, time.Duration) error,
) Option {
	return func(g *Governor) {
		if now != nil {
			g.now = now
		}
		if sleep != nil {
			g.sleep = sleep
		}
	}
}

// New creates a Governor with a minimal interval between calls and a
// reservoir of perWindow permits per Window. Permits are released one
// at a time every Window/perWindow, a bucket of one keeps any Window
// at perWindow starts or fewer.
func New(minInterval time.Duration, perWindow int, opts ...Option) *Governor {
	if perWindow < 1 {
		perWindow = 1
	}
	if minInterval < 0 {
		minInterval = 0
	}
	every := rate.Every(Window / time.Duration(perWindow))
	g := &Governor{
		minInterval: minInterval,
		reservoir:   rate.NewLimiter(every, 1),
		now:         time.Now,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Schedule waits for its turn and runs the action. The action's error
// is returned unchanged. If the context is cancelled while waiting, the
// action does not run and the context error is returned.
func (g *Governor) Schedule(
	ctx context.Context,
	action func(context.Context) error,
) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.waitInterval(ctx); err != nil {
		return err
	}
	if err := g.waitPermit(ctx); err != nil {
		return err
	}

	start := g.now()
	err := action(ctx)
	g.lastDone = g.now()
	g.lastDuration = g.lastDone.Sub(start)
	return err
}

// NextDelay reports the pause the next action would get from the
// interval constraint alone.
func (g *Governor) NextDelay() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.intervalDelay()
}

func (g *Governor) intervalDelay() time.Duration {
	if g.lastDone.IsZero() {
		return 0
	}
	pause := max(g.minInterval, g.lastDuration)
	return pause - g.now().Sub(g.lastDone)
}

func (g *Governor) waitInterval(ctx context.Context) error {
	d := g.intervalDelay()
	if d <= 0 {
		return ctx.Err()
	}
	return g.sleep(ctx, d)
}

func (g *Governor) waitPermit(ctx context.Context) error {
	now := g.now()
	r := g.reservoir.ReserveN(now, 1)
	d := r.DelayFrom(now)
	if d <= 0 {
		return nil
	}
	if err := g.sleep(ctx, d); err != nil {
		r.CancelAt(g.now())
		return err
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
