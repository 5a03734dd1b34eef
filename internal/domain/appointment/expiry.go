package appointment

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Purger is implemented by Service and by the appointment store.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Expirer periodically purges expired appointments and then calls refresh so
// views drop them. Failures are logged and retried on the next tick.
type Expirer struct {
	purger   Purger
	refresh  func(ctx context.Context) error
	interval time.Duration
	logger   zerolog.Logger
	started  atomic.Bool
	done     chan struct{}
	stopped  chan struct{}
}

func NewExpirer(p Purger, refresh func(ctx context.Context) error, interval time.Duration, logger zerolog.Logger) *Expirer {
	return &Expirer{
		purger:   p,
		refresh:  refresh,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start runs one pass immediately and then one per interval until Close.
func (e *Expirer) Start() {
	if e.started.CompareAndSwap(false, true) {
		go e.loop()
	}
}

func (e *Expirer) loop() {
	defer close(e.stopped)

	e.RunOnce(context.Background())

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			e.RunOnce(context.Background())
		}
	}
}

// RunOnce purges and refreshes once.
func (e *Expirer) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	n, err := e.purger.PurgeExpired(ctx)
	if err != nil {
		e.logger.Error().Err(err).Msg("appointment expiry failed")
		return
	}
	if n > 0 {
		e.logger.Info().Int64("removed", n).Msg("expired appointments removed")
	}
	if e.refresh == nil {
		return
	}
	if err := e.refresh(ctx); err != nil {
		e.logger.Error().Err(err).Msg("appointment refresh after expiry failed")
	}
}

// Close stops the loop and waits for an in-flight pass. Safe to call more
// than once.
func (e *Expirer) Close() {
	select {
	case <-e.done:
	default:
		close(e.done)
	}
	if e.started.Load() {
		<-e.stopped
	}
}
