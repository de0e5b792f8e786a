// Package dashboard periodically refreshes the research listing and its
// aggregate statistics. The poll loop is an explicitly cancellable task
// owned by the caller, not an ambient interval.
package dashboard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/atelier-research/beacon/internal/research"
)

// Lister enumerates research instances. *api.Client satisfies it.
type Lister interface {
	ListResearch(ctx context.Context) ([]research.Summary, error)
}

// Stats are the aggregate dashboard figures.
type Stats struct {
	Total     int
	Active    int
	Completed int
}

// Snapshot is one poll result.
type Snapshot struct {
	Summaries []research.Summary
	Stats     Stats
}

// ComputeStats derives aggregate figures from a listing.
func ComputeStats(summaries []research.Summary) Stats {
	s := Stats{Total: len(summaries)}
	for _, r := range summaries {
		switch r.Status {
		case research.StatusCompleted:
			s.Completed++
		case research.StatusRunning, research.StatusWaitingApproval, research.StatusCreated:
			s.Active++
		}
	}
	return s
}

// Poller drives the periodic listing refresh. When no workflow is active it
// backs off to a slower cadence and returns to the base interval as soon as
// activity reappears.
type Poller struct {
	lister   Lister
	interval time.Duration
	limiter  *rate.Limiter
	log      *zap.Logger

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewPoller creates a Poller with the given base interval. The rate limiter
// caps list requests at one per interval even if ticks pile up.
func NewPoller(lister Lister, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		lister:   lister,
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		log:      logger,
		done:     make(chan struct{}),
	}
}

// Start begins polling and returns the snapshot channel. The first poll
// happens immediately. The channel is closed when the poller stops.
func (p *Poller) Start(ctx context.Context) <-chan Snapshot {
	ctx, p.cancel = context.WithCancel(ctx)
	out := make(chan Snapshot, 1)

	go func() {
		defer close(p.done)
		defer close(out)

		idleTicks := 0
		for {
			snap, ok := p.poll(ctx)
			if ok {
				if snap.Stats.Active > 0 {
					idleTicks = 0
				} else if idleTicks < 8 {
					idleTicks++
				}
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}

			wait := p.interval * time.Duration(1+idleTicks)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}()
	return out
}

func (p *Poller) poll(ctx context.Context) (Snapshot, bool) {
	if err := p.limiter.Wait(ctx); err != nil {
		return Snapshot{}, false
	}
	summaries, err := p.lister.ListResearch(ctx)
	if err != nil {
		p.log.Warn("Research list poll failed", zap.Error(err))
		return Snapshot{}, false
	}
	return Snapshot{Summaries: summaries, Stats: ComputeStats(summaries)}, true
}

// Stop cancels the poll loop and waits for it to exit. Idempotent.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		if p.cancel == nil {
			return
		}
		p.cancel()
		<-p.done
	})
}
