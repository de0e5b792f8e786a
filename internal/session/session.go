// Package session wires the snapshot fetcher, push channel, reconciler,
// and approval gate together for one research id. All canonical-state
// writes happen on the session's single run loop goroutine, preserving the
// reconciler's single-writer discipline.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/atelier-research/beacon/internal/api"
	"github.com/atelier-research/beacon/internal/approval"
	"github.com/atelier-research/beacon/internal/metrics"
	"github.com/atelier-research/beacon/internal/push"
	"github.com/atelier-research/beacon/internal/reconcile"
	"github.com/atelier-research/beacon/internal/research"
)

// ReconnectPolicy controls the opt-in push channel reconnect behavior.
// Disabled by default: a dropped channel then simply ends the live stream
// and the last published state stands.
type ReconnectPolicy struct {
	Enabled        bool
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func (p ReconnectPolicy) withDefaults() ReconnectPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 5
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = time.Second
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 30 * time.Second
	}
	return p
}

// Session is the live synchronization engine for one research id. Created
// on navigation to the id, destroyed on navigation away via Close.
type Session struct {
	id     string
	api    *api.Client
	wsBase string
	policy ReconnectPolicy
	log    *zap.Logger

	rec  *reconcile.Reconciler
	gate *approval.Gate

	ctx       context.Context
	cancel    context.CancelFunc
	active    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}

	mu      sync.Mutex
	channel *push.Channel
}

// Open fetches the initial snapshot, opens the push channel, and starts the
// run loop. A NotFoundError or NetworkError from the snapshot fetch is
// terminal: no channel is opened and no session exists for the id.
func Open(ctx context.Context, client *api.Client, wsBase, id string, policy ReconnectPolicy, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("research_id", id))

	snap, err := client.FetchSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:     id,
		api:    client,
		wsBase: wsBase,
		policy: policy.withDefaults(),
		log:    logger,
		rec:    reconcile.New(logger),
		gate:   approval.NewGate(id, client, logger),
		ctx:    sctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.active.Store(true)

	state := s.rec.ApplySnapshot(snap)
	s.gate.Observe(state)

	ch, err := push.Dial(ctx, wsBase, id, logger)
	if err != nil {
		cancel()
		return nil, err
	}
	s.mu.Lock()
	s.channel = ch
	s.mu.Unlock()

	go s.run(ch)
	return s, nil
}

// run consumes push events until the session closes or the stream ends.
// It is the only goroutine that writes canonical state after Open returns.
func (s *Session) run(ch *push.Channel) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case ev, ok := <-ch.Events():
			if !ok {
				next := s.handleStreamEnd(ch)
				if next == nil {
					return
				}
				ch = next
				continue
			}
			if !s.active.Load() {
				// Closed while the event was in flight; drop it.
				return
			}
			state := s.rec.ApplyEvent(ev)
			s.gate.Observe(state)
		}
	}
}

// handleStreamEnd decides what to do when the push channel ends. With
// reconnection disabled, or after a clean local close, the stream is simply
// over. Otherwise it attempts an exponential backoff reconnect with a
// snapshot resync, and returns the fresh channel on success.
func (s *Session) handleStreamEnd(ch *push.Channel) *push.Channel {
	if !s.active.Load() || ch.Err() == nil || !s.policy.Enabled {
		return nil
	}

	backoff := s.policy.InitialBackoff
	for attempt := 1; attempt <= s.policy.MaxAttempts; attempt++ {
		select {
		case <-s.ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > s.policy.MaxBackoff {
			backoff = s.policy.MaxBackoff
		}

		metrics.PushReconnects.Inc()
		next, err := push.Dial(s.ctx, s.wsBase, s.id, s.log)
		if err != nil {
			s.log.Warn("Push channel reconnect failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}

		s.mu.Lock()
		s.channel = next
		s.mu.Unlock()

		// Resync: events published while disconnected are gone, so pull a
		// fresh snapshot to catch up. The merge guards make a stale or
		// overlapping snapshot harmless.
		if snap, err := s.api.FetchSnapshot(s.ctx, s.id); err == nil {
			if s.active.Load() {
				state := s.rec.ApplySnapshot(snap)
				s.gate.Observe(state)
			}
		} else {
			s.log.Warn("Snapshot resync after reconnect failed", zap.Error(err))
		}
		s.log.Info("Push channel reconnected", zap.Int("attempt", attempt))
		return next
	}
	s.log.Warn("Push channel reconnect attempts exhausted",
		zap.Int("attempts", s.policy.MaxAttempts),
	)
	return nil
}

// Close tears the session down: the push channel is closed, the run loop
// stops, and no further canonical-state writes occur. Idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.active.Store(false)
		s.cancel()
		s.mu.Lock()
		ch := s.channel
		s.mu.Unlock()
		if ch != nil {
			ch.Close()
		}
		s.log.Info("Session closed")
	})
}

// Done is closed when the run loop has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// State returns a copy of the latest canonical state.
func (s *Session) State() *research.WorkflowState { return s.rec.Current() }

// Completed reports the irreversible completion latch.
func (s *Session) Completed() bool { return s.rec.Completed() }

// Gate returns the approval gate for this session.
func (s *Session) Gate() *approval.Gate { return s.gate }

// Watch subscribes to published state updates. Callers must drain the
// channel and call Unwatch when done.
func (s *Session) Watch(buffer int) chan *research.WorkflowState {
	return s.rec.Subscribe(buffer)
}

// Unwatch removes a subscription created by Watch.
func (s *Session) Unwatch(ch chan *research.WorkflowState) {
	s.rec.Unsubscribe(ch)
}
