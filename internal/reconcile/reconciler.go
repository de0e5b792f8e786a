// Package reconcile folds the two asynchronously-arriving views of remote
// workflow state (pull snapshots and push events) into one canonical
// WorkflowState. The reconciler is the sole writer of that state; readers
// only ever see fully-merged published copies.
package reconcile

import (
	"sync"

	"go.uber.org/zap"

	"github.com/atelier-research/beacon/internal/event"
	"github.com/atelier-research/beacon/internal/metrics"
	"github.com/atelier-research/beacon/internal/research"
)

// Reconciler maintains the canonical WorkflowState for one research id and
// fans out published copies to subscribers.
type Reconciler struct {
	log *zap.Logger

	mu        sync.RWMutex
	state     *research.WorkflowState
	completed bool
	subs      map[chan *research.WorkflowState]struct{}
}

// New creates an empty Reconciler. The canonical state starts nil and is
// established by the first snapshot or event.
func New(logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		log:  logger,
		subs: make(map[chan *research.WorkflowState]struct{}),
	}
}

// ApplySnapshot merges a point-in-time snapshot into canonical state.
// Status, current stage, and progress are authoritative at the instant the
// snapshot was taken, but each field still passes its merge guard so a
// stale snapshot can neither regress a stage nor erase sources or a
// briefing that a faster push event already delivered.
func (r *Reconciler) ApplySnapshot(snap *research.WorkflowState) *research.WorkflowState {
	if snap == nil {
		return r.Current()
	}
	r.mu.Lock()
	cur := r.state
	if cur == nil {
		cur = &research.WorkflowState{ID: snap.ID, Query: snap.Query}
	}
	next := cur.Clone()
	if next.ID == "" {
		next.ID = snap.ID
	}
	if next.Query == "" {
		next.Query = snap.Query
	}
	next.Status = mergeStatus(cur.Status, snap.Status)
	next.CurrentStage = mergeCurrentStage(cur.CurrentStage, snap.CurrentStage)
	next.Progress = mergeProgress(cur.Progress, snap.Progress)
	next.Sources = mergeSources(cur.Sources, snap.Sources)
	next.Briefing = mergeBriefing(cur.Briefing, snap.Briefing)
	return r.publishLocked(next)
}

// ApplyEvent merges one incremental push event into canonical state,
// touching only the fields the event carries.
func (r *Reconciler) ApplyEvent(ev event.Event) *research.WorkflowState {
	r.mu.Lock()
	cur := r.state
	if cur == nil {
		cur = &research.WorkflowState{}
	}
	next := cur.Clone()
	next.Status = mergeStatus(cur.Status, ev.Status)
	next.CurrentStage = mergeCurrentStage(cur.CurrentStage, ev.CurrentStage)
	next.Progress = mergeProgress(cur.Progress, ev.Progress)
	next.Sources = mergeSources(cur.Sources, ev.Sources)
	next.Briefing = mergeBriefing(cur.Briefing, ev.Briefing)
	return r.publishLocked(next)
}

// publishLocked installs next as canonical state, updates the completion
// latch, and fans a copy out to subscribers. Callers must hold r.mu; it is
// released here.
func (r *Reconciler) publishLocked(next *research.WorkflowState) *research.WorkflowState {
	r.state = next
	if next.Status == research.StatusCompleted && !r.completed {
		r.completed = true
		r.log.Info("Workflow completed", zap.String("research_id", next.ID))
	}
	out := next.Clone()
	subs := make([]chan *research.WorkflowState, 0, len(r.subs))
	for ch := range r.subs {
		subs = append(subs, ch)
	}
	r.mu.Unlock()

	metrics.StatePublished.Inc()
	for _, ch := range subs {
		select {
		case ch <- out.Clone():
		default:
			// Drop if subscriber is slow; Current() always has the latest.
		}
	}
	return out
}

// Current returns a copy of the latest canonical state, or nil if nothing
// has been applied yet.
func (r *Reconciler) Current() *research.WorkflowState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Clone()
}

// Completed reports the one-way completion latch. Once canonical status has
// been observed as completed it stays true for the life of the instance,
// regardless of later input.
func (r *Reconciler) Completed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.completed
}

// Subscribe registers a channel receiving a copy of each published state.
// The caller must drain it and call Unsubscribe when done.
func (r *Reconciler) Subscribe(buffer int) chan *research.WorkflowState {
	ch := make(chan *research.WorkflowState, buffer)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (r *Reconciler) Unsubscribe(ch chan *research.WorkflowState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[ch]; ok {
		delete(r.subs, ch)
		close(ch)
	}
}
