// Package approval owns the user's pending source selection and the
// submission that unblocks the remote pipeline. The gate never mutates
// canonical state: the effect of an accepted approval arrives back through
// the normal synchronization path.
package approval

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/atelier-research/beacon/internal/research"
)

// PreconditionError is returned by Submit when the selection set is empty.
// No remote call is made in that case.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string { return e.Reason }

// Submitter issues the one-shot approval request to the remote service.
// *api.Client satisfies it.
type Submitter interface {
	ApproveSources(ctx context.Context, id string, sourceIDs []int) error
}

// Gate tracks which discovered sources the user has kept selected and
// submits the approval decision. Selection defaults to everything: as soon
// as sources arrive while the workflow waits for approval, all of them are
// selected and the user deselects what they do not want.
type Gate struct {
	researchID string
	submitter  Submitter
	log        *zap.Logger

	mu           sync.Mutex
	sources      []research.Source
	selected     map[int]struct{}
	autoSelected bool
}

// NewGate creates a Gate for one research id.
func NewGate(researchID string, submitter Submitter, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		researchID: researchID,
		submitter:  submitter,
		log:        logger,
		selected:   make(map[int]struct{}),
	}
}

// Observe feeds the gate a freshly published canonical state. The first
// time sources are present while the workflow is waiting for approval,
// every source id is auto-selected; later observations never override the
// user's adjustments.
func (g *Gate) Observe(state *research.WorkflowState) {
	if state == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(state.Sources) > 0 {
		g.sources = state.Sources
	}
	if g.autoSelected || len(g.sources) == 0 || state.Status != research.StatusWaitingApproval {
		return
	}
	for _, s := range g.sources {
		g.selected[s.ID] = struct{}{}
	}
	g.autoSelected = true
	g.log.Info("Auto-selected sources for approval",
		zap.String("research_id", g.researchID),
		zap.Int("count", len(g.sources)),
	)
}

// Toggle flips the selection of one source id. Ids not present in the
// current source list are ignored; returns whether the id is selected
// after the call.
func (g *Gate) Toggle(sourceID int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.hasSourceLocked(sourceID) {
		return false
	}
	if _, ok := g.selected[sourceID]; ok {
		delete(g.selected, sourceID)
		return false
	}
	g.selected[sourceID] = struct{}{}
	return true
}

// SelectAll selects every known source.
func (g *Gate) SelectAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, s := range g.sources {
		g.selected[s.ID] = struct{}{}
	}
}

// SelectNone clears the selection.
func (g *Gate) SelectNone() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.selected = make(map[int]struct{})
}

// Selected returns the selected ids in source-list order.
func (g *Gate) Selected() []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.selectedLocked()
}

// IsSelected reports whether a single source id is selected.
func (g *Gate) IsSelected(sourceID int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.selected[sourceID]
	return ok
}

// Submit sends the approval decision for the current selection. An empty
// selection returns a PreconditionError without contacting the remote. A
// failed remote call is returned for user-facing display and leaves the
// selection untouched, so resubmission is safe.
func (g *Gate) Submit(ctx context.Context) error {
	g.mu.Lock()
	ids := g.selectedLocked()
	g.mu.Unlock()

	if len(ids) == 0 {
		return &PreconditionError{Reason: "no sources selected"}
	}
	if err := g.submitter.ApproveSources(ctx, g.researchID, ids); err != nil {
		g.log.Warn("Approval submission failed",
			zap.String("research_id", g.researchID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (g *Gate) hasSourceLocked(sourceID int) bool {
	for _, s := range g.sources {
		if s.ID == sourceID {
			return true
		}
	}
	return false
}

func (g *Gate) selectedLocked() []int {
	ids := make([]int, 0, len(g.selected))
	for _, s := range g.sources {
		if _, ok := g.selected[s.ID]; ok {
			ids = append(ids, s.ID)
		}
	}
	return ids
}
