// Package pipeline derives the per-stage view of the research pipeline
// from canonical state. It keeps no state of its own: every call recomputes
// from the reconciler's output, so the view can never drift from it.
package pipeline

import "github.com/atelier-research/beacon/internal/research"

// StageView is the derived display state of one pipeline stage.
type StageView struct {
	Stage   research.Stage
	Status  research.StageStatus
	Percent int
	Active  bool
}

// Derive computes the view of all five stages in pipeline order. A nil
// state yields all stages pending, the initial presentation.
func Derive(state *research.WorkflowState) []StageView {
	views := make([]StageView, 0, len(research.Stages))
	for _, stage := range research.Stages {
		v := StageView{Stage: stage, Status: research.StagePending}
		if state != nil {
			if p, ok := state.Progress[stage]; ok && p.Status != "" {
				v.Status = p.Status
				v.Percent = p.Percent
			}
			v.Active = state.CurrentStage == stage
		}
		views = append(views, v)
	}
	return views
}

// Terminal reports whether the pipeline has reached its terminal state:
// overall status completed and every stage completed.
func Terminal(state *research.WorkflowState) bool {
	if state == nil || state.Status != research.StatusCompleted {
		return false
	}
	for _, stage := range research.Stages {
		if state.StageStatusOf(stage) != research.StageCompleted {
			return false
		}
	}
	return true
}
