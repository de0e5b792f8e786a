package reconcile

import (
	"github.com/atelier-research/beacon/internal/metrics"
	"github.com/atelier-research/beacon/internal/research"
)

// mergeStatus applies the lifecycle guard: an empty or unknown incoming
// status never wins, completed is absorbing, and created never re-asserts
// itself once the workflow has moved on.
func mergeStatus(cur, in research.Status) research.Status {
	if in == "" || !in.Known() {
		return cur
	}
	if cur == research.StatusCompleted {
		return cur
	}
	if in == research.StatusCreated && cur != "" && cur != research.StatusCreated {
		return cur
	}
	return in
}

// mergeStage enforces per-stage monotonicity under pending < running <
// completed. A transition that would regress the stage is rejected, which
// protects against delayed out-of-order events re-asserting an earlier
// status. The percent figure only ever grows.
func mergeStage(stage research.Stage, cur, in research.StageProgress) research.StageProgress {
	if in.Status.Rank() < cur.Status.Rank() {
		metrics.ProgressRegressionsRejected.WithLabelValues(string(stage)).Inc()
		return cur
	}
	out := research.StageProgress{Status: in.Status, Percent: in.Percent}
	if out.Status == "" {
		out.Status = cur.Status
	}
	if cur.Percent > out.Percent {
		out.Percent = cur.Percent
	}
	return out
}

// mergeProgress folds an incoming progress map into the current one,
// stage by stage through mergeStage. Entries are only ever created or
// advanced, never removed.
func mergeProgress(cur, in map[research.Stage]research.StageProgress) map[research.Stage]research.StageProgress {
	if len(in) == 0 {
		return cur
	}
	out := make(map[research.Stage]research.StageProgress, len(research.Stages))
	for k, v := range cur {
		out[k] = v
	}
	for stage, p := range in {
		out[stage] = mergeStage(stage, out[stage], p)
	}
	return out
}

// mergeSources implements set-once semantics: the first non-empty list
// wins and is never shrunk, reordered, or replaced afterwards. A stale
// snapshot carrying an empty list cannot erase sources a faster push
// event already delivered.
func mergeSources(cur, in []research.Source) []research.Source {
	if len(cur) > 0 {
		return cur
	}
	return in
}

// mergeBriefing is set-once: a briefing already present is never replaced.
func mergeBriefing(cur, in *research.Briefing) *research.Briefing {
	if cur != nil {
		return cur
	}
	return in
}

// mergeCurrentStage takes a non-empty, known incoming stage name,
// otherwise keeps the current one.
func mergeCurrentStage(cur, in research.Stage) research.Stage {
	if in == "" || !research.KnownStage(in) {
		return cur
	}
	return in
}
