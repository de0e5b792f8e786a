package research

import "time"

// Status is the overall lifecycle status of a research workflow.
type Status string

const (
	StatusCreated         Status = "created"
	StatusRunning         Status = "running"
	StatusWaitingApproval Status = "waiting_approval"
	StatusCompleted       Status = "completed"
)

// Terminal reports whether the status is absorbing.
func (s Status) Terminal() bool { return s == StatusCompleted }

// Known reports whether the status is one of the defined lifecycle values.
func (s Status) Known() bool {
	switch s {
	case StatusCreated, StatusRunning, StatusWaitingApproval, StatusCompleted:
		return true
	}
	return false
}

// Stage names one step of the fixed-order research pipeline.
type Stage string

const (
	StagePlanner       Stage = "planner"
	StageRetrieval     Stage = "retrieval"
	StageHumanApproval Stage = "human_approval"
	StageWriter        Stage = "writer"
	StageCritic        Stage = "critic"
)

// Stages is the pipeline in execution order.
var Stages = []Stage{StagePlanner, StageRetrieval, StageHumanApproval, StageWriter, StageCritic}

// KnownStage reports whether s is one of the five pipeline stages.
func KnownStage(s Stage) bool {
	for _, st := range Stages {
		if st == s {
			return true
		}
	}
	return false
}

// StageStatus is the execution status of a single pipeline stage.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageCompleted StageStatus = "completed"
)

// Rank orders stage statuses for the monotonicity guard:
// pending < running < completed. Unknown values rank below pending
// so they can never displace a known status.
func (s StageStatus) Rank() int {
	switch s {
	case StagePending:
		return 1
	case StageRunning:
		return 2
	case StageCompleted:
		return 3
	}
	return 0
}

// StageProgress is the per-stage entry in a workflow's progress map.
// Percent is the 0-100 completion figure reported by the service.
type StageProgress struct {
	Status  StageStatus `json:"status"`
	Percent int         `json:"progress"`
}

// SourceType distinguishes where a source was retrieved from.
type SourceType string

const (
	SourceWeb  SourceType = "web"
	SourceWiki SourceType = "wiki"
)

// Source is one retrieved document candidate. Immutable once it appears
// in a workflow's source list.
type Source struct {
	ID      int        `json:"id"`
	Type    SourceType `json:"type"`
	Title   string     `json:"title"`
	Content string     `json:"content"`
	URL     string     `json:"source"`
}

// BriefingMetadata carries the summary figures attached to a briefing.
type BriefingMetadata struct {
	SourcesUsed int `json:"sources_used"`
	WordCount   int `json:"word_count"`
	Citations   int `json:"citations"`
}

// Briefing is the final written output of a completed workflow.
type Briefing struct {
	Content  string           `json:"content"`
	Metadata BriefingMetadata `json:"metadata"`
}

// WorkflowState is the canonical, reconciled view of one remote research
// workflow. A single reconciler writes it; everything else reads
// published copies.
type WorkflowState struct {
	ID           string                  `json:"id"`
	Query        string                  `json:"query"`
	Status       Status                  `json:"status"`
	CurrentStage Stage                   `json:"current_step,omitempty"`
	Progress     map[Stage]StageProgress `json:"progress,omitempty"`
	Sources      []Source                `json:"sources,omitempty"`
	Briefing     *Briefing               `json:"briefing,omitempty"`
}

// Clone returns a deep copy safe to hand to readers.
func (w *WorkflowState) Clone() *WorkflowState {
	if w == nil {
		return nil
	}
	cp := *w
	if w.Progress != nil {
		cp.Progress = make(map[Stage]StageProgress, len(w.Progress))
		for k, v := range w.Progress {
			cp.Progress[k] = v
		}
	}
	if w.Sources != nil {
		cp.Sources = make([]Source, len(w.Sources))
		copy(cp.Sources, w.Sources)
	}
	if w.Briefing != nil {
		b := *w.Briefing
		cp.Briefing = &b
	}
	return &cp
}

// StageStatusOf returns the status recorded for a stage, defaulting to
// pending when the progress map has no entry yet.
func (w *WorkflowState) StageStatusOf(s Stage) StageStatus {
	if w == nil || w.Progress == nil {
		return StagePending
	}
	p, ok := w.Progress[s]
	if !ok || p.Status == "" {
		return StagePending
	}
	return p.Status
}

// Summary is one row of the research listing endpoint.
type Summary struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Status    Status    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}
