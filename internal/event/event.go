package event

import (
	"encoding/json"
	"fmt"

	"github.com/atelier-research/beacon/internal/research"
)

// Type identifies a push event kind.
type Type string

const (
	TypeStatusUpdate Type = "status_update"
	TypeSourcesReady Type = "sources_ready"
	TypeCompleted    Type = "completed"
)

// Event is one decoded incremental update from the push channel. Only the
// fields present on the wire are populated; the reconciler ignores zero
// values.
type Event struct {
	Type         Type
	Status       research.Status
	CurrentStage research.Stage
	Progress     map[research.Stage]research.StageProgress
	Sources      []research.Source
	Briefing     *research.Briefing
}

// MalformedMessageError wraps a push message that could not be decoded or
// carried an unknown type. Such messages are logged and dropped; they never
// reach the reconciler.
type MalformedMessageError struct {
	Reason string
	Err    error
}

func (e *MalformedMessageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed push message: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed push message: %s", e.Reason)
}

func (e *MalformedMessageError) Unwrap() error { return e.Err }

// wireEvent mirrors the service's push message schema. The service nests
// per-stage entries under "progress" and may attach overall status and
// current_step alongside.
type wireEvent struct {
	Type         Type                              `json:"type"`
	Status       research.Status                   `json:"status"`
	CurrentStage research.Stage                    `json:"current_step"`
	Progress     map[string]research.StageProgress `json:"progress"`
	Sources      []research.Source                 `json:"sources"`
	Briefing     *research.Briefing                `json:"briefing"`
}

// Decode parses a raw push frame into an Event. Unknown stage keys in the
// progress map are skipped; an unparseable payload or unknown type yields a
// MalformedMessageError.
func Decode(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{}, &MalformedMessageError{Reason: "invalid JSON", Err: err}
	}
	switch w.Type {
	case TypeStatusUpdate, TypeSourcesReady, TypeCompleted:
	default:
		return Event{}, &MalformedMessageError{Reason: fmt.Sprintf("unknown type %q", w.Type)}
	}

	ev := Event{
		Type:         w.Type,
		Status:       w.Status,
		CurrentStage: w.CurrentStage,
		Sources:      w.Sources,
		Briefing:     w.Briefing,
	}
	if len(w.Progress) > 0 {
		ev.Progress = make(map[research.Stage]research.StageProgress, len(w.Progress))
		for k, v := range w.Progress {
			stage := research.Stage(k)
			if !research.KnownStage(stage) {
				continue
			}
			ev.Progress[stage] = v
		}
	}
	// A completed event is the service's terminal signal even when the
	// payload omits an explicit status.
	if ev.Type == TypeCompleted && ev.Status == "" {
		ev.Status = research.StatusCompleted
	}
	return ev, nil
}
