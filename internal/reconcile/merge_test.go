package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atelier-research/beacon/internal/research"
)

func TestMergeStatus(t *testing.T) {
	tests := []struct {
		name string
		cur  research.Status
		in   research.Status
		want research.Status
	}{
		{"empty incoming keeps current", research.StatusRunning, "", research.StatusRunning},
		{"unknown incoming keeps current", research.StatusRunning, "exploded", research.StatusRunning},
		{"initial adoption", "", research.StatusCreated, research.StatusCreated},
		{"created to running", research.StatusCreated, research.StatusRunning, research.StatusRunning},
		{"running to waiting", research.StatusRunning, research.StatusWaitingApproval, research.StatusWaitingApproval},
		{"waiting back to running", research.StatusWaitingApproval, research.StatusRunning, research.StatusRunning},
		{"completed is absorbing", research.StatusCompleted, research.StatusRunning, research.StatusCompleted},
		{"created never reasserts", research.StatusRunning, research.StatusCreated, research.StatusRunning},
		{"running to completed", research.StatusRunning, research.StatusCompleted, research.StatusCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeStatus(tt.cur, tt.in))
		})
	}
}

func TestMergeStageRejectsRegression(t *testing.T) {
	cur := research.StageProgress{Status: research.StageCompleted, Percent: 100}

	got := mergeStage(research.StageCritic, cur, research.StageProgress{Status: research.StageRunning, Percent: 40})
	assert.Equal(t, cur, got, "running must not displace completed")

	got = mergeStage(research.StageCritic, cur, research.StageProgress{Status: research.StagePending})
	assert.Equal(t, cur, got, "pending must not displace completed")
}

func TestMergeStageAdvances(t *testing.T) {
	cur := research.StageProgress{Status: research.StagePending}

	got := mergeStage(research.StagePlanner, cur, research.StageProgress{Status: research.StageRunning, Percent: 20})
	assert.Equal(t, research.StageRunning, got.Status)
	assert.Equal(t, 20, got.Percent)

	got = mergeStage(research.StagePlanner, got, research.StageProgress{Status: research.StageRunning, Percent: 10})
	assert.Equal(t, 20, got.Percent, "percent only ever grows")

	got = mergeStage(research.StagePlanner, got, research.StageProgress{Status: research.StageCompleted, Percent: 100})
	assert.Equal(t, research.StageCompleted, got.Status)
	assert.Equal(t, 100, got.Percent)
}

func TestMergeProgressKeepsUntouchedStages(t *testing.T) {
	cur := map[research.Stage]research.StageProgress{
		research.StagePlanner:   {Status: research.StageCompleted, Percent: 100},
		research.StageRetrieval: {Status: research.StageRunning, Percent: 50},
	}
	in := map[research.Stage]research.StageProgress{
		research.StageRetrieval:     {Status: research.StageCompleted, Percent: 100},
		research.StageHumanApproval: {Status: research.StageRunning},
	}

	got := mergeProgress(cur, in)
	assert.Equal(t, research.StageCompleted, got[research.StagePlanner].Status)
	assert.Equal(t, research.StageCompleted, got[research.StageRetrieval].Status)
	assert.Equal(t, research.StageRunning, got[research.StageHumanApproval].Status)

	// Input map untouched
	assert.Equal(t, research.StageRunning, cur[research.StageRetrieval].Status)
}

func TestMergeSourcesSetOnce(t *testing.T) {
	first := []research.Source{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}}

	assert.Equal(t, first, mergeSources(nil, first))
	assert.Equal(t, first, mergeSources(first, nil), "empty incoming never erases")
	assert.Equal(t, first, mergeSources(first, []research.Source{}), "empty list never erases")

	replacement := []research.Source{{ID: 9}}
	assert.Equal(t, first, mergeSources(first, replacement), "sources are set at most once")
}

func TestMergeBriefingSetOnce(t *testing.T) {
	b := &research.Briefing{Content: "final"}
	assert.Equal(t, b, mergeBriefing(nil, b))
	assert.Equal(t, b, mergeBriefing(b, &research.Briefing{Content: "other"}))
	assert.Equal(t, b, mergeBriefing(b, nil))
}

func TestMergeCurrentStage(t *testing.T) {
	assert.Equal(t, research.StageWriter, mergeCurrentStage(research.StageRetrieval, research.StageWriter))
	assert.Equal(t, research.StageRetrieval, mergeCurrentStage(research.StageRetrieval, ""))
	assert.Equal(t, research.StageRetrieval, mergeCurrentStage(research.StageRetrieval, "unknown_stage"))
}
