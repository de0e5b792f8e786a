package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-research/beacon/internal/research"
)

func TestDeriveNilStateIsAllPending(t *testing.T) {
	views := Derive(nil)
	require.Len(t, views, 5)
	for _, v := range views {
		assert.Equal(t, research.StagePending, v.Status)
		assert.False(t, v.Active)
	}
}

func TestDeriveFollowsPipelineOrder(t *testing.T) {
	views := Derive(&research.WorkflowState{})
	require.Len(t, views, 5)
	assert.Equal(t, research.StagePlanner, views[0].Stage)
	assert.Equal(t, research.StageRetrieval, views[1].Stage)
	assert.Equal(t, research.StageHumanApproval, views[2].Stage)
	assert.Equal(t, research.StageWriter, views[3].Stage)
	assert.Equal(t, research.StageCritic, views[4].Stage)
}

func TestDeriveMarksActiveStage(t *testing.T) {
	state := &research.WorkflowState{
		Status:       research.StatusRunning,
		CurrentStage: research.StageRetrieval,
		Progress: map[research.Stage]research.StageProgress{
			research.StagePlanner:   {Status: research.StageCompleted, Percent: 100},
			research.StageRetrieval: {Status: research.StageRunning, Percent: 40},
		},
	}
	views := Derive(state)

	assert.Equal(t, research.StageCompleted, views[0].Status)
	assert.False(t, views[0].Active)
	assert.Equal(t, research.StageRunning, views[1].Status)
	assert.True(t, views[1].Active)
	assert.Equal(t, 40, views[1].Percent)
	assert.Equal(t, research.StagePending, views[2].Status)
}

func TestTerminal(t *testing.T) {
	assert.False(t, Terminal(nil))

	state := &research.WorkflowState{Status: research.StatusCompleted}
	assert.False(t, Terminal(state), "completed status alone is not terminal")

	state.Progress = make(map[research.Stage]research.StageProgress)
	for _, stage := range research.Stages {
		state.Progress[stage] = research.StageProgress{Status: research.StageCompleted, Percent: 100}
	}
	assert.True(t, Terminal(state))

	state.Status = research.StatusRunning
	assert.False(t, Terminal(state))
}
