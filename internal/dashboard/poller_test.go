package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/atelier-research/beacon/internal/research"
)

type fakeLister struct {
	mu        sync.Mutex
	summaries []research.Summary
	errs      []error
	calls     int
}

func (f *fakeLister) ListResearch(_ context.Context) ([]research.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.summaries, nil
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestComputeStats(t *testing.T) {
	tests := []struct {
		name      string
		summaries []research.Summary
		want      Stats
	}{
		{"empty", nil, Stats{}},
		{
			"mixed",
			[]research.Summary{
				{ID: "a", Status: research.StatusRunning},
				{ID: "b", Status: research.StatusWaitingApproval},
				{ID: "c", Status: research.StatusCompleted},
				{ID: "d", Status: research.StatusCompleted},
			},
			Stats{Total: 4, Active: 2, Completed: 2},
		},
		{
			"created counts as active",
			[]research.Summary{{ID: "a", Status: research.StatusCreated}},
			Stats{Total: 1, Active: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStats(tt.summaries))
		})
	}
}

func TestPollerEmitsSnapshots(t *testing.T) {
	lister := &fakeLister{summaries: []research.Summary{
		{ID: "a", Query: "one", Status: research.StatusRunning},
		{ID: "b", Query: "two", Status: research.StatusCompleted},
	}}
	p := NewPoller(lister, 20*time.Millisecond, zaptest.NewLogger(t))
	out := p.Start(context.Background())
	defer p.Stop()

	snap, ok := <-out
	require.True(t, ok)
	assert.Equal(t, Stats{Total: 2, Active: 1, Completed: 1}, snap.Stats)
	require.Len(t, snap.Summaries, 2)

	// The loop keeps emitting on the base interval while work is active.
	select {
	case _, ok := <-out:
		require.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("no second snapshot")
	}
}

func TestPollerSkipsFailedPolls(t *testing.T) {
	lister := &fakeLister{
		summaries: []research.Summary{{ID: "a", Status: research.StatusRunning}},
		errs:      []error{errors.New("listing unavailable")},
	}
	p := NewPoller(lister, 10*time.Millisecond, zaptest.NewLogger(t))
	out := p.Start(context.Background())
	defer p.Stop()

	snap, ok := <-out
	require.True(t, ok, "failed poll is skipped, next success is delivered")
	assert.Equal(t, 1, snap.Stats.Total)
	assert.GreaterOrEqual(t, lister.callCount(), 2)
}

func TestPollerStopClosesChannel(t *testing.T) {
	lister := &fakeLister{}
	p := NewPoller(lister, 10*time.Millisecond, zaptest.NewLogger(t))
	out := p.Start(context.Background())

	<-out
	p.Stop()
	p.Stop() // idempotent

	for range out {
	}
}

func TestStopWithoutStart(t *testing.T) {
	p := NewPoller(&fakeLister{}, time.Second, nil)
	p.Stop()
}

func TestPollerHonorsContextCancel(t *testing.T) {
	lister := &fakeLister{}
	p := NewPoller(lister, 10*time.Millisecond, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	out := p.Start(ctx)
	<-out
	cancel()

	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
		t.Fatal("poll loop did not exit on context cancel")
	}
}
