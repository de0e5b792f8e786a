package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/atelier-research/beacon/internal/research"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api", 2*time.Second, zaptest.NewLogger(t)), srv
}

func TestFetchSnapshot(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/research/r1/status", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":           "r1",
			"query":        "what is up",
			"status":       "running",
			"current_step": "planner",
			"progress": map[string]interface{}{
				"planner": map[string]interface{}{"status": "running", "progress": 10},
			},
		})
	}))

	state, err := c.FetchSnapshot(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", state.ID)
	assert.Equal(t, research.StatusRunning, state.Status)
	assert.Equal(t, research.StagePlanner, state.CurrentStage)
	assert.Equal(t, research.StageRunning, state.StageStatusOf(research.StagePlanner))
}

func TestFetchSnapshotNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Research not found"}`, http.StatusNotFound)
	}))

	_, err := c.FetchSnapshot(context.Background(), "nope")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "nope", nf.ID)
}

func TestFetchSnapshotTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(srv.URL+"/api", time.Second, zaptest.NewLogger(t))
	_, err := c.FetchSnapshot(context.Background(), "r1")
	var ne *NetworkError
	require.True(t, errors.As(err, &ne))
}

func TestApproveSourcesBody(t *testing.T) {
	var got struct {
		ResearchID        string `json:"research_id"`
		ApprovedSourceIDs []int  `json:"approved_source_ids"`
	}
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/research/r1/approve-sources", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "approved"})
	}))

	require.NoError(t, c.ApproveSources(context.Background(), "r1", []int{1, 3}))
	assert.Equal(t, "r1", got.ResearchID)
	assert.Equal(t, []int{1, 3}, got.ApprovedSourceIDs)
}

func TestApproveSourcesRejected(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"workflow is not waiting for approval"}`, http.StatusConflict)
	}))

	err := c.ApproveSources(context.Background(), "r1", []int{1})
	var rej *RemoteRejectionError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, http.StatusConflict, rej.StatusCode)
	assert.Contains(t, rej.Body, "not waiting")
}

func TestCreateResearch(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/research/create", r.URL.Path)
		var req CreateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "quantum computing", req.Query)
		assert.Equal(t, 10, req.MaxSources, "default applied")
		assert.Equal(t, "normal", req.SearchDepth)
		_ = json.NewEncoder(w).Encode(map[string]string{"research_id": "r-new"})
	}))

	id, err := c.CreateResearch(context.Background(), CreateRequest{Query: "quantum computing", EnableWeb: true})
	require.NoError(t, err)
	assert.Equal(t, "r-new", id)
}

func TestListResearch(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/research/list", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"id": "a", "query": "one", "status": "running"},
			{"id": "b", "query": "two", "status": "completed"},
		})
	}))

	out, err := c.ListResearch(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, research.StatusCompleted, out[1].Status)
}

func TestFetchBriefing(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/research/r1/briefing", r.URL.Path)
		_ = json.NewEncoder(w).Encode(research.Briefing{
			Content:  "text",
			Metadata: research.BriefingMetadata{SourcesUsed: 2, WordCount: 100, Citations: 4},
		})
	}))

	b, err := c.FetchBriefing(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, 4, b.Metadata.Citations)
}

func TestArchitecture(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/architecture":
			_, _ = w.Write([]byte(`{
				"overview": {"description": "multi-agent pipeline", "agents_count": 5, "workflow_type": "sequential"},
				"agents": [{"name": "Planner Agent", "role": "plans"}],
				"workflow": {"type": "Sequential Pipeline", "steps": ["a", "b"]}
			}`))
		case "/api/architecture/flow":
			_, _ = w.Write([]byte(`{
				"nodes": [{"id": "start", "label": "User Request", "type": "input"}],
				"edges": [{"from": "start", "to": "planner"}]
			}`))
		default:
			http.NotFound(w, r)
		}
	}))

	doc, err := c.Architecture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, doc.Overview.AgentsCount)
	require.Len(t, doc.Agents, 1)

	flow, err := c.ArchitectureFlow(context.Background())
	require.NoError(t, err)
	require.Len(t, flow.Edges, 1)
	assert.Equal(t, "planner", flow.Edges[0].To)
}

func TestHealth(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}))
	require.NoError(t, c.Health(context.Background()))
}
