package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atelier-research/beacon/internal/metrics"
	"github.com/atelier-research/beacon/internal/research"
)

// Client is a minimal HTTP client for the research service.
type Client struct {
	base string
	http *http.Client
	log  *zap.Logger
}

// NewClient creates a Client rooted at baseURL (e.g. http://localhost:8002/api).
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base: baseURL,
		http: &http.Client{Timeout: timeout},
		log:  logger,
	}
}

// FetchSnapshot performs a single GET of the current workflow state.
// No retry, no caching: a transport failure yields a NetworkError and an
// unknown id yields a NotFoundError, both terminal for the caller's view.
func (c *Client) FetchSnapshot(ctx context.Context, id string) (*research.WorkflowState, error) {
	url := fmt.Sprintf("%s/research/%s/status", c.base, id)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{Op: "fetch snapshot", URL: url, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.SnapshotsFetched.WithLabelValues("error").Inc()
		return nil, &NetworkError{Op: "fetch snapshot", URL: url, Err: err}
	}
	defer resp.Body.Close()
	metrics.SnapshotDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode == http.StatusNotFound {
		metrics.SnapshotsFetched.WithLabelValues("not_found").Inc()
		return nil, &NotFoundError{ID: id}
	}
	if resp.StatusCode != http.StatusOK {
		metrics.SnapshotsFetched.WithLabelValues("error").Inc()
		return nil, &RemoteRejectionError{Op: "fetch snapshot", StatusCode: resp.StatusCode, Body: readBody(resp.Body)}
	}

	var state research.WorkflowState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		metrics.SnapshotsFetched.WithLabelValues("error").Inc()
		return nil, &NetworkError{Op: "decode snapshot", URL: url, Err: err}
	}
	if state.ID == "" {
		state.ID = id
	}
	metrics.SnapshotsFetched.WithLabelValues("ok").Inc()
	c.log.Debug("Fetched workflow snapshot",
		zap.String("research_id", id),
		zap.String("status", string(state.Status)),
	)
	return &state, nil
}

// approveRequest is the approval submission payload.
type approveRequest struct {
	ResearchID        string `json:"research_id"`
	ApprovedSourceIDs []int  `json:"approved_source_ids"`
}

// ApproveSources submits the approval decision that unblocks the remote
// pipeline. The caller is responsible for the non-empty precondition; this
// method only reports transport and rejection failures.
func (c *Client) ApproveSources(ctx context.Context, id string, sourceIDs []int) error {
	url := fmt.Sprintf("%s/research/%s/approve-sources", c.base, id)
	body, _ := json.Marshal(approveRequest{ResearchID: id, ApprovedSourceIDs: sourceIDs})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &NetworkError{Op: "approve sources", URL: url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ApprovalsSubmitted.WithLabelValues("error").Inc()
		return &NetworkError{Op: "approve sources", URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.ApprovalsSubmitted.WithLabelValues("rejected").Inc()
		return &RemoteRejectionError{Op: "approve sources", StatusCode: resp.StatusCode, Body: readBody(resp.Body)}
	}
	metrics.ApprovalsSubmitted.WithLabelValues("ok").Inc()
	c.log.Info("Approval submitted",
		zap.String("research_id", id),
		zap.Int("approved_sources", len(sourceIDs)),
	)
	return nil
}

// CreateRequest holds the new-research form fields.
type CreateRequest struct {
	Query           string `json:"query"`
	MaxSources      int    `json:"max_sources"`
	SearchDepth     string `json:"search_depth"`
	EnableWeb       bool   `json:"enable_web"`
	EnableWikipedia bool   `json:"enable_wikipedia"`
}

type createResponse struct {
	ResearchID string `json:"research_id"`
}

// CreateResearch starts a new workflow and returns its id.
func (c *Client) CreateResearch(ctx context.Context, reqBody CreateRequest) (string, error) {
	if reqBody.MaxSources <= 0 {
		reqBody.MaxSources = 10
	}
	if reqBody.SearchDepth == "" {
		reqBody.SearchDepth = "normal"
	}
	url := c.base + "/research/create"
	body, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &NetworkError{Op: "create research", URL: url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &NetworkError{Op: "create research", URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &RemoteRejectionError{Op: "create research", StatusCode: resp.StatusCode, Body: readBody(resp.Body)}
	}
	var out createResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &NetworkError{Op: "decode create response", URL: url, Err: err}
	}
	return out.ResearchID, nil
}

// ListResearch enumerates known workflow instances.
func (c *Client) ListResearch(ctx context.Context) ([]research.Summary, error) {
	url := c.base + "/research/list"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{Op: "list research", URL: url, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.DashboardPolls.WithLabelValues("error").Inc()
		return nil, &NetworkError{Op: "list research", URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.DashboardPolls.WithLabelValues("error").Inc()
		return nil, &RemoteRejectionError{Op: "list research", StatusCode: resp.StatusCode, Body: readBody(resp.Body)}
	}
	var out []research.Summary
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.DashboardPolls.WithLabelValues("error").Inc()
		return nil, &NetworkError{Op: "decode research list", URL: url, Err: err}
	}
	metrics.DashboardPolls.WithLabelValues("ok").Inc()
	return out, nil
}

// FetchBriefing retrieves the final briefing for a completed workflow.
func (c *Client) FetchBriefing(ctx context.Context, id string) (*research.Briefing, error) {
	url := fmt.Sprintf("%s/research/%s/briefing", c.base, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{Op: "fetch briefing", URL: url, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "fetch briefing", URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{ID: id}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteRejectionError{Op: "fetch briefing", StatusCode: resp.StatusCode, Body: readBody(resp.Body)}
	}
	var b research.Briefing
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		return nil, &NetworkError{Op: "decode briefing", URL: url, Err: err}
	}
	return &b, nil
}

// Health checks service liveness.
func (c *Client) Health(ctx context.Context) error {
	url := c.base + "/health"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &NetworkError{Op: "health check", URL: url, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: "health check", URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &RemoteRejectionError{Op: "health check", StatusCode: resp.StatusCode, Body: readBody(resp.Body)}
	}
	return nil
}

func readBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 2048))
	return string(bytes.TrimSpace(b))
}
