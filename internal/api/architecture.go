package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// ArchitectureDoc is the service's self-describing architecture document,
// served for the documentation view.
type ArchitectureDoc struct {
	Overview struct {
		Description  string `json:"description"`
		AgentsCount  int    `json:"agents_count"`
		WorkflowType string `json:"workflow_type"`
	} `json:"overview"`
	Agents []ArchitectureAgent `json:"agents"`
	Workflow struct {
		Type  string   `json:"type"`
		Steps []string `json:"steps"`
	} `json:"workflow"`
	Technologies map[string]json.RawMessage `json:"technologies"`
	Features     map[string]string          `json:"features"`
}

// ArchitectureAgent describes one agent in the remote pipeline.
type ArchitectureAgent struct {
	Name   string   `json:"name"`
	Role   string   `json:"role"`
	Input  string   `json:"input"`
	Output string   `json:"output"`
	LLM    string   `json:"llm,omitempty"`
	Tools  []string `json:"tools,omitempty"`
	Type   string   `json:"type,omitempty"`
	Icon   string   `json:"icon,omitempty"`
}

// FlowNode is one node of the workflow visualization graph.
type FlowNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// FlowEdge is one directed edge of the workflow visualization graph.
type FlowEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// FlowGraph is the workflow flow served for visualization.
type FlowGraph struct {
	Nodes []FlowNode `json:"nodes"`
	Edges []FlowEdge `json:"edges"`
}

// Architecture retrieves the architecture documentation.
func (c *Client) Architecture(ctx context.Context) (*ArchitectureDoc, error) {
	url := c.base + "/architecture"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{Op: "fetch architecture", URL: url, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "fetch architecture", URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteRejectionError{Op: "fetch architecture", StatusCode: resp.StatusCode, Body: readBody(resp.Body)}
	}
	var doc ArchitectureDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, &NetworkError{Op: "decode architecture", URL: url, Err: err}
	}
	return &doc, nil
}

// ArchitectureFlow retrieves the workflow graph for visualization.
func (c *Client) ArchitectureFlow(ctx context.Context) (*FlowGraph, error) {
	url := c.base + "/architecture/flow"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{Op: "fetch architecture flow", URL: url, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "fetch architecture flow", URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteRejectionError{Op: "fetch architecture flow", StatusCode: resp.StatusCode, Body: readBody(resp.Body)}
	}
	var g FlowGraph
	if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
		return nil, &NetworkError{Op: "decode architecture flow", URL: url, Err: err}
	}
	return &g, nil
}
