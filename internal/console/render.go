// Package console renders workflow state for the terminal. It is the
// presentation seam around the synchronization engine: everything here
// reads published state copies and owns no state of its own.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/atelier-research/beacon/internal/api"
	"github.com/atelier-research/beacon/internal/dashboard"
	"github.com/atelier-research/beacon/internal/pipeline"
	"github.com/atelier-research/beacon/internal/research"
)

var stageLabels = map[research.Stage]string{
	research.StagePlanner:       "Planner Agent",
	research.StageRetrieval:     "Retrieval Agent",
	research.StageHumanApproval: "Human Approval",
	research.StageWriter:        "Writer Agent",
	research.StageCritic:        "Critic Agent",
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	return tw
}

// WritePipeline renders the five-stage pipeline with the active stage
// marked and per-stage status.
func WritePipeline(w io.Writer, state *research.WorkflowState) {
	if state != nil && state.Query != "" {
		fmt.Fprintf(w, "%s\n", state.Query)
		fmt.Fprintf(w, "research id: %s · status: %s\n\n", state.ID, state.Status)
	}

	tw := newTable(w)
	tw.AppendHeader(table.Row{"", "Stage", "Status", "%"})
	for _, v := range pipeline.Derive(state) {
		marker := ""
		if v.Active {
			marker = "▶"
		}
		tw.AppendRow(table.Row{marker, stageLabels[v.Stage], string(v.Status), v.Percent})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
	})
	tw.Render()
}

// WriteSources renders the source approval table. selected reports whether
// a source id is currently in the approval selection.
func WriteSources(w io.Writer, sources []research.Source, selected func(int) bool) {
	tw := newTable(w)
	tw.AppendHeader(table.Row{"Sel", "ID", "Type", "Title", "URL"})
	for _, s := range sources {
		mark := "[ ]"
		if selected(s.ID) {
			mark = "[x]"
		}
		tw.AppendRow(table.Row{mark, s.ID, string(s.Type), truncate(s.Title, 48), truncate(s.URL, 60)})
	}
	tw.Render()
}

// WriteBriefing renders the final briefing and its metadata.
func WriteBriefing(w io.Writer, b *research.Briefing) {
	if b == nil {
		return
	}
	fmt.Fprintln(w, strings.TrimSpace(b.Content))
	fmt.Fprintf(w, "\nsources used: %d · words: %d · citations: %d\n",
		b.Metadata.SourcesUsed, b.Metadata.WordCount, b.Metadata.Citations)
}

// WriteSummaries renders the dashboard listing with aggregate stats.
func WriteSummaries(w io.Writer, summaries []research.Summary, stats dashboard.Stats) {
	fmt.Fprintf(w, "total: %d · active: %d · completed: %d\n\n",
		stats.Total, stats.Active, stats.Completed)

	tw := newTable(w)
	tw.AppendHeader(table.Row{"ID", "Query", "Status", "Started"})
	for _, s := range summaries {
		started := ""
		if !s.StartedAt.IsZero() {
			started = s.StartedAt.Format("2006-01-02 15:04")
		}
		tw.AppendRow(table.Row{s.ID, truncate(s.Query, 56), string(s.Status), started})
	}
	tw.Render()
}

// WriteArchitecture renders the service's architecture documentation.
func WriteArchitecture(w io.Writer, doc *api.ArchitectureDoc) {
	if doc == nil {
		return
	}
	fmt.Fprintf(w, "%s (%s, %d agents)\n\n",
		doc.Overview.Description, doc.Overview.WorkflowType, doc.Overview.AgentsCount)

	tw := newTable(w)
	tw.AppendHeader(table.Row{"Agent", "Role", "Output"})
	for _, a := range doc.Agents {
		tw.AppendRow(table.Row{a.Name, truncate(a.Role, 48), truncate(a.Output, 40)})
	}
	tw.Render()

	if len(doc.Workflow.Steps) > 0 {
		fmt.Fprintln(w)
		for _, step := range doc.Workflow.Steps {
			fmt.Fprintf(w, "  %s\n", step)
		}
	}
}

// WriteFlow renders the workflow graph edges.
func WriteFlow(w io.Writer, g *api.FlowGraph) {
	if g == nil {
		return
	}
	labels := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		labels[n.ID] = n.Label
	}
	for _, e := range g.Edges {
		fmt.Fprintf(w, "  %s → %s\n", labels[e.From], labels[e.To])
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
