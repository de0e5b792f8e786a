package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atelier-research/beacon/internal/approval"
	"github.com/atelier-research/beacon/internal/console"
	"github.com/atelier-research/beacon/internal/research"
	"github.com/atelier-research/beacon/internal/session"
)

func newAttachCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <research-id>",
		Short: "Follow a running research workflow and approve its sources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := cctx.client.Health(ctx); err != nil {
				cctx.logger.Warn("Service health check failed", zap.Error(err))
			}

			cfg := cctx.cfg
			policy := session.ReconnectPolicy{
				Enabled:        cfg.Push.Reconnect.Enabled,
				MaxAttempts:    cfg.Push.Reconnect.MaxAttempts,
				InitialBackoff: cfg.ReconnectInitialBackoff(),
				MaxBackoff:     cfg.ReconnectMaxBackoff(),
			}
			sess, err := session.Open(ctx, cctx.client, cfg.Push.URL, id, policy, cctx.logger)
			if err != nil {
				return fmt.Errorf("research %s unavailable: %w", id, err)
			}
			defer sess.Close()

			return runAttachLoop(ctx, cmd.OutOrStdout(), sess)
		},
	}
}

// runAttachLoop drives the interactive view: re-render on every published
// state, accept approval commands on stdin, and finish once the workflow
// completes or the stream ends.
func runAttachLoop(ctx context.Context, out io.Writer, sess *session.Session) error {
	updates := sess.Watch(16)
	defer sess.Unwatch(updates)

	input := make(chan string)
	go readLines(os.Stdin, input)

	state := sess.State()
	renderState(out, sess, state)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-sess.Done():
			renderFinal(out, sess)
			return nil

		case st, ok := <-updates:
			if !ok {
				return nil
			}
			state = st
			renderState(out, sess, state)
			if sess.Completed() {
				renderFinal(out, sess)
				return nil
			}

		case line, ok := <-input:
			if !ok {
				return nil
			}
			handleCommand(ctx, out, sess, state, line)
		}
	}
}

func readLines(r io.Reader, out chan<- string) {
	defer close(out)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		out <- sc.Text()
	}
}

func renderState(w io.Writer, sess *session.Session, state *research.WorkflowState) {
	fmt.Fprintln(w)
	console.WritePipeline(w, state)
	if state != nil && state.Status == research.StatusWaitingApproval && len(state.Sources) > 0 {
		fmt.Fprintln(w)
		console.WriteSources(w, state.Sources, sess.Gate().IsSelected)
		fmt.Fprintf(w, "%d of %d sources selected · commands: toggle <id> · all · none · approve\n",
			len(sess.Gate().Selected()), len(state.Sources))
	}
}

func renderFinal(w io.Writer, sess *session.Session) {
	state := sess.State()
	if sess.Completed() && state != nil && state.Briefing != nil {
		fmt.Fprintln(w)
		console.WriteBriefing(w, state.Briefing)
		return
	}
	fmt.Fprintln(w, "\nstream ended")
}

func handleCommand(ctx context.Context, w io.Writer, sess *session.Session, state *research.WorkflowState, line string) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(line)))
	if len(fields) == 0 {
		return
	}
	gate := sess.Gate()

	switch fields[0] {
	case "toggle":
		if len(fields) < 2 {
			fmt.Fprintln(w, "usage: toggle <source-id>")
			return
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Fprintf(w, "bad source id %q\n", fields[1])
			return
		}
		gate.Toggle(id)
	case "all":
		gate.SelectAll()
	case "none":
		gate.SelectNone()
	case "approve":
		if err := gate.Submit(ctx); err != nil {
			var pre *approval.PreconditionError
			if errors.As(err, &pre) {
				fmt.Fprintf(w, "cannot approve: %s\n", pre.Reason)
				return
			}
			fmt.Fprintf(w, "approval failed, selection kept, try again: %v\n", err)
			return
		}
		fmt.Fprintf(w, "approved %d sources, waiting for the pipeline to resume\n", len(gate.Selected()))
		return
	default:
		fmt.Fprintln(w, "commands: toggle <id> · all · none · approve")
		return
	}

	if state != nil && len(state.Sources) > 0 {
		console.WriteSources(w, state.Sources, gate.IsSelected)
		fmt.Fprintf(w, "%d of %d sources selected\n", len(gate.Selected()), len(state.Sources))
	}
}
