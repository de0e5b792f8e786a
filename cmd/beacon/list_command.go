package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/atelier-research/beacon/internal/console"
	"github.com/atelier-research/beacon/internal/dashboard"
)

func newListCommand(cctx *commandContext) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List research workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if !watch {
				summaries, err := cctx.client.ListResearch(cmd.Context())
				if err != nil {
					return err
				}
				console.WriteSummaries(out, summaries, dashboard.ComputeStats(summaries))
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			poller := dashboard.NewPoller(cctx.client, cctx.cfg.PollInterval(), cctx.logger)
			snapshots := poller.Start(ctx)
			defer poller.Stop()

			for snap := range snapshots {
				console.WriteSummaries(out, snap.Summaries, snap.Stats)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep refreshing until interrupted")
	return cmd
}
