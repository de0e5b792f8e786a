package main

import (
	"github.com/spf13/cobra"

	"github.com/atelier-research/beacon/internal/console"
)

func newArchCommand(cctx *commandContext) *cobra.Command {
	var flow bool

	cmd := &cobra.Command{
		Use:   "arch",
		Short: "Show the remote pipeline's architecture documentation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if flow {
				g, err := cctx.client.ArchitectureFlow(cmd.Context())
				if err != nil {
					return err
				}
				console.WriteFlow(out, g)
				return nil
			}
			doc, err := cctx.client.Architecture(cmd.Context())
			if err != nil {
				return err
			}
			console.WriteArchitecture(out, doc)
			return nil
		},
	}

	cmd.Flags().BoolVar(&flow, "flow", false, "Show the workflow graph instead of the full document")
	return cmd
}
