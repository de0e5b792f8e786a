package main

import (
	"github.com/spf13/cobra"

	"github.com/atelier-research/beacon/internal/api"
)

func newNewCommand(cctx *commandContext) *cobra.Command {
	var (
		maxSources  int
		searchDepth string
		noWeb       bool
		noWikipedia bool
		attach      bool
	)

	cmd := &cobra.Command{
		Use:   "new <query>",
		Short: "Start a new research workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cctx.client.CreateResearch(cmd.Context(), api.CreateRequest{
				Query:           args[0],
				MaxSources:      maxSources,
				SearchDepth:     searchDepth,
				EnableWeb:       !noWeb,
				EnableWikipedia: !noWikipedia,
			})
			if err != nil {
				return err
			}
			cmd.Println(id)
			if attach {
				attachCmd := newAttachCommand(cctx)
				attachCmd.SetContext(cmd.Context())
				return attachCmd.RunE(attachCmd, []string{id})
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxSources, "max-sources", 10, "Maximum number of sources to retrieve")
	cmd.Flags().StringVar(&searchDepth, "depth", "normal", "Search depth (normal or deep)")
	cmd.Flags().BoolVar(&noWeb, "no-web", false, "Disable web search")
	cmd.Flags().BoolVar(&noWikipedia, "no-wikipedia", false, "Disable Wikipedia search")
	cmd.Flags().BoolVar(&attach, "attach", false, "Attach to the workflow after starting it")

	return cmd
}
