package main

import (
	"fmt"

	"github.com/aretw0/funnel/internal/presentation/graph"
	funnelcore "github.com/aretw0/funnel/pkg/funnel"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the funnel graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the funnel stages, the flags each stage writes
and the guard redirects. Progress flags, given directly or loaded for a visitor, are overlaid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		local, _ := cmd.Flags().GetStringToString("flags")
		session, _ := cmd.Flags().GetStringToString("session-flags")
		visitor, _ := cmd.Flags().GetString("visitor")

		var overlay *graph.GraphOverlay
		switch {
		case visitor != "":
			flags, closeFn, err := loadVisitor(cmd, visitor)
			if err != nil {
				return err
			}
			defer closeFn()
			overlay = graph.OverlayFor(funnelcore.State{VisitorID: visitor, Local: flags})
		case len(local) > 0 || len(session) > 0:
			overlay = graph.OverlayFor(funnelcore.State{Local: local, Session: session})
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringToString("flags", nil, "Local flags to overlay, e.g. playerName=Ana,hasCompletedContratacao=true")
	graphCmd.Flags().StringToString("session-flags", nil, "Session flags to overlay, e.g. fromVenda=true")
	graphCmd.Flags().String("visitor", "", "Overlay the stored progress of this visitor id")
	addStoreFlags(graphCmd)
}
