package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/persistence/middleware"
	"github.com/aretw0/funnel/pkg/session"
	"github.com/spf13/cobra"
)

var visitorsCmd = &cobra.Command{
	Use:   "visitors",
	Short: "Manage stored visitor progress",
	Long:  `List, inspect and remove the long-lived flags of visitors in the file or Redis store.`,
}

var visitorsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all visitors",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, closeFn, err := openVisitors(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		ids, err := mgr.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing visitors: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No visitors found.")
			return nil
		}
		fmt.Fprintln(out, "Visitors:")
		for _, id := range ids {
			fmt.Fprintln(out, "- "+id)
		}
		return nil
	},
}

var visitorsInspectCmd = &cobra.Command{
	Use:   "inspect <visitor-id>",
	Short: "Print the flags of a visitor",
	Long:  `Prints the visitor's flags as JSON. Contact data is masked unless --reveal is set.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, closeFn, err := loadVisitor(cmd, args[0])
		if err != nil {
			return err
		}
		defer closeFn()

		if reveal, _ := cmd.Flags().GetBool("reveal"); !reveal {
			flags = middleware.MaskFlags(flags, middleware.DefaultPIIPatterns)
		}

		data, err := json.MarshalIndent(flags, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling flags: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var visitorsRmCmd = &cobra.Command{
	Use:   "rm <visitor-id>...",
	Short: "Remove one or more visitors",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, closeFn, err := openVisitors(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		out := cmd.OutOrStdout()
		failed := 0
		for _, id := range args {
			if err := mgr.Delete(cmd.Context(), id); err != nil {
				fmt.Fprintf(out, "Error removing '%s': %v\n", id, err)
				failed++
				continue
			}
			fmt.Fprintf(out, "Removed visitor '%s'\n", id)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d visitors not removed", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(visitorsCmd)
	visitorsCmd.AddCommand(visitorsLsCmd)
	visitorsCmd.AddCommand(visitorsInspectCmd)
	visitorsCmd.AddCommand(visitorsRmCmd)
	addStoreFlags(visitorsLsCmd, visitorsInspectCmd, visitorsRmCmd)
	visitorsInspectCmd.Flags().Bool("reveal", false, "Show contact data instead of masking it")
}

func addStoreFlags(cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.Flags().String("store", "file", "Flag store: file or redis")
		c.Flags().String("data-dir", ".funnel", "Directory of the file store")
	}
}

// openVisitors opens the local scope through the same middleware the server uses,
// so encrypted contact flags read back in plain text.
func openVisitors(cmd *cobra.Command) (*session.Manager, func() error, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	kind, _ := cmd.Flags().GetString("store")
	dataDir, _ := cmd.Flags().GetString("data-dir")

	st, err := openStores(cfg, kind, dataDir)
	if err != nil {
		return nil, nil, err
	}

	opts := append(scriptOptions(cmd),
		funnel.WithLocalStore(st.local),
		funnel.WithSessionStore(st.sessions),
		funnel.WithLogger(logger),
	)
	active, fallback, err := cfg.Keys()
	if err != nil {
		st.close()
		return nil, nil, err
	}
	if active != nil {
		opts = append(opts, funnel.WithEncryption(active, fallback...))
	}
	app, err := funnel.New(opts...)
	if err != nil {
		st.close()
		return nil, nil, err
	}
	return app.Visitors(), st.close, nil
}

func loadVisitor(cmd *cobra.Command, id string) (domain.Flags, func() error, error) {
	mgr, closeFn, err := openVisitors(cmd)
	if err != nil {
		return nil, nil, err
	}
	flags, err := mgr.Load(cmd.Context(), id)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("loading visitor '%s': %w", id, err)
	}
	return flags, closeFn, nil
}
