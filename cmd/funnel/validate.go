package main

import (
	"fmt"
	"os"

	"github.com/aretw0/funnel/internal/validator"
	"github.com/aretw0/funnel/pkg/script"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Check script and catalog files",
	Long: `Parses each YAML document and checks the rules every playable script must satisfy.
Without arguments it validates the --scripts directory, or the embedded scripts, and
checks that every stage of the funnel has content that can complete.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runValidate(cmd, args); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Scripts are valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		var (
			l   *script.Loader
			err error
		)
		if dir, _ := cmd.Flags().GetString("scripts"); dir != "" {
			l, err = script.NewDir(dir)
		} else {
			l, err = script.NewEmbedded()
		}
		if err != nil {
			return err
		}
		return validateLoader(cmd, l)
	}

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		doc, err := script.ParseDocument(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s ok\n", path, doc.Kind)
	}
	return nil
}

func validateLoader(cmd *cobra.Command, l *script.Loader) error {
	ids, err := l.ListScripts()
	if err != nil {
		return err
	}
	for _, id := range ids {
		s, err := l.Script(id)
		if err != nil {
			return err
		}
		if err := s.Validate(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "script %s: %d messages\n", id, s.Len())
	}
	cats, err := l.Catalog()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "catalog: %d categories\n", len(cats))
	return validator.ValidateFunnel(l)
}
