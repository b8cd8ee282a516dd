package main

import (
	"fmt"
	"os"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/internal/cli"
	"github.com/aretw0/funnel/internal/presentation/tui"
	"github.com/aretw0/funnel/pkg/adapters/clock"
	"github.com/aretw0/funnel/pkg/script"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var playCmd = &cobra.Command{
	Use:   "play [before|after|<script-id>|<file>]",
	Short: "Play a conversation script in the terminal",
	Long: `Plays a conversation with real typing delays. Press Enter to continue at breakpoints.
Without arguments it plays the conversation before the customization.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		cues, _ := cmd.Flags().GetBool("cues")
		auto, _ := cmd.Flags().GetBool("auto")

		app, err := funnel.New(append(scriptOptions(cmd), funnel.WithLogger(logger))...)
		if err != nil {
			return err
		}
		defer app.Close()

		opts := cli.PlayOptions{
			App:          app,
			Name:         name,
			In:           os.Stdin,
			Out:          os.Stdout,
			Cues:         cues,
			AutoContinue: auto,
			Logger:       logger,
		}
		if err := resolveScript(&opts, args); err != nil {
			return err
		}

		if term.IsTerminal(int(os.Stdout.Fd())) {
			tui.PrintBanner(os.Stdout)
			opts.Render = tui.NewRenderer()
		}

		sched := clock.NewReal(clock.WithLogger(logger))
		defer sched.Stop()
		opts.Sched = sched

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		return cli.Play(sigCtx, opts)
	},
}

// resolveScript maps the shorthand names, then tries the argument as a file path.
func resolveScript(opts *cli.PlayOptions, args []string) error {
	arg := "before"
	if len(args) > 0 {
		arg = args[0]
	}
	switch arg {
	case "before":
		opts.ScriptID = script.ConversationBefore
		return nil
	case "after":
		opts.ScriptID = script.ConversationAfter
		return nil
	}

	data, err := os.ReadFile(arg)
	if os.IsNotExist(err) {
		opts.ScriptID = arg
		return nil
	}
	if err != nil {
		return err
	}
	s, err := script.ParseScript(data)
	if err != nil {
		return fmt.Errorf("%s: %w", arg, err)
	}
	opts.Script = &s
	return nil
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().String("name", "Visitante", "Participant name interpolated into the script")
	playCmd.Flags().Bool("cues", false, "Print audio cues as they fire")
	playCmd.Flags().Bool("auto", false, "Continue breakpoints without waiting for Enter")
}
