package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/funnel"
	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/internal/presentation/tui"
	"github.com/aretw0/funnel/pkg/adapters/cue"
	"github.com/aretw0/funnel/pkg/conversation"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/player"
	"github.com/aretw0/funnel/pkg/ports"
)

// PlayOptions configures a terminal conversation.
type PlayOptions struct {
	App   *funnel.App
	Sched ports.Scheduler

	// ScriptID names an embedded or loaded script; Script wins when set.
	ScriptID string
	Script   *domain.Script
	Name     string

	In  io.Reader
	Out io.Writer

	// Render turns markdown into terminal output. Nil prints the markdown as is.
	Render func(string) (string, error)
	Cues   bool
	// AutoContinue confirms every breakpoint without waiting for input.
	AutoContinue bool
	Logger       *slog.Logger
}

// Play runs one conversation in the terminal until it completes, ctx is cancelled
// or the input is closed. Enter confirms breakpoints.
func Play(ctx context.Context, opts PlayOptions) error {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Render == nil {
		opts.Render = func(md string) (string, error) { return md, nil }
	}

	events := make(chan domain.Event, 256)
	cues := make(chan domain.Cue, 256)
	engOpts := []conversation.Option{
		conversation.WithLogger(opts.Logger),
		conversation.WithEventHandler(func(e domain.Event) {
			select {
			case events <- e:
			case <-ctx.Done():
			}
		}),
	}
	if opts.Cues {
		engOpts = append(engOpts, conversation.WithCueSink(cue.Func(func(c domain.Cue) {
			select {
			case cues <- c:
			default:
				opts.Logger.Debug("Cue dropped", "cue", c)
			}
		})))
	}

	var (
		eng *conversation.Engine
		err error
	)
	if opts.Script != nil {
		eng, err = opts.App.PlayScript(opts.Sched, *opts.Script, opts.Name, engOpts...)
	} else {
		eng, err = opts.App.Conversation(opts.Sched, opts.ScriptID, opts.Name, engOpts...)
	}
	if err != nil {
		return err
	}
	defer eng.Dispose()

	lines := readLines(ctx, opts.In)
	for {
		if ctx.Err() != nil {
			printSystemMessage(opts.Out, "Interrupted at message %d.", eng.State().Cursor)
			return handleExecutionError(ctx.Err())
		}

		select {
		case <-ctx.Done():
			continue

		case c := <-cues:
			printCue(opts.Out, c)

		case e := <-events:
			done, err := handleEvent(ctx, opts, eng, e, lines)
			if err != nil {
				return handleExecutionError(err)
			}
			if done {
				printCues(opts.Out, cues)
				printSystemMessage(opts.Out, "Conversation complete.")
				return nil
			}
		}
	}
}

func handleEvent(ctx context.Context, opts PlayOptions, eng *conversation.Engine, e domain.Event, lines <-chan error) (bool, error) {
	switch e.Type {
	case domain.EventTypingStarted:
		fmt.Fprintln(opts.Out, "  …")
	case domain.EventMessageRevealed:
		out, err := opts.Render(tui.MessageMarkdown(*e.Message, tui.DefaultLabels))
		if err != nil {
			return false, err
		}
		fmt.Fprint(opts.Out, out)
	case domain.EventAwaitingContinuation:
		if !opts.AutoContinue {
			fmt.Fprint(opts.Out, "[Enter] continuar ")
			select {
			case err := <-lines:
				if err != nil {
					return false, err
				}
			case <-ctx.Done():
				return false, ctx.Err()
			}
		}
		if eng.Continue() == player.OutcomeCompleted {
			return true, nil
		}
	case domain.EventCompleted:
		return true, nil
	}
	return false, nil
}

func printCue(w io.Writer, c domain.Cue) {
	fmt.Fprintf(w, "  ♪ %s\n", c)
}

// printCues flushes cues that are still buffered.
func printCues(w io.Writer, cues <-chan domain.Cue) {
	for {
		select {
		case c := <-cues:
			printCue(w, c)
		default:
			return
		}
	}
}

// readLines reports each line read from in as nil, then the read error.
func readLines(ctx context.Context, in io.Reader) <-chan error {
	out := make(chan error)
	if in == nil {
		return out
	}
	go func() {
		sc := bufio.NewScanner(NewInterruptibleReader(in, ctx.Done()))
		for sc.Scan() {
			select {
			case out <- nil:
			case <-ctx.Done():
				return
			}
		}
		err := sc.Err()
		if err == nil {
			err = io.EOF
		}
		select {
		case out <- err:
		case <-ctx.Done():
		}
	}()
	return out
}
