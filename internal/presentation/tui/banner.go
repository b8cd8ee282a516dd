package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the funnel ASCII banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Warm gradient, green to gold
	lines := []struct {
		text, color string
	}{
		{"   __                        _ ", "#22c55e"},
		{"  / _|_   _ _ __  _ __   ___| |", "#4ade80"},
		{" | |_| | | | '_ \\| '_ \\ / _ \\ |", "#a3e635"},
		{" |  _| |_| | | | | | | |  __/ |", "#facc15"},
		{" |_|  \\__,_|_| |_|_| |_|\\___|_|", "#f59e0b"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
