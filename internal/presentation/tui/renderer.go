package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// Without a usable terminal style it falls back to the raw markdown.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(72),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// Labels name the speakers in a transcript.
type Labels struct {
	User        string
	Counterpart string
	System      string
}

// DefaultLabels match the Portuguese scripts.
var DefaultLabels = Labels{User: "Você", Counterpart: "Cliente", System: "Sistema"}

// MessageMarkdown formats one revealed message as markdown.
// Counterpart lines are quoted, user lines are bold-labelled,
// system lines are italic and payments stand out with their amount.
func MessageMarkdown(m domain.ScriptMessage, labels Labels) string {
	switch {
	case m.IsPayment():
		return fmt.Sprintf("💰 **%s: R$ %s**\n\n_%s_\n", labels.System, m.PaymentAmount, m.Content)
	case m.Sender == domain.SenderSystem:
		return fmt.Sprintf("_%s: %s_\n", labels.System, m.Content)
	case m.Sender == domain.SenderCounterpart:
		return fmt.Sprintf("> **%s:** %s\n", labels.Counterpart, m.Content)
	}
	return fmt.Sprintf("**%s:** %s\n", labels.User, m.Content)
}

// TranscriptMarkdown formats a whole conversation.
func TranscriptMarkdown(title string, messages []domain.ScriptMessage, labels Labels) string {
	var sb strings.Builder
	if title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", title)
	}
	for _, m := range messages {
		sb.WriteString(MessageMarkdown(m, labels))
		sb.WriteString("\n")
	}
	return sb.String()
}
