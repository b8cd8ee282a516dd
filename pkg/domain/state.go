package domain

// Phase is the explicit state of a script player.
type Phase string

const (
	PhaseIdle Phase = "idle"
	// PhaseTyping: the typing indicator is shown while the delay runs.
	PhaseTyping Phase = "typing"
	// PhaseSending: a pre-authored user line is waiting for its delay; no indicator.
	PhaseSending  Phase = "sending"
	PhaseRevealed Phase = "revealed"
	// PhaseAwaiting: a breakpoint or terminal line was revealed and needs a continue.
	PhaseAwaiting Phase = "awaiting_continuation"
	PhaseComplete Phase = "complete"
)

// ConversationState is the read-only snapshot of a conversation a view renders.
type ConversationState struct {
	ScriptID               string          `json:"script_id"`
	Cursor                 int             `json:"cursor"`
	Length                 int             `json:"length"`
	Phase                  Phase           `json:"phase"`
	IsTyping               bool            `json:"is_typing"`
	IsAwaitingContinuation bool            `json:"is_awaiting_continuation"`
	Revealed               []ScriptMessage `json:"revealed_messages"`
}

// IsComplete reports whether the terminal message was confirmed.
func (s ConversationState) IsComplete() bool {
	return s.Phase == PhaseComplete
}
