package domain

// StateDiff represents the changes between two conversation snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	ScriptID string `json:"script_id"`

	Cursor                 *int   `json:"cursor,omitempty"`
	Phase                  *Phase `json:"phase,omitempty"`
	IsTyping               *bool  `json:"is_typing,omitempty"`
	IsAwaitingContinuation *bool  `json:"is_awaiting_continuation,omitempty"`

	// Appended contains only messages revealed since the old snapshot.
	// Revealed messages are append-only within a run, so this is always a suffix.
	Appended []ScriptMessage `json:"appended,omitempty"`

	// Reset is set when the new snapshot is not a continuation of the old one
	// (a restart); clients should drop their local transcript.
	Reset bool `json:"reset,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(oldState, newState *ConversationState) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{ScriptID: newState.ScriptID}

	if oldState != nil && (oldState.ScriptID != newState.ScriptID || len(newState.Revealed) < len(oldState.Revealed)) {
		diff.Reset = true
		oldState = nil
	}

	if oldState == nil || oldState.Cursor != newState.Cursor {
		diff.Cursor = &newState.Cursor
	}
	if oldState == nil || oldState.Phase != newState.Phase {
		diff.Phase = &newState.Phase
	}
	if oldState == nil || oldState.IsTyping != newState.IsTyping {
		diff.IsTyping = &newState.IsTyping
	}
	if oldState == nil || oldState.IsAwaitingContinuation != newState.IsAwaitingContinuation {
		diff.IsAwaitingContinuation = &newState.IsAwaitingContinuation
	}

	oldLen := 0
	if oldState != nil {
		oldLen = len(oldState.Revealed)
	}
	if len(newState.Revealed) > oldLen {
		diff.Appended = newState.Revealed[oldLen:]
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Cursor == nil &&
		d.Phase == nil &&
		d.IsTyping == nil &&
		d.IsAwaitingContinuation == nil &&
		len(d.Appended) == 0 &&
		!d.Reset
}
