package domain

import "fmt"

// Cue is a symbolic sound identifier. The engine only emits cues;
// turning them into audio is the sink's concern.
type Cue string

const (
	CueClick        Cue = "click"
	CueHover        Cue = "hover"
	CueSuccess      Cue = "success"
	CueError        Cue = "error"
	CueNotification Cue = "notification"
	CueTyping       Cue = "typing"
	CueLoading      Cue = "loading"
	CueTransition   Cue = "transition"
	CueCoin         Cue = "coin"
	CueLevelUp      Cue = "level-up"
	CueButtonPress  Cue = "button-press"
	CueWhoosh       Cue = "whoosh"
	CueBeep         Cue = "beep"
	CueDing         Cue = "ding"
	CuePop          Cue = "pop"

	// Chat-specific cues.
	CueReceived Cue = "received"
	CueSent     Cue = "sent"
	CuePayment  Cue = "payment"
)

var knownCues = map[Cue]struct{}{
	CueClick: {}, CueHover: {}, CueSuccess: {}, CueError: {}, CueNotification: {},
	CueTyping: {}, CueLoading: {}, CueTransition: {}, CueCoin: {}, CueLevelUp: {},
	CueButtonPress: {}, CueWhoosh: {}, CueBeep: {}, CueDing: {}, CuePop: {},
	CueReceived: {}, CueSent: {}, CuePayment: {},
}

// ParseCue validates a raw cue name against the closed set.
func ParseCue(raw string) (Cue, error) {
	c := Cue(raw)
	if _, ok := knownCues[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCue, raw)
	}
	return c, nil
}

// Valid reports whether the cue belongs to the closed set.
func (c Cue) Valid() bool {
	_, ok := knownCues[c]
	return ok
}
