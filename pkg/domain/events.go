package domain

import (
	"time"
)

// EventType defines the category of an engine event.
type EventType string

const (
	EventStarted              EventType = "started"
	EventTypingStarted        EventType = "typing_started"
	EventMessageSent          EventType = "message_sent"
	EventMessageRevealed      EventType = "message_revealed"
	EventAwaitingContinuation EventType = "awaiting_continuation"
	EventContinueReady        EventType = "continue_ready"
	EventResumed              EventType = "resumed"
	EventIdle                 EventType = "idle"
	EventCompleted            EventType = "completed"
	EventPaymentNoticeShown   EventType = "payment_notice_shown"
	EventPaymentNoticeHidden  EventType = "payment_notice_hidden"

	// Wizard events.
	EventGenerating      EventType = "generating"
	EventChoiceApplied   EventType = "choice_applied"
	EventCategoryChanged EventType = "category_changed"
)

// Event is a lifecycle notification emitted by the conversation and wizard engines.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"type"`
	Index     int            `json:"index"`
	Message   *ScriptMessage `json:"message,omitempty"`
	Amount    string         `json:"amount,omitempty"`
	Category  string         `json:"category,omitempty"`
	Value     string         `json:"value,omitempty"`
}

// CueEvent is the wire form of a cue sent to a remote sink (e.g. a browser over SSE).
type CueEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Cue       Cue       `json:"cue"`
}
