package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Sender identifies who authored a scripted line.
// It drives bubble alignment in the view and which cue fires on reveal.
type Sender string

const (
	SenderUser        Sender = "user"
	SenderCounterpart Sender = "counterpart"
	SenderSystem      Sender = "system"
)

// ParseSender maps a raw sender name to a Sender.
// "client" is accepted as an alias for the counterpart.
func ParseSender(raw string) (Sender, error) {
	switch raw {
	case "user":
		return SenderUser, nil
	case "counterpart", "client":
		return SenderCounterpart, nil
	case "system":
		return SenderSystem, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSender, raw)
}

// ShowsTyping reports whether a typing indicator precedes lines from this sender.
func (s Sender) ShowsTyping() bool {
	return s == SenderCounterpart || s == SenderSystem
}

// ScriptMessage is one line of scripted dialogue.
type ScriptMessage struct {
	Sender  Sender        `json:"sender" yaml:"sender"`
	Content string        `json:"content" yaml:"content"`
	Delay   time.Duration `json:"-" yaml:"delay"`

	// Breakpoint pauses automatic advancement until the host continues.
	Breakpoint bool `json:"is_breakpoint,omitempty" yaml:"breakpoint,omitempty"`
	// Terminal marks the final message; confirming it ends the script.
	Terminal bool `json:"is_terminal,omitempty" yaml:"terminal,omitempty"`

	// PaymentAmount is set only on system lines that represent a monetary event.
	PaymentAmount string `json:"payment_amount,omitempty" yaml:"payment_amount,omitempty"`
}

// IsPayment reports whether revealing this line triggers the payment side effect.
func (m ScriptMessage) IsPayment() bool {
	return m.PaymentAmount != ""
}

type wireMessage struct {
	Sender        Sender `json:"sender"`
	Content       string `json:"content"`
	DelayMs       int64  `json:"delay_ms"`
	Breakpoint    bool   `json:"is_breakpoint,omitempty"`
	Terminal      bool   `json:"is_terminal,omitempty"`
	PaymentAmount string `json:"payment_amount,omitempty"`
}

// MarshalJSON encodes the delay as integer milliseconds for browser shells.
func (m ScriptMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireMessage{
		Sender:        m.Sender,
		Content:       m.Content,
		DelayMs:       m.Delay.Milliseconds(),
		Breakpoint:    m.Breakpoint,
		Terminal:      m.Terminal,
		PaymentAmount: m.PaymentAmount,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (m *ScriptMessage) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = ScriptMessage{
		Sender:        w.Sender,
		Content:       w.Content,
		Delay:         time.Duration(w.DelayMs) * time.Millisecond,
		Breakpoint:    w.Breakpoint,
		Terminal:      w.Terminal,
		PaymentAmount: w.PaymentAmount,
	}
	return nil
}

// Script is an ordered, immutable list of messages defining one scripted conversation.
type Script struct {
	ID       string          `json:"id" yaml:"id"`
	Messages []ScriptMessage `json:"messages" yaml:"messages"`
}

// Len returns the number of messages.
func (s Script) Len() int { return len(s.Messages) }

// Validate checks the structural rules every playable script must satisfy.
func (s Script) Validate() error {
	if len(s.Messages) == 0 {
		return fmt.Errorf("script %q: %w", s.ID, ErrEmptyScript)
	}
	for i, m := range s.Messages {
		switch m.Sender {
		case SenderUser, SenderCounterpart, SenderSystem:
		default:
			return fmt.Errorf("script %q message %d: %w: %q", s.ID, i, ErrUnknownSender, m.Sender)
		}
		if m.Delay < 0 {
			return fmt.Errorf("script %q message %d: negative delay %s", s.ID, i, m.Delay)
		}
		if m.IsPayment() && m.Sender != SenderSystem {
			return fmt.Errorf("script %q message %d: payment amount is only allowed on system messages", s.ID, i)
		}
	}
	return nil
}
