package funnel

import (
	"fmt"
	"strings"

	"github.com/aretw0/funnel/pkg/domain"
)

// Page is a funnel page path.
type Page string

const (
	PageRoot          Page = "/"
	PageEntry         Page = "/venda"
	PageContact       Page = "/usuario"
	PageConversation  Page = "/contratacao"
	PageCustomization Page = "/personalizar"
	PageOffer         Page = "/oferta"
)

var pages = []Page{PageRoot, PageEntry, PageContact, PageConversation, PageCustomization, PageOffer}

// Pages returns every page in funnel order, root first.
func Pages() []Page {
	return append([]Page(nil), pages...)
}

// ParsePage accepts a page path with or without the leading slash.
func ParsePage(raw string) (Page, error) {
	p := Page("/" + strings.Trim(strings.TrimSpace(raw), "/"))
	for _, known := range pages {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownPage, raw)
}

// Stage is one step of the linear funnel.
type Stage string

const (
	StageEntry              Stage = "entry"
	StageContact            Stage = "contact"
	StageConversationBefore Stage = "conversation-before"
	StageCustomization      Stage = "customization"
	StageConversationAfter  Stage = "conversation-after"
	StageOffer              Stage = "offer"
)

var stages = []Stage{
	StageEntry,
	StageContact,
	StageConversationBefore,
	StageCustomization,
	StageConversationAfter,
	StageOffer,
}

// Stages returns the stages in order.
func Stages() []Stage {
	return append([]Stage(nil), stages...)
}

// ParseStage validates a stage name.
func ParseStage(raw string) (Stage, error) {
	for _, s := range stages {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", raw)
}

// Page returns the page hosting the stage.
func (s Stage) Page() Page {
	switch s {
	case StageEntry:
		return PageEntry
	case StageContact:
		return PageContact
	case StageConversationBefore, StageConversationAfter:
		return PageConversation
	case StageCustomization:
		return PageCustomization
	case StageOffer:
		return PageOffer
	}
	return PageRoot
}

// Next returns the following stage, or s itself for the last one.
func (s Stage) Next() Stage {
	for i, cur := range stages {
		if cur == s && i+1 < len(stages) {
			return stages[i+1]
		}
	}
	return s
}

// Flag returns the local flag written when s completes through Controller.Complete,
// or "" for stages completed by other means.
func (s Stage) Flag() string {
	switch s {
	case StageConversationBefore:
		return domain.FlagConversationBeforeDone
	case StageCustomization:
		return domain.FlagCustomizationDone
	case StageConversationAfter:
		return domain.FlagConversationAfterDone
	}
	return ""
}

// State is the visitor's view of both flag scopes.
type State struct {
	VisitorID string       `json:"visitor_id"`
	SessionID string       `json:"session_id"`
	Local     domain.Flags `json:"local"`
	Session   domain.Flags `json:"session"`
}

// Name returns the captured participant name.
func (s State) Name() string {
	return s.Local.Get(domain.FlagParticipantName)
}

// HasContact reports whether the contact page was completed.
func (s State) HasContact() bool {
	return s.Local.Has(domain.FlagParticipantName)
}

// ArrivedFromEntry reports whether this browser session passed through the entry page.
func (s State) ArrivedFromEntry() bool {
	return s.Session.Bool(domain.FlagArrivedFromEntry)
}

// Reached returns the furthest stage the visitor may currently render.
func (s State) Reached() Stage {
	switch {
	case s.Local.Bool(domain.FlagConversationAfterDone):
		return StageOffer
	case s.Local.Bool(domain.FlagCustomizationDone):
		return StageConversationAfter
	case s.Local.Bool(domain.FlagConversationBeforeDone):
		return StageCustomization
	case s.HasContact():
		return StageConversationBefore
	case s.ArrivedFromEntry():
		return StageContact
	}
	return StageEntry
}
