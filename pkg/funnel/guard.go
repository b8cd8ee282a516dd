package funnel

import "github.com/aretw0/funnel/pkg/script"

// Decision is the outcome of guarding a page.
type Decision struct {
	Page     Page   `json:"page"`
	Redirect Page   `json:"redirect,omitempty"`
	Stage    Stage  `json:"stage,omitempty"`
	ScriptID string `json:"script_id,omitempty"`
}

// Render reports whether the requested page may be shown.
func (d Decision) Render() bool {
	return d.Redirect == ""
}

// Target is the page the visitor ends up on.
func (d Decision) Target() Page {
	if d.Redirect != "" {
		return d.Redirect
	}
	return d.Page
}

func redirect(from, to Page) Decision {
	return Decision{Page: from, Redirect: to}
}

// Guard decides whether page may render for state. It has no side effects.
func Guard(state State, page Page) Decision {
	switch page {
	case PageRoot:
		return redirect(page, PageEntry)

	case PageEntry:
		return Decision{Page: page, Stage: StageEntry}

	case PageContact:
		if !state.ArrivedFromEntry() {
			return redirect(page, PageEntry)
		}
		if state.HasContact() {
			// Returning visitors resume the conversation instead of re-entering data.
			return redirect(page, PageConversation)
		}
		return Decision{Page: page, Stage: StageContact}

	case PageConversation:
		if !state.HasContact() {
			return redirect(page, PageContact)
		}
		if state.Local.Bool(StageCustomization.Flag()) {
			return Decision{Page: page, Stage: StageConversationAfter, ScriptID: script.ConversationAfter}
		}
		return Decision{Page: page, Stage: StageConversationBefore, ScriptID: script.ConversationBefore}

	case PageCustomization:
		if !state.HasContact() {
			return redirect(page, PageContact)
		}
		if !state.Local.Bool(StageConversationBefore.Flag()) {
			return redirect(page, PageConversation)
		}
		return Decision{Page: page, Stage: StageCustomization}

	case PageOffer:
		if !state.HasContact() {
			return redirect(page, PageContact)
		}
		if !state.Local.Bool(StageConversationAfter.Flag()) {
			return redirect(page, PageConversation)
		}
		return Decision{Page: page, Stage: StageOffer}
	}
	return redirect(page, PageEntry)
}
