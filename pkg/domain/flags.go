package domain

// Flag keys persisted in the visitor's local scope.
const (
	FlagParticipantName    = "playerName"
	FlagParticipantContact = "playerWhatsapp"

	FlagConversationBeforeDone = "hasCompletedContratacao"
	FlagCustomizationDone      = "hasCompletedPersonalizacao"
	FlagConversationAfterDone  = "hasCompletedSimulacao"

	// FlagPromptPrefix + stage number stores the last wizard prompt of that stage.
	FlagPromptPrefix = "prompt_stage_"
)

// Flag keys persisted in the visitor's browser-session scope.
const (
	// FlagArrivedFromEntry marks arrival through the entry page,
	// preventing deep links around the start of the funnel.
	FlagArrivedFromEntry = "fromVenda"
)

// FlagTrue is the stored representation of a set boolean flag.
const FlagTrue = "true"

// Flags is the additive key/value record of funnel progress.
type Flags map[string]string

// Get returns the value of key, or "" when absent.
func (f Flags) Get(key string) string {
	if f == nil {
		return ""
	}
	return f[key]
}

// Has reports whether key holds a non-empty value.
func (f Flags) Has(key string) bool {
	return f.Get(key) != ""
}

// Bool reports whether key holds the boolean true marker.
func (f Flags) Bool(key string) bool {
	return f.Get(key) == FlagTrue
}

// Clone returns an independent copy.
func (f Flags) Clone() Flags {
	out := make(Flags, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
