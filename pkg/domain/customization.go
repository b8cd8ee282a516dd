package domain

// Category identifiers of the customization wizard, in visiting order.
const (
	CategoryLayout      = "layout"
	CategoryColorScheme = "colorScheme"
	CategoryTypography  = "typography"
	CategoryHeaderStyle = "headerStyle"
	CategoryCredibility = "credibilityElements"
)

// Choice is one discrete option offered by a category.
type Choice struct {
	Text  string `json:"text" yaml:"text"`
	Value string `json:"value" yaml:"value"`
}

// Category is one wizard stage with its choices.
type Category struct {
	ID      string   `json:"id" yaml:"id"`
	Title   string   `json:"title" yaml:"title"`
	Default string   `json:"default" yaml:"default"`
	Choices []Choice `json:"choices" yaml:"choices"`
}

// Offers reports whether value is one of the category's choices.
func (c Category) Offers(value string) bool {
	for _, ch := range c.Choices {
		if ch.Value == value {
			return true
		}
	}
	return false
}

// Settings records exactly one chosen value per category.
type Settings map[string]string

// Clone returns an independent copy.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// WizardState is the read-only snapshot of the customization wizard.
type WizardState struct {
	Stage                  int               `json:"stage"`
	TotalStages            int               `json:"total_stages"`
	Category               Category          `json:"category"`
	Settings               Settings          `json:"settings"`
	Completed              []string          `json:"completed"`
	Prompts                map[string]string `json:"prompts,omitempty"`
	IsGenerating           bool              `json:"is_generating"`
	IsAwaitingContinuation bool              `json:"is_awaiting_continuation"`
	IsComplete             bool              `json:"is_complete"`
}
