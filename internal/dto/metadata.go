package dto

import "time"

// ScriptDocument is the on-disk shape of a conversation script.
// It uses "mapstructure" tags so YAML decoded into generic maps can be bound with decode hooks.
type ScriptDocument struct {
	ID       string            `json:"id" mapstructure:"id"`
	Title    string            `json:"title" mapstructure:"title"`
	Messages []MessageDocument `json:"messages" mapstructure:"messages"`
}

// MessageDocument is one scripted line before sender normalization.
// Delay accepts integer milliseconds or a Go duration string ("1.5s").
type MessageDocument struct {
	Sender        string        `json:"sender" mapstructure:"sender"`
	Content       string        `json:"content" mapstructure:"content"`
	Delay         time.Duration `json:"delay" mapstructure:"delay"`
	Breakpoint    bool          `json:"breakpoint" mapstructure:"breakpoint"`
	Terminal      bool          `json:"terminal" mapstructure:"terminal"`
	PaymentAmount string        `json:"payment_amount" mapstructure:"payment_amount"`
}

// CatalogDocument is the on-disk shape of the customization catalog.
type CatalogDocument struct {
	ID         string             `json:"id" mapstructure:"id"`
	Categories []CategoryDocument `json:"categories" mapstructure:"categories"`
}

// CategoryDocument is one wizard category with its choices.
type CategoryDocument struct {
	ID      string           `json:"id" mapstructure:"id"`
	Title   string           `json:"title" mapstructure:"title"`
	Default string           `json:"default" mapstructure:"default"`
	Choices []ChoiceDocument `json:"choices" mapstructure:"choices"`
}

// ChoiceDocument is one selectable option.
type ChoiceDocument struct {
	Text  string `json:"text" mapstructure:"text"`
	Value string `json:"value" mapstructure:"value"`
}
