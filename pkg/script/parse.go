// Package script loads conversation scripts and the customization catalog from
// YAML documents, validates them, and interpolates participant data into
// message content.
package script

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"text/template"
	"time"

	"github.com/aretw0/funnel/internal/dto"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Kind tells which document a YAML file holds.
type Kind string

const (
	KindScript  Kind = "script"
	KindCatalog Kind = "catalog"
)

// Document is a parsed and validated YAML file.
type Document struct {
	Kind       Kind
	Script     domain.Script
	Categories []domain.Category
}

// ErrInvalidDocument wraps every structural problem found while parsing.
var ErrInvalidDocument = errors.New("invalid document")

// ParseDocument decodes data as either a script or a catalog.
// A document with a top-level "categories" key is a catalog.
func ParseDocument(data []byte) (Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("%w: yaml: %v", ErrInvalidDocument, err)
	}
	if raw == nil {
		return Document{}, fmt.Errorf("%w: empty document", ErrInvalidDocument)
	}

	if _, ok := raw["categories"]; ok {
		cats, err := decodeCatalog(raw)
		if err != nil {
			return Document{}, err
		}
		return Document{Kind: KindCatalog, Categories: cats}, nil
	}

	s, err := decodeScript(raw)
	if err != nil {
		return Document{}, err
	}
	return Document{Kind: KindScript, Script: s}, nil
}

// ParseScript decodes and validates a single script document.
func ParseScript(data []byte) (domain.Script, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return domain.Script{}, err
	}
	if doc.Kind != KindScript {
		return domain.Script{}, fmt.Errorf("%w: expected a script, got a %s", ErrInvalidDocument, doc.Kind)
	}
	return doc.Script, nil
}

// ParseCatalog decodes and validates a customization catalog document.
func ParseCatalog(data []byte) ([]domain.Category, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	if doc.Kind != KindCatalog {
		return nil, fmt.Errorf("%w: expected a catalog, got a %s", ErrInvalidDocument, doc.Kind)
	}
	return doc.Categories, nil
}

func decodeScript(raw map[string]any) (domain.Script, error) {
	var doc dto.ScriptDocument
	if err := decode(raw, &doc); err != nil {
		return domain.Script{}, err
	}
	if doc.ID == "" {
		return domain.Script{}, fmt.Errorf("%w: script missing id", ErrInvalidDocument)
	}

	s := domain.Script{ID: doc.ID, Messages: make([]domain.ScriptMessage, 0, len(doc.Messages))}
	for i, m := range doc.Messages {
		sender, err := domain.ParseSender(m.Sender)
		if err != nil {
			return domain.Script{}, fmt.Errorf("script %q message %d: %w", doc.ID, i, err)
		}
		if _, err := parseContent(m.Content); err != nil {
			return domain.Script{}, fmt.Errorf("%w: script %q message %d: %v", ErrInvalidDocument, doc.ID, i, err)
		}
		s.Messages = append(s.Messages, domain.ScriptMessage{
			Sender:        sender,
			Content:       m.Content,
			Delay:         m.Delay,
			Breakpoint:    m.Breakpoint,
			Terminal:      m.Terminal,
			PaymentAmount: m.PaymentAmount,
		})
	}
	if err := s.Validate(); err != nil {
		return domain.Script{}, err
	}
	return s, nil
}

func decodeCatalog(raw map[string]any) ([]domain.Category, error) {
	var doc dto.CatalogDocument
	if err := decode(raw, &doc); err != nil {
		return nil, err
	}
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("%w: catalog has no categories", ErrInvalidDocument)
	}

	seen := make(map[string]bool, len(doc.Categories))
	out := make([]domain.Category, 0, len(doc.Categories))
	for _, c := range doc.Categories {
		if c.ID == "" {
			return nil, fmt.Errorf("%w: category missing id", ErrInvalidDocument)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrInvalidDocument, c.ID)
		}
		seen[c.ID] = true
		if len(c.Choices) == 0 {
			return nil, fmt.Errorf("%w: category %q has no choices", ErrInvalidDocument, c.ID)
		}
		if c.Default == "" {
			return nil, fmt.Errorf("%w: category %q has no default", ErrInvalidDocument, c.ID)
		}

		cat := domain.Category{ID: c.ID, Title: c.Title, Default: c.Default}
		values := make(map[string]bool, len(c.Choices))
		for _, ch := range c.Choices {
			if ch.Value == "" || values[ch.Value] {
				return nil, fmt.Errorf("%w: category %q has an empty or duplicate choice value %q", ErrInvalidDocument, c.ID, ch.Value)
			}
			values[ch.Value] = true
			cat.Choices = append(cat.Choices, domain.Choice{Text: ch.Text, Value: ch.Value})
		}
		out = append(out, cat)
	}
	return out, nil
}

func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			millisecondsHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// millisecondsHook reads bare numbers as milliseconds when the target is a duration.
func millisecondsHook(_ reflect.Type, t reflect.Type, data any) (any, error) {
	if t != durationType {
		return data, nil
	}
	switch v := data.(type) {
	case int:
		return time.Duration(v) * time.Millisecond, nil
	case int64:
		return time.Duration(v) * time.Millisecond, nil
	case uint64:
		return time.Duration(v) * time.Millisecond, nil
	case float64:
		return time.Duration(v * float64(time.Millisecond)), nil
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Duration(n) * time.Millisecond, nil
		}
	}
	return data, nil
}

// Vars are the values available to message templates.
type Vars struct {
	Name string
}

func parseContent(content string) (*template.Template, error) {
	return template.New("content").Option("missingkey=zero").Parse(content)
}

// Render returns a copy of s with every message content executed as a template.
func Render(s domain.Script, vars Vars) (domain.Script, error) {
	out := domain.Script{ID: s.ID, Messages: make([]domain.ScriptMessage, len(s.Messages))}
	var buf bytes.Buffer
	for i, m := range s.Messages {
		tmpl, err := parseContent(m.Content)
		if err != nil {
			return domain.Script{}, fmt.Errorf("script %q message %d: %w", s.ID, i, err)
		}
		buf.Reset()
		if err := tmpl.Execute(&buf, vars); err != nil {
			return domain.Script{}, fmt.Errorf("script %q message %d: %w", s.ID, i, err)
		}
		m.Content = buf.String()
		out.Messages[i] = m
	}
	return out, nil
}
