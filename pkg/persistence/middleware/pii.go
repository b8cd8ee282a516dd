package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// Mask replaces masked flag values.
const Mask = "***"

// DefaultPIIPatterns match the participant contact flags.
var DefaultPIIPatterns = []string{`(?i)name$`, `(?i)whatsapp`}

type piiMiddleware struct {
	next     ports.FlagStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values of keys matching the patterns
// before they reach the store. Masked values cannot be recovered, so only use it
// where the funnel does not need them back (e.g. an analytics copy).
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := compile(patternStrings)
	return func(next ports.FlagStore) ports.FlagStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Set(ctx context.Context, id, key, value string) error {
	if matches(key, m.patterns) {
		value = Mask
	}
	return m.next.Set(ctx, id, key, value)
}

func (m *piiMiddleware) Load(ctx context.Context, id string) (domain.Flags, error) {
	return m.next.Load(ctx, id)
}

func (m *piiMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return listNext(ctx, m.next)
}

// MaskFlags returns a copy of flags with PII values masked, for logs and exports.
// The input is not modified.
func MaskFlags(flags domain.Flags, patternStrings []string) domain.Flags {
	patterns := compile(patternStrings)
	out := flags.Clone()
	for k := range out {
		if matches(k, patterns) {
			out[k] = Mask
		}
	}
	return out
}

// Helpers

func compile(patternStrings []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return patterns
}

func matches(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
