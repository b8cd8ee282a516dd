// Package classify maps free-text wizard prompts to a category value with
// ordered keyword rules. It is pure: no state, no I/O.
package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/aretw0/funnel/pkg/domain"
)

// Rule assigns Value when any keyword occurs in the lower-cased text.
type Rule struct {
	Value    string
	Keywords []string
}

// Classifier evaluates Rules in declared order; the first match wins.
type Classifier struct {
	Rules    []Rule
	Fallback string
}

// Classify returns the value of the first matching rule, or Fallback.
func (c Classifier) Classify(text string) string {
	lower := strings.ToLower(text)
	for _, r := range c.Rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r.Value
			}
		}
	}
	return c.Fallback
}

// Values lists every value Classify can return, in rule order, fallback last.
func (c Classifier) Values() []string {
	out := make([]string, 0, len(c.Rules)+1)
	seen := make(map[string]bool, len(c.Rules)+1)
	for _, v := range append(ruleValues(c.Rules), c.Fallback) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func ruleValues(rules []Rule) []string {
	vs := make([]string, len(rules))
	for i, r := range rules {
		vs[i] = r.Value
	}
	return vs
}

// ColorScheme: purple beats green beats blue.
var ColorScheme = Classifier{
	Rules: []Rule{
		{Value: "purple", Keywords: []string{"roxo", "purple"}},
		{Value: "green", Keywords: []string{"verde", "green"}},
		{Value: "blue", Keywords: []string{"azul", "blue"}},
	},
	Fallback: "blue",
}

// HeaderStyle: scarcity beats hero; anything else is minimal.
var HeaderStyle = Classifier{
	Rules: []Rule{
		{Value: "scarcity", Keywords: []string{"escassez", "black friday", "frete grátis", "oferta", "limitado", "promoção"}},
		{Value: "hero", Keywords: []string{"hero", "impactante", "imagem de fundo"}},
	},
	Fallback: "minimal",
}

// Credibility: testimonials beat products beat security.
var Credibility = Classifier{
	Rules: []Rule{
		{Value: "testimonials", Keywords: []string{"avaliações", "depoimentos", "testemunhos", "provas sociais", "clientes"}},
		{Value: "products", Keywords: []string{"produtos", "vitrine", "ofertas", "catálogo"}},
		{Value: "security", Keywords: []string{"segurança", "selo", "garantia", "certificado", "confiança"}},
	},
	Fallback: "testimonials",
}

// minWordLen is the length a suggestion word must exceed to count as a match.
const minWordLen = 4

// SuggestionMatch returns the first choice whose text shares at least two
// significant words with text. ok is false when no choice qualifies.
func SuggestionMatch(text string, choices []domain.Choice) (value string, ok bool) {
	lower := strings.ToLower(text)
	for _, ch := range choices {
		hits := 0
		for _, word := range strings.Split(strings.ToLower(ch.Text), " ") {
			if utf8.RuneCountInString(word) > minWordLen && strings.Contains(lower, word) {
				hits++
			}
		}
		if hits >= 2 {
			return ch.Value, true
		}
	}
	return "", false
}

// For returns the dedicated classifier of a category, if it has one.
func For(category string) (Classifier, bool) {
	switch category {
	case domain.CategoryColorScheme:
		return ColorScheme, true
	case domain.CategoryHeaderStyle:
		return HeaderStyle, true
	case domain.CategoryCredibility:
		return Credibility, true
	}
	return Classifier{}, false
}

// ForCategory classifies text for the given wizard category.
// Categories without a dedicated classifier use SuggestionMatch, falling back
// to the first choice. The result is not checked against choices.
func ForCategory(category string, choices []domain.Choice, text string) string {
	if c, ok := For(category); ok {
		return c.Classify(text)
	}
	if v, ok := SuggestionMatch(text, choices); ok {
		return v
	}
	if len(choices) > 0 {
		return choices[0].Value
	}
	return ""
}
