package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/funnel/pkg/classify"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/funnel"
	"github.com/aretw0/funnel/pkg/script"
)

// Source is what the funnel reads its content from.
type Source interface {
	Script(id string) (domain.Script, error)
	Catalog() ([]domain.Category, error)
}

var stageScripts = map[funnel.Stage]string{
	funnel.StageConversationBefore: script.ConversationBefore,
	funnel.StageConversationAfter:  script.ConversationAfter,
}

// ValidateFunnel walks the stages in order and checks that every engine-driven
// stage has content that can complete. All problems are reported together.
func ValidateFunnel(src Source) error {
	var errs []string
	for _, stage := range funnel.Stages() {
		switch stage {
		case funnel.StageConversationBefore, funnel.StageConversationAfter:
			errs = append(errs, checkScript(src, stage, stageScripts[stage])...)
		case funnel.StageCustomization:
			errs = append(errs, checkCatalog(src)...)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(errs, "\n- "))
	}
	return nil
}

func checkScript(src Source, stage funnel.Stage, id string) []string {
	s, err := src.Script(id)
	if err != nil {
		return []string{fmt.Sprintf("stage %s: %v", stage, err)}
	}
	if err := s.Validate(); err != nil {
		return []string{fmt.Sprintf("stage %s: %v", stage, err)}
	}

	var errs []string
	last := s.Messages[len(s.Messages)-1]
	if !last.Terminal && !last.Breakpoint {
		errs = append(errs, fmt.Sprintf("stage %s: script %q never completes: last message is neither terminal nor a breakpoint", stage, id))
	}
	for i, m := range s.Messages[:len(s.Messages)-1] {
		if m.Terminal {
			errs = append(errs, fmt.Sprintf("stage %s: script %q message %d is terminal but not last", stage, id, i))
		}
	}
	return errs
}

func checkCatalog(src Source) []string {
	cats, err := src.Catalog()
	if err != nil {
		return []string{fmt.Sprintf("stage %s: %v", funnel.StageCustomization, err)}
	}
	if len(cats) == 0 {
		return []string{fmt.Sprintf("stage %s: catalog has no categories", funnel.StageCustomization)}
	}

	var errs []string
	seen := make(map[string]bool, len(cats))
	for i, c := range cats {
		if c.ID == "" {
			errs = append(errs, fmt.Sprintf("category %d: missing id", i))
			continue
		}
		if seen[c.ID] {
			errs = append(errs, fmt.Sprintf("category %q: duplicate id", c.ID))
		}
		seen[c.ID] = true

		if len(c.Choices) == 0 {
			errs = append(errs, fmt.Sprintf("category %q: no choices", c.ID))
		}
		values := make(map[string]bool, len(c.Choices))
		for i, ch := range c.Choices {
			switch {
			case ch.Value == "":
				errs = append(errs, fmt.Sprintf("category %q: choice %d has no value", c.ID, i))
			case values[ch.Value]:
				errs = append(errs, fmt.Sprintf("category %q: duplicate choice %q", c.ID, ch.Value))
			}
			values[ch.Value] = true
		}
		if cl, ok := classify.For(c.ID); ok && len(c.Choices) > 0 {
			for _, v := range cl.Values() {
				if !values[v] {
					errs = append(errs, fmt.Sprintf("category %q: no choice for classified value %q", c.ID, v))
				}
			}
		}
	}
	return errs
}
