package memory

import (
	"fmt"
	"sort"

	"github.com/aretw0/funnel/pkg/domain"
)

// Loader implements ports.ScriptLoader using an in-memory map.
type Loader struct {
	scripts map[string]domain.Script
}

// NewLoader creates a loader from domain scripts, validating each one.
// This keeps tests and embedded hosts free of YAML.
func NewLoader(scripts ...domain.Script) (*Loader, error) {
	data := make(map[string]domain.Script, len(scripts))
	for _, s := range scripts {
		if s.ID == "" {
			return nil, fmt.Errorf("script missing ID")
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		data[s.ID] = s
	}
	return &Loader{scripts: data}, nil
}

// Script retrieves a script by ID.
func (l *Loader) Script(id string) (domain.Script, error) {
	s, ok := l.scripts[id]
	if !ok {
		return domain.Script{}, fmt.Errorf("%w: %s", domain.ErrScriptNotFound, id)
	}
	return s, nil
}

// ListScripts returns all available script IDs.
func (l *Loader) ListScripts() ([]string, error) {
	keys := make([]string, 0, len(l.scripts))
	for k := range l.scripts {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
