package ports

import "github.com/aretw0/funnel/pkg/domain"

// ScriptLoader defines how engines retrieve scripted conversations.
// This allows the source (embedded defaults, a directory of YAML files, memory) to be decoupled.
type ScriptLoader interface {
	// Script returns the validated script with the given id.
	Script(id string) (domain.Script, error)

	// ListScripts returns the ids of all scripts available to the loader.
	ListScripts() ([]string, error)
}
