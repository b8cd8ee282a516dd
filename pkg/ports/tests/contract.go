package tests

import (
	"testing"

	"github.com/aretw0/funnel/pkg/ports"
)

// ScriptLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.ScriptLoader.
// setupData maps each expected script id to its expected message count.
func ScriptLoaderContractTest(t *testing.T, loader ports.ScriptLoader, setupData map[string]int) {
	t.Helper()

	t.Run("Script_Success", func(t *testing.T) {
		for id, wantLen := range setupData {
			s, err := loader.Script(id)
			if err != nil {
				t.Fatalf("unexpected error getting script %s: %v", id, err)
			}
			if s.ID != id {
				t.Errorf("id mismatch: got %q, want %q", s.ID, id)
			}
			if s.Len() != wantLen {
				t.Errorf("length mismatch for %s. got %d, want %d", id, s.Len(), wantLen)
			}
			if err := s.Validate(); err != nil {
				t.Errorf("loader returned invalid script %s: %v", id, err)
			}
		}
	})

	t.Run("Script_NotFound", func(t *testing.T) {
		_, err := loader.Script("non-existent-script")
		if err == nil {
			t.Error("expected error for non-existent script, got nil")
		}
	})

	t.Run("ListScripts", func(t *testing.T) {
		ids, err := loader.ListScripts()
		if err != nil {
			t.Fatalf("unexpected error listing scripts: %v", err)
		}

		if len(ids) != len(setupData) {
			t.Errorf("expected %d scripts, got %d", len(setupData), len(ids))
		}

		lookup := make(map[string]bool)
		for _, id := range ids {
			lookup[id] = true
		}
		for id := range setupData {
			if !lookup[id] {
				t.Errorf("script %s missing from list", id)
			}
		}
	})
}
