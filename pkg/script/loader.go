package script

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/aretw0/funnel/pkg/domain"
)

// Well-known script ids.
const (
	ConversationBefore = "conversation-before"
	ConversationAfter  = "conversation-after"
)

// ErrNoCatalog is returned by Catalog when the source holds no catalog document.
var ErrNoCatalog = errors.New("no customization catalog")

//go:embed scripts/*.yaml
var embedded embed.FS

// Loader implements ports.ScriptLoader over a file system of YAML documents.
type Loader struct {
	scripts map[string]domain.Script
	catalog []domain.Category
}

// New parses every *.yaml / *.yml file at the root of fsys.
func New(fsys fs.FS) (*Loader, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}

	l := &Loader{scripts: make(map[string]domain.Script)}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(path.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", e.Name(), err)
		}
		doc, err := ParseDocument(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		switch doc.Kind {
		case KindCatalog:
			if l.catalog != nil {
				return nil, fmt.Errorf("%s: %w: more than one catalog", e.Name(), ErrInvalidDocument)
			}
			l.catalog = doc.Categories
		case KindScript:
			if _, dup := l.scripts[doc.Script.ID]; dup {
				return nil, fmt.Errorf("%s: %w: duplicate script id %q", e.Name(), ErrInvalidDocument, doc.Script.ID)
			}
			l.scripts[doc.Script.ID] = doc.Script
		}
	}
	return l, nil
}

// NewEmbedded returns a loader over the scripts compiled into the binary.
func NewEmbedded() (*Loader, error) {
	sub, err := fs.Sub(embedded, "scripts")
	if err != nil {
		return nil, err
	}
	return New(sub)
}

// NewDir returns a loader over a directory on disk.
func NewDir(dir string) (*Loader, error) {
	return New(os.DirFS(dir))
}

// Script returns the script with the given id.
func (l *Loader) Script(id string) (domain.Script, error) {
	s, ok := l.scripts[id]
	if !ok {
		return domain.Script{}, fmt.Errorf("%w: %s", domain.ErrScriptNotFound, id)
	}
	return s, nil
}

// ListScripts returns every script id in sorted order.
func (l *Loader) ListScripts() ([]string, error) {
	ids := make([]string, 0, len(l.scripts))
	for id := range l.scripts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Catalog returns the customization categories in visiting order.
func (l *Loader) Catalog() ([]domain.Category, error) {
	if l.catalog == nil {
		return nil, ErrNoCatalog
	}
	return append([]domain.Category(nil), l.catalog...), nil
}
