package unitdefs

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

//go:embed defaults.json
var embeddedDefaults embed.FS

type source interface {
	Load() ([]byte, error)
	Path() string
}

type fileSource struct {
	path string
}

func (f fileSource) Load() ([]byte, error) {
	return os.ReadFile(f.path)
}

func (f fileSource) Path() string {
	return f.path
}

type embeddedSource struct{}

func (embeddedSource) Load() ([]byte, error) {
	return embeddedDefaults.ReadFile("defaults.json")
}

func (embeddedSource) Path() string {
	return "embedded defaults.json"
}

// Catalog is the resolved archetype lookup table. Later sources override
// earlier ones by ID so a level pack can patch individual archetypes.
type Catalog struct {
	entries map[string]Archetype
	order   []string
}

// Load resolves the catalog from the given file paths. With no paths it
// serves the embedded default roster so a bare `lanefall` run works without
// any on-disk configuration.
func Load(paths ...string) (*Catalog, error) {
	sources := make([]source, 0, len(paths)+1)
	sources = append(sources, embeddedSource{})
	for _, path := range paths {
		if path == "" {
			continue
		}
		sources = append(sources, fileSource{path: path})
	}
	return loadSources(sources)
}

func loadSources(sources []source) (*Catalog, error) {
	catalog := &Catalog{entries: make(map[string]Archetype)}
	for _, src := range sources {
		data, err := src.Load()
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", src.Path(), err)
		}
		doc, err := decodeDocument(data)
		if err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", src.Path(), err)
		}
		seen := make(map[string]struct{}, len(doc.Archetypes))
		for _, archetype := range doc.Archetypes {
			if err := archetype.Validate(); err != nil {
				return nil, fmt.Errorf("catalog %s: %w", src.Path(), err)
			}
			if _, duplicate := seen[archetype.ID]; duplicate {
				return nil, fmt.Errorf("catalog %s: duplicate archetype %q", src.Path(), archetype.ID)
			}
			seen[archetype.ID] = struct{}{}
			if _, exists := catalog.entries[archetype.ID]; !exists {
				catalog.order = append(catalog.order, archetype.ID)
			}
			catalog.entries[archetype.ID] = archetype
		}
	}
	if len(catalog.entries) == 0 {
		return nil, errors.New("catalog resolved no archetypes")
	}
	sort.Strings(catalog.order)
	return catalog, nil
}

func decodeDocument(data []byte) (Document, error) {
	var doc Document
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Get returns the archetype with the given ID.
func (c *Catalog) Get(id string) (Archetype, bool) {
	if c == nil {
		return Archetype{}, false
	}
	archetype, ok := c.entries[id]
	return archetype, ok
}

// IDs lists resolved archetype IDs in stable (sorted) order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len reports the number of resolved archetypes.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}
