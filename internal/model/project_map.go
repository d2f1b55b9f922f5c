package model

import "encoding/json"

// Identity keys that every ProjectMap starts with.
const (
	// KeyProjectName holds the application name (config app.name).
	KeyProjectName = "projectName"

	// KeyLaravelVersion holds the framework version identifier.
	KeyLaravelVersion = "laravelVersion"
)

// ProjectMap is the single artifact aimap produces: an ordered mapping from
// section name to a JSON-compatible value.
//
// Invariants:
//   - projectName and laravelVersion are always present and always first
//   - a section key is present if and only if its producer was enabled
//   - a present section is nil or empty only after a non-fatal failure
//
// The map is created fresh for every run and serialized once.
type ProjectMap struct {
	entries *OrderedMap
}

// NewProjectMap creates a ProjectMap seeded with the two identity keys.
func NewProjectMap(projectName, laravelVersion string) *ProjectMap {
	entries := NewOrderedMap()
	entries.Set(KeyProjectName, projectName)
	entries.Set(KeyLaravelVersion, laravelVersion)
	return &ProjectMap{entries: entries}
}

// SetSection stores the value produced for a section.
// Sections are kept in the order they were first set.
func (p *ProjectMap) SetSection(key string, value any) {
	p.entries.Set(key, value)
}

// Section returns the value stored for key.
func (p *ProjectMap) Section(key string) (any, bool) {
	return p.entries.Get(key)
}

// Keys returns all top-level keys in output order.
func (p *ProjectMap) Keys() []string {
	return p.entries.Keys()
}

// ProjectName returns the projectName identity value.
func (p *ProjectMap) ProjectName() string {
	v, _ := p.entries.Get(KeyProjectName)
	s, _ := v.(string)
	return s
}

// LaravelVersion returns the laravelVersion identity value.
func (p *ProjectMap) LaravelVersion() string {
	v, _ := p.entries.Get(KeyLaravelVersion)
	s, _ := v.(string)
	return s
}

// Entries exposes the underlying ordered map for writers.
func (p *ProjectMap) Entries() *OrderedMap {
	return p.entries
}

// MarshalJSON encodes the map as one JSON object in section order.
func (p *ProjectMap) MarshalJSON() ([]byte, error) {
	return p.entries.MarshalJSON()
}

// UnmarshalJSON decodes a previously written project map.
func (p *ProjectMap) UnmarshalJSON(data []byte) error {
	entries := NewOrderedMap()
	if err := json.Unmarshal(data, entries); err != nil {
		return err
	}
	p.entries = entries
	return nil
}
