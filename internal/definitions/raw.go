package definitions

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// rawDoc is the subset of a definition file that describes the graph.
type rawDoc struct {
	Name         string      `yaml:"name"`
	Kind         string      `yaml:"kind"`
	Repo         string      `yaml:"repo"`
	Ref          string      `yaml:"ref"`
	UnpetrifyRef string      `yaml:"unpetrify-ref"`
	BuildDepends []rawRef    `yaml:"build-depends"`
	Contents     []rawEntry  `yaml:"contents"`
	Chunks       []rawEntry  `yaml:"chunks"`
	Strata       []rawEntry  `yaml:"strata"`
	Systems      []rawSystem `yaml:"systems"`
}

// rawRef is a dependency written either as a bare string or as a {morph: path} map.
type rawRef struct {
	Value   string
	IsMorph bool
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *rawRef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		r.Value = node.Value
		return nil
	case yaml.MappingNode:
		var m struct {
			Morph string `yaml:"morph"`
			Name  string `yaml:"name"`
		}
		if err := node.Decode(&m); err != nil {
			return err
		}
		if m.Morph != "" {
			r.Value, r.IsMorph = m.Morph, true
			return nil
		}
		if m.Name != "" {
			r.Value = m.Name
			return nil
		}
		return fmt.Errorf("line %d: dependency needs a morph or name", node.Line)
	default:
		return fmt.Errorf("line %d: unsupported dependency shape", node.Line)
	}
}

// rawEntry is one item of a contents, chunks or strata list.
type rawEntry struct {
	Name         string   `yaml:"name"`
	Morph        string   `yaml:"morph"`
	Repo         string   `yaml:"repo"`
	Ref          string   `yaml:"ref"`
	UnpetrifyRef string   `yaml:"unpetrify-ref"`
	BuildDepends []rawRef `yaml:"build-depends"`
	line         int
}

// UnmarshalYAML implements yaml.Unmarshaler. A bare string is a morph path.
func (e *rawEntry) UnmarshalYAML(node *yaml.Node) error {
	e.line = node.Line
	if node.Kind == yaml.ScalarNode {
		e.Morph = node.Value
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: unsupported entry shape", node.Line)
	}
	type plain rawEntry
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*e = rawEntry(p)
	e.line = node.Line
	return nil
}

// hasOverlay reports whether the entry carries source fields for its target.
func (e rawEntry) hasOverlay() bool {
	return e.Repo != "" || e.Ref != "" || e.UnpetrifyRef != "" || len(e.BuildDepends) > 0
}

// rawSystem is one item of a cluster's systems list.
type rawSystem struct {
	Path       string      `yaml:"path"`
	Morph      string      `yaml:"morph"`
	Subsystems []rawSystem `yaml:"subsystems"`
}

// target returns the definition the system entry points at.
func (s rawSystem) target() string {
	if s.Path != "" {
		return s.Path
	}
	return s.Morph
}
