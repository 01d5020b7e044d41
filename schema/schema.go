// Package schema has configs, models and constants shared by all parts of srcmeasure.
package schema

import "strings"

// SystemEntry is one entry of a cluster's systems list.
type SystemEntry struct {
	Path string `json:"path"`
}

// ComponentRecord is a node in the definition graph.
// A record with both Repo and Ref is a measurable unit; any other record only
// contributes dependency edges.
type ComponentRecord struct {
	ID           string        `json:"id"`                      // Path-like identifier, unique within the graph
	Name         string        `json:"name"`                    // Human-readable component name
	Kind         string        `json:"kind,omitempty"`          // chunk, stratum, system, cluster
	BuildDepends []string      `json:"build_depends,omitempty"` // Identifiers of build dependencies
	Contents     []string      `json:"contents,omitempty"`      // Identifiers of contained components
	Systems      []SystemEntry `json:"systems,omitempty"`       // Sub-systems of a cluster
	Repo         string        `json:"repo,omitempty"`          // Source repository locator
	Ref          string        `json:"ref,omitempty"`           // Source revision
	UnpetrifyRef string        `json:"unpetrify_ref,omitempty"` // Display label for Ref
}

// IsMeasurable reports whether the record names a source repository and revision.
func (c ComponentRecord) IsMeasurable() bool {
	return c.Repo != "" && c.Ref != ""
}

// Key returns the work item key of a measurable record.
func (c ComponentRecord) Key() WorkItemKey {
	return WorkItemKey{Repo: c.Repo, Ref: c.Ref}
}

// RefName returns the display label of the revision, falling back to the raw ref.
func (c ComponentRecord) RefName() string {
	if c.UnpetrifyRef != "" {
		return c.UnpetrifyRef
	}
	return c.Ref
}

// DisplayName returns Name, or the last element of ID when the record is unnamed.
func (c ComponentRecord) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	name := c.ID
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, ".morph")
}

// Dependencies returns build-depends, then contents, then system paths.
func (c ComponentRecord) Dependencies() []string {
	deps := make([]string, 0, len(c.BuildDepends)+len(c.Contents)+len(c.Systems))
	deps = append(deps, c.BuildDepends...)
	deps = append(deps, c.Contents...)
	for _, s := range c.Systems {
		deps = append(deps, s.Path)
	}
	return deps
}
