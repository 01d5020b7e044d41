// Package definitions loads a Baserock-style definitions tree into component records.
package definitions

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/huangsam/srcmeasure/internal/contract"
	"github.com/huangsam/srcmeasure/schema"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by Resolve for identifiers absent from the tree.
var ErrNotFound = errors.New("definition not found")

// Definitions is an immutable, in-memory view of a definitions tree.
type Definitions struct {
	dir      string
	records  map[string]schema.ComponentRecord
	overlaid map[string]string // id -> file that first overlaid repo/ref
	warnings []string
}

var _ contract.DefinitionResolver = &Definitions{} // Compile-time check

// Load reads every *.morph file below dir, plus *.yaml/*.yml files that declare a kind.
func Load(dir string) (*Definitions, error) {
	d := &Definitions{
		dir:      dir,
		records:  make(map[string]schema.ComponentRecord),
		overlaid: make(map[string]string),
	}

	var pending []overlay
	err := filepath.WalkDir(dir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if p != dir && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(p)
		if ext != ".morph" && ext != ".yaml" && ext != ".yml" {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		ov, err := d.loadFile(p, contract.NormalizeDefinitionID(rel), ext == ".morph")
		if err != nil {
			return err
		}
		pending = append(pending, ov...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, ov := range pending {
		d.applyOverlay(ov)
	}
	return d, nil
}

// LoadRecords builds Definitions from records already in memory.
func LoadRecords(records ...schema.ComponentRecord) *Definitions {
	d := &Definitions{
		records:  make(map[string]schema.ComponentRecord, len(records)),
		overlaid: make(map[string]string),
	}
	for _, rec := range records {
		rec.ID = contract.NormalizeDefinitionID(rec.ID)
		d.records[rec.ID] = rec
	}
	return d
}

// Resolve returns the record for id. Identifiers are normalized first, and
// an id without extension also matches its .morph file.
func (d *Definitions) Resolve(id string) (schema.ComponentRecord, error) {
	norm := contract.NormalizeDefinitionID(id)
	if rec, ok := d.records[norm]; ok {
		return rec, nil
	}
	if path.Ext(norm) == "" {
		if rec, ok := d.records[norm+".morph"]; ok {
			return rec, nil
		}
	}
	return schema.ComponentRecord{}, fmt.Errorf("%w: %q", ErrNotFound, id)
}

// IDs returns every known identifier, sorted.
func (d *Definitions) IDs() []string {
	ids := make([]string, 0, len(d.records))
	for id := range d.records {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of records.
func (d *Definitions) Len() int {
	return len(d.records)
}

// Dir returns the tree root the definitions were loaded from.
func (d *Definitions) Dir() string {
	return d.dir
}

// Warnings returns non-fatal issues found while loading, such as conflicting refs.
func (d *Definitions) Warnings() []string {
	return slices.Clone(d.warnings)
}

// overlay carries source fields that a parent entry assigns to a referenced definition.
type overlay struct {
	file  string
	entry schema.ComponentRecord
}

func (d *Definitions) loadFile(p, id string, isMorph bool) ([]overlay, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", id, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse %s: %w", id, err)
	}
	if len(root.Content) == 0 {
		d.warnings = append(d.warnings, fmt.Sprintf("%s: empty definition skipped", id))
		return nil, nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		if !isMorph {
			return nil, nil
		}
		return nil, fmt.Errorf("parse %s: definition must be a mapping", id)
	}
	if !isMorph && !hasKey(doc, "kind") {
		return nil, nil
	}

	var raw rawDoc
	if err := doc.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", id, err)
	}
	return d.build(id, raw)
}

// build turns one parsed file into records, returning the overlays it implies.
func (d *Definitions) build(id string, raw rawDoc) ([]overlay, error) {
	rec := schema.ComponentRecord{
		ID:           id,
		Name:         raw.Name,
		Kind:         raw.Kind,
		Repo:         raw.Repo,
		Ref:          raw.Ref,
		UnpetrifyRef: raw.UnpetrifyRef,
		BuildDepends: refIDs(raw.BuildDepends, nil),
	}
	if rec.Name == "" {
		rec.Name = rec.DisplayName()
	}

	var overlays []overlay
	for _, list := range [][]rawEntry{raw.Contents, raw.Chunks, raw.Strata} {
		siblings := siblingIDs(id, list)
		for _, e := range list {
			childID, err := entryID(id, e)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", id, err)
			}
			rec.Contents = append(rec.Contents, childID)

			child := schema.ComponentRecord{
				ID:           childID,
				Name:         e.Name,
				Repo:         e.Repo,
				Ref:          e.Ref,
				UnpetrifyRef: e.UnpetrifyRef,
				BuildDepends: refIDs(e.BuildDepends, siblings),
			}
			if e.Morph == "" {
				child.Kind = childKind(raw.Kind)
				if _, exists := d.records[childID]; exists {
					return nil, fmt.Errorf("parse %s: duplicate entry %q", id, e.Name)
				}
				d.records[childID] = child
			} else if e.hasOverlay() || e.Name != "" {
				overlays = append(overlays, overlay{file: id, entry: child})
			}
		}
	}

	var systems []schema.SystemEntry
	flattenSystems(raw.Systems, &systems)
	rec.Systems = systems

	if _, exists := d.records[id]; exists {
		return nil, fmt.Errorf("parse %s: identifier already defined", id)
	}
	d.records[id] = rec
	return overlays, nil
}

// applyOverlay merges an entry's source fields into the referenced record.
// The first overlay to set repo/ref wins; later conflicting ones are reported.
func (d *Definitions) applyOverlay(ov overlay) {
	e := ov.entry
	rec, ok := d.records[e.ID]
	if !ok {
		rec = schema.ComponentRecord{ID: e.ID, Name: e.Name}
		if rec.Name == "" {
			rec.Name = rec.DisplayName()
		}
	}

	if e.Repo != "" || e.Ref != "" {
		if first, seen := d.overlaid[e.ID]; seen {
			if e.Repo != rec.Repo || e.Ref != rec.Ref {
				d.warnings = append(d.warnings, fmt.Sprintf("%s: %s sets %s@%s, keeping %s@%s from %s",
					e.ID, ov.file, e.Repo, e.Ref, rec.Repo, rec.Ref, first))
			}
		} else {
			d.overlaid[e.ID] = ov.file
			if e.Repo != "" {
				rec.Repo = e.Repo
			}
			if e.Ref != "" {
				rec.Ref = e.Ref
			}
			if e.UnpetrifyRef != "" {
				rec.UnpetrifyRef = e.UnpetrifyRef
			}
		}
	}
	for _, dep := range e.BuildDepends {
		if !slices.Contains(rec.BuildDepends, dep) {
			rec.BuildDepends = append(rec.BuildDepends, dep)
		}
	}
	d.records[e.ID] = rec
}

// entryID returns the identifier an entry refers to.
func entryID(parentID string, e rawEntry) (string, error) {
	if e.Morph != "" {
		return contract.NormalizeDefinitionID(e.Morph), nil
	}
	if e.Name == "" {
		return "", fmt.Errorf("line %d: entry needs a morph or name", e.line)
	}
	return parentID + "/" + e.Name, nil
}

// siblingIDs maps entry names in one list to their identifiers.
func siblingIDs(parentID string, list []rawEntry) map[string]string {
	out := make(map[string]string, len(list))
	for _, e := range list {
		if e.Name == "" {
			continue
		}
		if id, err := entryID(parentID, e); err == nil {
			out[e.Name] = id
		}
	}
	return out
}

// refIDs converts dependency references to identifiers, preferring sibling names.
func refIDs(refs []rawRef, siblings map[string]string) []string {
	if len(refs) == 0 {
		return nil
	}
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if !r.IsMorph {
			if id, ok := siblings[r.Value]; ok {
				out = append(out, id)
				continue
			}
		}
		out = append(out, contract.NormalizeDefinitionID(r.Value))
	}
	return out
}

func flattenSystems(in []rawSystem, out *[]schema.SystemEntry) {
	for _, s := range in {
		if t := s.target(); t != "" {
			*out = append(*out, schema.SystemEntry{Path: contract.NormalizeDefinitionID(t)})
		}
		flattenSystems(s.Subsystems, out)
	}
}

func childKind(parentKind string) string {
	switch parentKind {
	case "stratum":
		return "chunk"
	case "system":
		return "stratum"
	default:
		return "component"
	}
}

func hasKey(mapping *yaml.Node, key string) bool {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return true
		}
	}
	return false
}
