// Package walk has the depth-first traversal over a component definition graph.
package walk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/huangsam/srcmeasure/internal/contract"
	"github.com/huangsam/srcmeasure/schema"
)

// ErrUnresolved is returned when a dependency cannot be resolved. The whole walk aborts.
var ErrUnresolved = errors.New("unresolved dependency")

// frame is one record whose dependencies are being expanded.
type frame struct {
	rec  schema.ComponentRecord
	deps []string
	next int
}

// Walk returns every component reachable from root, dependencies first.
//
// Each identifier appears at most once. A record is emitted only after all of
// its not-yet-emitted dependencies. Dependencies are expanded in the order
// build-depends, contents, systems. Root itself is not emitted; callers that
// want it append it. An identifier already scheduled, including one still
// being expanded, is never expanded again, which silently breaks cycles.
func Walk(ctx context.Context, resolver contract.DefinitionResolver, root schema.ComponentRecord) ([]schema.ComponentRecord, error) {
	scheduled := map[string]struct{}{root.ID: {}}
	stack := []*frame{{rec: root, deps: root.Dependencies()}}
	var out []schema.ComponentRecord

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		top := stack[len(stack)-1]
		if top.next == len(top.deps) {
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				out = append(out, top.rec)
			}
			continue
		}

		dep := contract.NormalizeDefinitionID(top.deps[top.next])
		top.next++
		if dep == "" {
			return nil, fmt.Errorf("%w %q (required by %s): empty identifier", ErrUnresolved, dep, chain(stack))
		}
		if _, seen := scheduled[dep]; seen {
			continue
		}
		scheduled[dep] = struct{}{}

		rec, err := resolver.Resolve(dep)
		if err != nil {
			return nil, fmt.Errorf("%w %q (required by %s): %w", ErrUnresolved, dep, chain(stack), err)
		}
		// Aliased identifiers resolve to one record; expand it once.
		if rec.ID != dep {
			if _, seen := scheduled[rec.ID]; seen {
				continue
			}
			scheduled[rec.ID] = struct{}{}
		}
		stack = append(stack, &frame{rec: rec, deps: rec.Dependencies()})
	}
	return out, nil
}

// chain renders the in-progress expansion path, root first.
func chain(stack []*frame) string {
	ids := make([]string, len(stack))
	for i, f := range stack {
		ids[i] = f.rec.ID
	}
	return strings.Join(ids, " -> ")
}

// Keys returns the distinct work item keys of records, in order, skipping structural ones.
func Keys(records []schema.ComponentRecord) []schema.WorkItemKey {
	seen := make(map[schema.WorkItemKey]struct{})
	var keys []schema.WorkItemKey
	for _, rec := range records {
		if !rec.IsMeasurable() {
			continue
		}
		k := rec.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}
