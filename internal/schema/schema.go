// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schema owns the canonical output schema: the single ordered list
// of column names every row set must match exactly, and the finite alias
// table used to map differently named source headers onto it.
package schema

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"
)

//go:embed canonical_schema.yaml
var defaultDefinition []byte

// Definition is the on-disk representation of the canonical schema.
type Definition struct {
	Version string              `yaml:"version"`
	Count   *int                `yaml:"count"`
	Columns []string            `yaml:"columns"`
	Aliases map[string][]string `yaml:"aliases,omitempty"`
}

// Registry is a loaded, validated schema. It is read-only after Load.
type Registry struct {
	version string
	columns []string

	// lookup maps a lowercased column name or alias to its canonical name.
	lookup map[string]string
}

// Load reads and validates the definition at path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Kind: KindMissing, Detail: fmt.Sprintf("definition %s not found", path)}
		}
		return nil, fmt.Errorf("reading schema definition %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the embedded canonical schema.
func Default() (*Registry, error) {
	return Parse(defaultDefinition)
}

// Parse validates a YAML definition and builds a Registry.
func Parse(data []byte) (*Registry, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, &Error{Kind: KindMissing, Detail: "definition is empty"}
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing schema definition: %w", err)
	}
	return FromDefinition(def)
}

// FromDefinition validates def and builds a Registry. Checks run in a fixed
// order: missing, count, empty names, duplicates, aliases.
func FromDefinition(def Definition) (*Registry, error) {
	if def.Count == nil {
		return nil, &Error{Kind: KindMissing, Detail: "column count not declared"}
	}
	if len(def.Columns) == 0 && *def.Count == 0 {
		return nil, &Error{Kind: KindMissing, Detail: "no columns declared"}
	}
	if *def.Count != len(def.Columns) {
		return nil, &Error{
			Kind:   KindCountMismatch,
			Detail: fmt.Sprintf("declared %d columns, found %d", *def.Count, len(def.Columns)),
		}
	}

	lookup := make(map[string]string, len(def.Columns))
	for i, c := range def.Columns {
		if strings.TrimSpace(c) == "" {
			return nil, &Error{Kind: KindEmptyName, Detail: fmt.Sprintf("column %d is blank", i+1)}
		}
		key := strings.ToLower(c)
		if _, dup := lookup[key]; dup {
			return nil, &Error{Kind: KindDuplicateColumn, Column: c}
		}
		lookup[key] = c
	}

	canonicals := make([]string, 0, len(def.Aliases))
	for canonical := range def.Aliases {
		canonicals = append(canonicals, canonical)
	}
	sort.Strings(canonicals)

	for _, canonical := range canonicals {
		if !slices.Contains(def.Columns, canonical) {
			return nil, &Error{Kind: KindUnknownColumn, Column: canonical, Detail: "alias entry for a column not in the schema"}
		}
		for _, a := range def.Aliases[canonical] {
			key := strings.ToLower(strings.TrimSpace(a))
			if key == "" {
				return nil, &Error{Kind: KindEmptyName, Column: canonical, Detail: "blank alias"}
			}
			if owner, taken := lookup[key]; taken && owner != canonical {
				return nil, &Error{
					Kind:   KindAliasConflict,
					Column: canonical,
					Detail: fmt.Sprintf("alias %q already resolves to %q", a, owner),
				}
			}
			lookup[key] = canonical
		}
	}

	cols := make([]string, len(def.Columns))
	copy(cols, def.Columns)
	return &Registry{version: def.Version, columns: cols, lookup: lookup}, nil
}

// Version returns the definition version string.
func (r *Registry) Version() string { return r.version }

// Columns returns a copy of the ordered canonical column list.
func (r *Registry) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Len returns the number of canonical columns.
func (r *Registry) Len() int { return len(r.columns) }

// Validate rejects any column list that is not identical, name for name
// and position for position, to the registry.
func (r *Registry) Validate(columns []string) error {
	if len(columns) != len(r.columns) {
		return &Error{
			Kind:   KindColumnMismatch,
			Detail: fmt.Sprintf("expected %d columns, got %d", len(r.columns), len(columns)),
		}
	}
	for i := range r.columns {
		if columns[i] != r.columns[i] {
			return &Error{
				Kind:   KindColumnMismatch,
				Column: columns[i],
				Detail: fmt.Sprintf("position %d: expected %q", i+1, r.columns[i]),
			}
		}
	}
	return nil
}

// Validate is the package-level form of Registry.Validate.
func Validate(r *Registry, columns []string) error {
	if r == nil {
		return &Error{Kind: KindMissing, Detail: "no registry loaded"}
	}
	return r.Validate(columns)
}

// Canonicalize maps source headers to canonical column names using exact,
// case-insensitive matches against column names and declared aliases. A
// header that maps to nothing, or two headers mapping to the same column,
// is an error.
func (r *Registry) Canonicalize(header []string) ([]string, error) {
	out := make([]string, len(header))
	seen := make(map[string]string, len(header))
	for i, h := range header {
		canonical, ok := r.lookup[strings.ToLower(strings.TrimSpace(h))]
		if !ok {
			return nil, &Error{Kind: KindUnknownColumn, Column: h, Detail: "no canonical column or alias matches"}
		}
		if prev, dup := seen[canonical]; dup {
			return nil, &Error{
				Kind:   KindDuplicateColumn,
				Column: canonical,
				Detail: fmt.Sprintf("headers %q and %q both map to it", prev, h),
			}
		}
		seen[canonical] = h
		out[i] = canonical
	}
	return out, nil
}
