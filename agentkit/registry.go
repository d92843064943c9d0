// Copyright (c) StudyFlow Authors. All rights reserved.

package agentkit

import (
	"fmt"
	"sort"
)

// Registry is a static mapping from capability name to unit. It is
// populated once at process start and read-only afterwards, so it can be
// shared freely across turns. Resolution is exact-match on name; there is
// no fuzzy matching.
type Registry struct {
	units map[string]Capability
	order []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{units: make(map[string]Capability)}
}

// Register adds a unit to the registry. A duplicate name or an empty
// description is rejected: the description is the sole routing signal and
// a unit without one can never be selected.
func (r *Registry) Register(c Capability) error {
	name := c.Name()
	if name == "" {
		return fmt.Errorf("%w: empty capability name", ErrCapability)
	}
	if c.Description() == "" {
		return fmt.Errorf("%w: capability %q has no description", ErrCapability, name)
	}
	if _, exists := r.units[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateCapability, name)
	}
	r.units[name] = c
	r.order = append(r.order, name)
	return nil
}

// MustRegister registers units and panics on error. Intended for process
// startup where a registration failure is a programming mistake.
func (r *Registry) MustRegister(units ...Capability) {
	for _, c := range units {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
}

// Resolve looks up a unit by exact name.
func (r *Registry) Resolve(name string) (Capability, bool) {
	c, ok := r.units[name]
	return c, ok
}

// Active returns the registered units minus the exclusion set, in
// registration order. Passing capability names in exclude lets a caller
// disable a subset for a given conversation (e.g., all units for a
// reasoning-only mode).
func (r *Registry) Active(exclude ...string) []Capability {
	excluded := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		excluded[name] = struct{}{}
	}
	var active []Capability
	for _, name := range r.order {
		if _, skip := excluded[name]; skip {
			continue
		}
		active = append(active, r.units[name])
	}
	return active
}

// Descriptors returns the routing descriptors for the active units.
func (r *Registry) Descriptors(exclude ...string) []Descriptor {
	units := r.Active(exclude...)
	ds := make([]Descriptor, 0, len(units))
	for _, c := range units {
		ds = append(ds, DescriptorOf(c))
	}
	return ds
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.units))
	for name := range r.units {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
